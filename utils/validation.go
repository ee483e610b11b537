package utils

import (
	"strings"
)

type ValidationErr struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationResult struct {
	Valid  bool
	Errors []ValidationErr
}

func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors = append(v.Errors, ValidationErr{
		Field:   field,
		Message: message,
	})
}

func (v *ValidationResult) HasErrors() bool {
	return !v.Valid
}

func (v *ValidationResult) Error() string {
	if !v.Valid {
		messages := make([]string, len(v.Errors))
		for i, e := range v.Errors {
			messages[i] = e.Message
		}
		return strings.Join(messages, "; ")
	}
	return ""
}

func NewValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

const maxUserIDLength = 255

// ValidateUserID checks the opaque account identifier consumers pass to
// the broker. The id is a storage key, so control characters and
// whitespace are rejected outright.
func ValidateUserID(userID string) *ValidationResult {
	result := NewValidationResult()

	if strings.TrimSpace(userID) == "" {
		result.AddError("user_id", "user_id is required")
		return result
	}

	if len(userID) > maxUserIDLength {
		result.AddError("user_id", "user_id exceeds maximum length")
	}

	for _, c := range userID {
		if c < 0x20 || c == 0x7f {
			result.AddError("user_id", "user_id contains control characters")
			break
		}
	}

	if strings.ContainsAny(userID, " \t\r\n") {
		result.AddError("user_id", "user_id must not contain whitespace")
	}

	return result
}
