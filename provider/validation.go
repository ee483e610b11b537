package provider

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"authbridge/utils"
)

type ConfigValidationResult struct {
	IsValid  bool
	Errors   []ConfigurationError
	Warnings []string
}

// ValidateOAuthConfig checks the provider registration at startup and
// prints a summary. The server still starts when invalid so the status
// and import endpoints stay available, but begin/callback will fail.
func ValidateOAuthConfig() *ConfigValidationResult {
	result := &ConfigValidationResult{
		IsValid:  true,
		Errors:   []ConfigurationError{},
		Warnings: []string{},
	}

	clientID := os.Getenv("GOOGLE_CLIENT_ID")
	clientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	redirectURL := os.Getenv("GOOGLE_REDIRECT_URL")

	fmt.Println("=== Validating OAuth Configuration ===")

	if clientID == "" {
		result.IsValid = false
		result.Errors = append(result.Errors, ConfigurationError{
			Field:   "GOOGLE_CLIENT_ID",
			Message: "is not set",
		})
		fmt.Println("✗ GOOGLE_CLIENT_ID is not set")
	} else {
		fmt.Printf("✓ GOOGLE_CLIENT_ID is set: %s\n", utils.MaskValue(clientID))
	}

	if clientSecret == "" {
		result.IsValid = false
		result.Errors = append(result.Errors, ConfigurationError{
			Field:   "GOOGLE_CLIENT_SECRET",
			Message: "is not set",
		})
		fmt.Println("✗ GOOGLE_CLIENT_SECRET is not set")
	} else {
		fmt.Printf("✓ GOOGLE_CLIENT_SECRET is set: %s\n", utils.MaskValue(clientSecret))
	}

	if redirectURL == "" {
		result.Warnings = append(result.Warnings, "GOOGLE_REDIRECT_URL not set, using default http://127.0.0.1:5001/oauth/callback")
		fmt.Println("⚠ GOOGLE_REDIRECT_URL not set, using default")
		return result
	}

	fmt.Printf("✓ GOOGLE_REDIRECT_URL is set: %s\n", redirectURL)

	if !strings.Contains(redirectURL, "/oauth/callback") {
		result.IsValid = false
		result.Errors = append(result.Errors, ConfigurationError{
			Field:   "GOOGLE_REDIRECT_URL",
			Message: "does not contain expected path /oauth/callback",
		})
		fmt.Println("✗ GOOGLE_REDIRECT_URL does not contain expected path")
	}

	if strings.HasPrefix(redirectURL, "https://") {
		fmt.Println("⚠ GOOGLE_REDIRECT_URL uses HTTPS (verify the provider app settings match)")
	} else if strings.HasPrefix(redirectURL, "http://") {
		if strings.Contains(redirectURL, "localhost") || strings.Contains(redirectURL, "127.0.0.1") {
			fmt.Println("✓ GOOGLE_REDIRECT_URL uses HTTP with a loopback host (acceptable for development)")
		} else {
			result.Warnings = append(result.Warnings, "GOOGLE_REDIRECT_URL uses HTTP without a loopback host (should use HTTPS for production)")
			fmt.Println("⚠ GOOGLE_REDIRECT_URL uses HTTP without a loopback host")
		}
	} else {
		result.IsValid = false
		result.Errors = append(result.Errors, ConfigurationError{
			Field:   "GOOGLE_REDIRECT_URL",
			Message: "has invalid protocol (must start with http:// or https://)",
		})
		fmt.Println("✗ GOOGLE_REDIRECT_URL has invalid protocol")
	}

	if _, err := url.Parse(redirectURL); err != nil {
		result.IsValid = false
		result.Errors = append(result.Errors, ConfigurationError{
			Field:   "GOOGLE_REDIRECT_URL",
			Message: fmt.Sprintf("is not a valid URL: %v", err),
		})
		fmt.Println("✗ GOOGLE_REDIRECT_URL is not a valid URL")
	}

	if result.IsValid {
		fmt.Println("=== OAuth configuration is valid ===")
	} else {
		fmt.Println("=== OAuth configuration has errors ===")
	}

	return result
}
