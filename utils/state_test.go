package utils

import (
	"testing"
)

func TestGenerateStateToken(t *testing.T) {
	state, err := GenerateStateToken()
	if err != nil {
		t.Fatalf("Failed to generate state token: %v", err)
	}

	if len(state) == 0 {
		t.Fatal("State token should not be empty")
	}

	// 32 random bytes base64url-encoded without padding is 43 chars.
	if len(state) != 43 {
		t.Errorf("State token length should be 43 characters, got %d", len(state))
	}

	for _, c := range state {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_') {
			t.Fatalf("State token contains invalid character: %c", c)
		}
	}
}

func TestStateTokenUniqueness(t *testing.T) {
	tokens := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		state, err := GenerateStateToken()
		if err != nil {
			t.Fatalf("Failed to generate state token: %v", err)
		}

		if tokens[state] {
			t.Fatalf("Duplicate state token generated: %s", state)
		}
		tokens[state] = true
	}
}
