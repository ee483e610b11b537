package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const (
	encryptionKeyEnv = "ENCRYPTION_KEY"
)

var encryptionKey []byte

func init() {
	if key := os.Getenv(encryptionKeyEnv); key != "" {
		encryptionKey = []byte(key)
	}
}

func keyBytes() ([]byte, error) {
	if len(encryptionKey) == 0 {
		return nil, fmt.Errorf("%s environment variable is not set", encryptionKeyEnv)
	}
	if len(encryptionKey) != 32 {
		return nil, fmt.Errorf("%s must be exactly 32 bytes (256 bits)", encryptionKeyEnv)
	}
	return encryptionKey, nil
}

func Encrypt(plaintext string) (string, error) {
	key, err := keyBytes()
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(ciphertext), nil
}

func Decrypt(encryptedText string) (string, error) {
	key, err := keyBytes()
	if err != nil {
		return "", err
	}

	ciphertext, err := hex.DecodeString(encryptedText)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// SetEncryptionKey overrides the key read from the environment. Used by
// tests and by operators rotating the key at startup.
func SetEncryptionKey(key string) error {
	if len(key) != 32 {
		return fmt.Errorf("encryption key must be exactly 32 bytes (256 bits)")
	}
	encryptionKey = []byte(key)
	return nil
}

func EncryptionConfigured() bool {
	return len(encryptionKey) == 32
}
