// Package secrets encrypts sensitive settings (the provider API key) before
// they reach the system_setting table.
package secrets

import (
	"fmt"

	"github.com/fernet/fernet-go"
)

// Encryptor seals and opens setting values with a fernet key.
type Encryptor struct {
	key *fernet.Key
}

// NewEncryptor creates an Encryptor from a base64-encoded fernet key.
func NewEncryptor(encodedKey string) (*Encryptor, error) {
	key, err := fernet.DecodeKey(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("invalid settings secret key: %w", err)
	}
	return &Encryptor{key: key}, nil
}

// GenerateKey creates a new random fernet key in its base64 encoding.
// Intended for first-time setup.
func GenerateKey() (string, error) {
	var key fernet.Key
	if err := key.Generate(); err != nil {
		return "", fmt.Errorf("failed to generate settings secret key: %w", err)
	}
	return key.Encode(), nil
}

// Encrypt seals a plaintext value.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	token, err := fernet.EncryptAndSign([]byte(plaintext), e.key)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt setting: %w", err)
	}
	return string(token), nil
}

// Decrypt opens a sealed value. Fails on tampered or foreign-key tokens.
func (e *Encryptor) Decrypt(token string) (string, error) {
	plaintext := fernet.VerifyAndDecrypt([]byte(token), 0, []*fernet.Key{e.key})
	if plaintext == nil {
		return "", fmt.Errorf("failed to decrypt setting: invalid token")
	}
	return string(plaintext), nil
}
