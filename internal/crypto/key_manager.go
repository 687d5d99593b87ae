package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
)

const keySize = 32

var ErrInvalidSessionKey = errors.New("invalid session key: must be base64 encoded 32 bytes")

// KeyManager holds the key that signs wallet session tokens.
type KeyManager struct {
	signingKey []byte
	ephemeral  bool
}

// NewKeyManager loads SESSION_KEY from the environment. When it is unset a
// random key is generated, so sessions do not survive a restart.
func NewKeyManager() (*KeyManager, error) {
	return newKeyManager(os.Getenv("SESSION_KEY"))
}

func newKeyManager(encoded string) (*KeyManager, error) {
	if encoded == "" {
		key, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		return &KeyManager{signingKey: key, ephemeral: true}, nil
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(key) != keySize {
		return nil, ErrInvalidSessionKey
	}
	return &KeyManager{signingKey: key}, nil
}

// NewKeyManagerFromKey wraps an existing key.
func NewKeyManagerFromKey(key []byte) (*KeyManager, error) {
	if len(key) != keySize {
		return nil, ErrInvalidSessionKey
	}
	return &KeyManager{signingKey: append([]byte(nil), key...)}, nil
}

func (km *KeyManager) SigningKey() []byte {
	return km.signingKey
}

// Ephemeral reports whether the key was generated at startup.
func (km *KeyManager) Ephemeral() bool {
	return km.ephemeral
}

// GenerateKey generates a random 32-byte key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
