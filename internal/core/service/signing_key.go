package service

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const minSigningKeyBytes = 32

// SigningKey is immutable HMAC key material. Keys are decoded once at startup
// and shared read-only by all callers; access and refresh tokens use separate
// keys so a single key compromise cannot forge the other kind.
type SigningKey []byte

// ParseSigningKey decodes a base64-encoded secret into key material. HS256
// wants at least 256 bits of key; shorter secrets are rejected at startup
// rather than silently weakening every token.
func ParseSigningKey(secret string) (SigningKey, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("decode signing secret: %w", err)
	}
	if len(key) < minSigningKeyBytes {
		return nil, fmt.Errorf("signing secret is %d bytes, need at least %d", len(key), minSigningKeyBytes)
	}
	return SigningKey(key), nil
}
