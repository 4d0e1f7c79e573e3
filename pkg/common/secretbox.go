package common

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	sealedPrefix = "sealed:v1:"
	nonceSize    = 24
	keySize      = 32
)

var ErrSecretCorrupt = errors.New("sealed secret is corrupt")

// SecretBox seals account secrets at rest. A nil *SecretBox passes values through.
type SecretBox struct {
	key [keySize]byte
}

// NewSecretBox builds a box from a base64 32-byte key. An empty key returns nil.
func NewSecretBox(encodedKey string) (*SecretBox, error) {
	if encodedKey == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("decode encryption key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(raw))
	}

	b := &SecretBox{}
	copy(b.key[:], raw)
	return b, nil
}

func (b *SecretBox) Seal(plain string) (string, error) {
	if b == nil || plain == "" {
		return plain, nil
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", err
	}

	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &b.key)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without the sealed prefix are returned as-is so
// rows written before a key was configured stay readable.
func (b *SecretBox) Open(value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	if b == nil {
		return "", errors.New("sealed secret found but no encryption key is configured")
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrSecretCorrupt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])

	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrSecretCorrupt
	}
	return string(plain), nil
}
