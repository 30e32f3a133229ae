// Package crypto contains the password-based AES-256-GCM layer that protects
// secrets before they are embedded.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	// Overhead is the number of bytes Encrypt adds to a plaintext.
	Overhead = NonceSize + TagSize
)

// Cipher seals and opens secrets with a key derived from a password.
// The zero value is not usable; construct one with NewCipher.
type Cipher struct {
	random io.Reader
}

// NewCipher returns a Cipher drawing nonces from random. A nil reader selects
// crypto/rand.Reader.
func NewCipher(random io.Reader) *Cipher {
	if random == nil {
		random = rand.Reader
	}
	return &Cipher{random: random}
}

// DeriveKey hashes the password with SHA-256. There is no salt and no
// stretching: images produced by earlier releases depend on this exact key.
func DeriveKey(password []byte) [KeySize]byte {
	return sha256.Sum256(password)
}

// Encrypt returns nonce || ciphertext || tag. A fresh nonce is read for every call.
func (c *Cipher) Encrypt(secret, password []byte) ([]byte, error) {
	gcm, err := newGCM(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}

	nonce := make([]byte, NonceSize, NonceSize+len(secret)+TagSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return nil, fmt.Errorf("%w: reading nonce: %v", ErrEncryptionFailed, err)
	}

	return gcm.Seal(nonce, nonce, secret, nil), nil
}

// Decrypt reverses Encrypt. Nothing is returned unless the tag verifies.
func (c *Cipher) Decrypt(blob, password []byte) ([]byte, error) {
	if len(blob) < NonceSize {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d", ErrMalformedBlob, len(blob), NonceSize)
	}

	gcm, err := newGCM(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	plaintext, err := gcm.Open(nil, blob[:NonceSize], blob[NonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newGCM(password []byte) (cipher.AEAD, error) {
	key := DeriveKey(password)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}
