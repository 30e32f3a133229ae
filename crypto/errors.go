package crypto

import "errors"

var (
	// ErrEncryptionFailed is returned when the AEAD cannot be set up or no
	// nonce could be read.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed is returned when the tag does not verify: wrong
	// password, tampered data, or data that was never encrypted.
	ErrDecryptionFailed = errors.New("decryption failed: wrong password or corrupted data")

	// ErrMalformedBlob is returned when a blob is too short to hold a nonce.
	ErrMalformedBlob = errors.New("encrypted data too short")
)
