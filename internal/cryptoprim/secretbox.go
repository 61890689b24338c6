// Package cryptoprim wraps the authenticated encryption, key derivation,
// checksum, and compression primitives the keybox envelope and password
// cryptor build on.
//
// CRITICAL: this is AUDIT-CRITICAL code - changes here directly affect
// whether existing keybox files can still be opened.
package cryptoprim

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	kberrors "keybox/internal/errors"
)

// Key and nonce sizes for the secretbox construction (XSalsa20+Poly1305).
const (
	KeySize   = 32
	NonceSize = 24
	// Overhead is the number of bytes secretbox appends to the plaintext
	// (the Poly1305 tag).
	Overhead = secretbox.Overhead
)

// RandomBytes returns n cryptographically secure random bytes, used for
// salts and nonces. Checks that crypto/rand did not silently hand back
// an all-zero buffer.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("crypto/rand: %w", err)
	}

	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, fmt.Errorf("crypto/rand: produced all-zero output")
	}

	return b, nil
}

// Seal encrypts and authenticates plaintext under key and nonce, returning
// ciphertext = secretbox(plaintext) (plaintext length + Overhead bytes).
func Seal(key *[KeySize]byte, nonce *[NonceSize]byte, plaintext []byte) []byte {
	return secretbox.Seal(nil, plaintext, nonce, key)
}

// Open verifies and decrypts ciphertext produced by Seal. Returns
// ErrAuthFailure if the Poly1305 tag does not verify; no partial
// plaintext is ever returned on failure.
func Open(key *[KeySize]byte, nonce *[NonceSize]byte, ciphertext []byte) ([]byte, error) {
	plaintext, ok := secretbox.Open(nil, ciphertext, nonce, key)
	if !ok {
		return nil, kberrors.ErrAuthFailure
	}
	return plaintext, nil
}

// KeyArray copies a 32-byte key slice into the fixed-size array the
// secretbox API requires.
func KeyArray(key []byte) (*[KeySize]byte, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("cryptoprim: key must be %d bytes, got %d", KeySize, len(key))
	}
	var out [KeySize]byte
	copy(out[:], key)
	return &out, nil
}

// NonceArray copies a 24-byte nonce slice into the fixed-size array the
// secretbox API requires.
func NonceArray(nonce []byte) (*[NonceSize]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("cryptoprim: nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	var out [NonceSize]byte
	copy(out[:], nonce)
	return &out, nil
}
