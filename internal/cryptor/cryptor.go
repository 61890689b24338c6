// Package cryptor provides the per-password inner encryption layer: each
// password field is sealed independently of the envelope, under the same
// master key, so a record can be decrypted on demand without touching
// the rest of the table.
package cryptor

import (
	"fmt"

	"keybox/internal/cryptoprim"
	kberrors "keybox/internal/errors"
)

// EncryptPassword seals plaintext under key with a freshly generated
// nonce and returns Base64(nonce || ciphertext), the form stored in the
// password column.
func EncryptPassword(key, plaintext []byte) (string, error) {
	keyArr, err := cryptoprim.KeyArray(key)
	if err != nil {
		return "", fmt.Errorf("cryptor: %w", err)
	}

	nonce, err := cryptoprim.RandomBytes(cryptoprim.NonceSize)
	if err != nil {
		return "", fmt.Errorf("cryptor: generate nonce: %w", err)
	}
	nonceArr, err := cryptoprim.NonceArray(nonce)
	if err != nil {
		return "", fmt.Errorf("cryptor: %w", err)
	}

	ciphertext := cryptoprim.Seal(keyArr, nonceArr, plaintext)
	sealed := make([]byte, 0, len(nonce)+len(ciphertext))
	sealed = append(sealed, nonce...)
	sealed = append(sealed, ciphertext...)

	return cryptoprim.Base64Encode(sealed), nil
}

// DecryptPassword reverses EncryptPassword: it decodes encoded, splits
// the leading nonce from the ciphertext, and opens it under key.
func DecryptPassword(key []byte, encoded string) ([]byte, error) {
	sealed, err := cryptoprim.Base64Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("cryptor: %w: %v", kberrors.ErrTableSyntax, err)
	}
	if len(sealed) < cryptoprim.NonceSize {
		return nil, fmt.Errorf("cryptor: %w: password field too short", kberrors.ErrTableSyntax)
	}

	nonce := sealed[:cryptoprim.NonceSize]
	ciphertext := sealed[cryptoprim.NonceSize:]

	keyArr, err := cryptoprim.KeyArray(key)
	if err != nil {
		return nil, fmt.Errorf("cryptor: %w", err)
	}
	nonceArr, err := cryptoprim.NonceArray(nonce)
	if err != nil {
		return nil, fmt.Errorf("cryptor: %w", err)
	}

	plaintext, err := cryptoprim.Open(keyArr, nonceArr, ciphertext)
	if err != nil {
		return nil, kberrors.ErrAuthFailure
	}
	return plaintext, nil
}

// Rewrap decrypts every value in encoded under oldKey and re-encrypts it
// under newKey with a fresh nonce, used by the facade on every save
// because save() regenerates the envelope's salt and nonce and therefore
// derives a new master key each time.
func Rewrap(oldKey, newKey []byte, encoded []string) ([]string, error) {
	out := make([]string, len(encoded))
	for i, enc := range encoded {
		if enc == "" {
			continue
		}
		plain, err := DecryptPassword(oldKey, enc)
		if err != nil {
			return nil, fmt.Errorf("cryptor: rewrap index %d: %w", i, err)
		}
		sealed, err := EncryptPassword(newKey, plain)
		cryptoprim.SecureZero(plain)
		if err != nil {
			return nil, fmt.Errorf("cryptor: rewrap index %d: %w", i, err)
		}
		out[i] = sealed
	}
	return out, nil
}
