package envelope

import (
	"encoding/binary"
	"fmt"
	"io"

	"keybox/internal/cryptoprim"
)

// Write encodes plaintext as a complete keybox envelope: a fresh salt and
// nonce, a key derived as params.KDF selects (Argon2id by default),
// optional raw-deflate compression, and
// XSalsa20+Poly1305 authenticated encryption, written to w in the order
// MAGIC, META_SIZE, META_DATA, DATA.
//
// It returns the derived master key so the caller can reuse it to seal
// per-password ciphertext with the same key, and the salt that was
// generated, for bookkeeping.
func Write(w io.Writer, passphrase []byte, plaintext []byte, params Params) (key, salt []byte, err error) {
	salt, err = cryptoprim.RandomBytes(SaltSize)
	if err != nil {
		return nil, nil, fmt.Errorf("envelope: generate salt: %w", err)
	}

	key, err = DeriveKey(passphrase, salt, params)
	if err != nil {
		return nil, nil, err
	}

	if err := WriteWithKey(w, key, salt, plaintext, params); err != nil {
		return nil, nil, err
	}
	return key, salt, nil
}

// WriteWithKey emits a complete envelope using an already-derived key and
// salt instead of deriving them from a passphrase. The keybox facade uses
// this on save: it must know the new master key before encoding the
// table (so passwords can be rewrapped under it) but after the envelope
// has chosen a fresh salt and nonce, so key derivation happens once, up
// front, rather than being repeated inside Write.
func WriteWithKey(w io.Writer, key, salt, plaintext []byte, params Params) error {
	nonce, err := cryptoprim.RandomBytes(cryptoprim.NonceSize)
	if err != nil {
		return fmt.Errorf("envelope: generate nonce: %w", err)
	}

	payload := plaintext
	if params.Compression == CompressionDeflate {
		payload, err = cryptoprim.Deflate(plaintext)
		if err != nil {
			return fmt.Errorf("envelope: compress: %w", err)
		}
	}

	keyArr, err := cryptoprim.KeyArray(key)
	if err != nil {
		return err
	}
	nonceArr, err := cryptoprim.NonceArray(nonce)
	if err != nil {
		return err
	}

	ciphertext := cryptoprim.Seal(keyArr, nonceArr, payload)
	dataRegion := make([]byte, 0, len(nonce)+len(ciphertext))
	dataRegion = append(dataRegion, nonce...)
	dataRegion = append(dataRegion, ciphertext...)

	var cw chunkWriter
	cw.uint(TagDataSize, uint64(len(dataRegion)), 8)
	cw.uint(TagPlainSize, uint64(len(plaintext)), 8)
	cw.uint(TagCompression, uint64(params.Compression), 1)
	cw.uint(TagCipher, uint64(params.Cipher), 1)
	cw.uint(TagKDF, uint64(params.KDF), 1)
	if params.KDF == KDFArgon2 {
		cw.bytes(TagKDFParams, params.KDFParams.ToBytes())
	}
	cw.bytes(TagSalt, salt)
	cw.uint(TagCRC32, uint64(cryptoprim.CRC32(plaintext)), 4)
	cw.end()

	metaSize := make([]byte, 4)
	binary.LittleEndian.PutUint32(metaSize, uint32(len(cw.buf)))

	if _, err := w.Write(Magic[:]); err != nil {
		return fmt.Errorf("envelope: write magic: %w", err)
	}
	if _, err := w.Write(metaSize); err != nil {
		return fmt.Errorf("envelope: write meta size: %w", err)
	}
	if _, err := w.Write(cw.buf); err != nil {
		return fmt.Errorf("envelope: write meta data: %w", err)
	}
	if _, err := w.Write(dataRegion); err != nil {
		return fmt.Errorf("envelope: write data: %w", err)
	}

	return nil
}

// DeriveKey derives the master key for params.KDF: the raw passphrase
// bytes when KDF is KDFRaw (used by tests and the deterministic path),
// or Argon2id with params.KDFParams otherwise.
func DeriveKey(passphrase, salt []byte, params Params) ([]byte, error) {
	switch params.KDF {
	case KDFRaw:
		return cryptoprim.RawKey(passphrase), nil
	case KDFArgon2:
		return cryptoprim.DeriveKey(passphrase, salt, params.KDFParams)
	default:
		return nil, fmt.Errorf("envelope: unsupported KDF kind %d", params.KDF)
	}
}
