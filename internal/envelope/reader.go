package envelope

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"keybox/internal/cryptoprim"
	kberrors "keybox/internal/errors"
	"keybox/internal/log"
)

// Read parses a complete keybox envelope from r, derives the master key
// from passphrase using the KDF parameters stored in the header, and
// returns the decrypted, decompressed, and integrity-checked plaintext
// table together with the derived key and the Params actually stored in
// the file. Callers that intend to rewrite the file (the keybox facade)
// must hold onto the returned Params rather than assuming DefaultParams,
// since the file owns its own compression/cipher/KDF tuning.
//
// Unknown chunk tags are logged and skipped (forward compatibility).
// Unknown cipher/KDF/compression values, a bad magic, a truncated header
// or data region, a failed MAC, or a plaintext size/CRC32 mismatch are
// all fatal and return a typed error.
func Read(r io.Reader, passphrase []byte) (plaintext []byte, key []byte, params Params, err error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("magic", 0, fmt.Errorf("%w: %v", kberrors.ErrIO, err))
	}
	if magic != Magic {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("magic", 0, kberrors.ErrBadMagic)
	}

	var metaSizeBytes [4]byte
	if _, err := io.ReadFull(r, metaSizeBytes[:]); err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("meta_size", 4, kberrors.ErrTruncatedHeader)
	}
	metaSize := binary.LittleEndian.Uint32(metaSizeBytes[:])

	metaData := make([]byte, metaSize)
	if _, err := io.ReadFull(r, metaData); err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("meta_data", 8, kberrors.ErrTruncatedHeader)
	}

	hdr, err := parseChunks(metaData)
	if err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("chunk", 8, err)
	}

	params = Params{
		Compression: hdr.Compression,
		Cipher:      hdr.Cipher,
		KDF:         hdr.KDF,
	}
	if hdr.KDF == KDFArgon2 {
		argonParams, err := cryptoprim.Argon2idParamsFromBytes(hdr.KDFParams)
		if err != nil {
			return nil, nil, Params{}, kberrors.NewEnvelopeError("kdf_params", -1, err)
		}
		params.KDFParams = argonParams
	}

	switch hdr.Cipher {
	case CipherXSalsa20Poly1305:
	default:
		return nil, nil, Params{}, kberrors.NewEnvelopeError("cipher", -1, kberrors.ErrUnknownCipher)
	}
	switch hdr.KDF {
	case KDFRaw, KDFArgon2:
	default:
		return nil, nil, Params{}, kberrors.NewEnvelopeError("kdf", -1, kberrors.ErrUnknownKDF)
	}
	switch hdr.Compression {
	case CompressionNone, CompressionDeflate:
	default:
		return nil, nil, Params{}, kberrors.NewEnvelopeError("compression", -1, kberrors.ErrUnknownCompression)
	}

	key, err = DeriveKey(passphrase, hdr.Salt, params)
	if err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("kdf", -1, err)
	}

	dataRegion := make([]byte, hdr.DataSize)
	if _, err := io.ReadFull(r, dataRegion); err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("data", int64(8+metaSize), kberrors.ErrTruncatedData)
	}
	if len(dataRegion) < cryptoprim.NonceSize {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("data", int64(8+metaSize), kberrors.ErrTruncatedData)
	}
	nonce := dataRegion[:cryptoprim.NonceSize]
	ciphertext := dataRegion[cryptoprim.NonceSize:]

	keyArr, err := cryptoprim.KeyArray(key)
	if err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("key", -1, err)
	}
	nonceArr, err := cryptoprim.NonceArray(nonce)
	if err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("nonce", -1, err)
	}

	payload, err := cryptoprim.Open(keyArr, nonceArr, ciphertext)
	if err != nil {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("decrypt", -1, kberrors.ErrAuthFailure)
	}

	if hdr.Compression == CompressionDeflate {
		payload, err = cryptoprim.Inflate(payload)
		if err != nil {
			return nil, nil, Params{}, kberrors.NewEnvelopeError("inflate", -1, fmt.Errorf("%w: %v", kberrors.ErrIntegrityFailure, err))
		}
	}

	if uint64(len(payload)) != hdr.PlainSize {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("plain_size", -1, kberrors.ErrIntegrityFailure)
	}
	if cryptoprim.CRC32(payload) != hdr.CRC32 {
		return nil, nil, Params{}, kberrors.NewEnvelopeError("crc32", -1, kberrors.ErrIntegrityFailure)
	}

	return payload, key, params, nil
}

// parseChunks walks META_DATA, decoding the known tags into a header and
// logging+skipping any tag it does not recognize, so newer files with
// additional chunks still open in older binaries.
func parseChunks(metaData []byte) (header, error) {
	var h header
	r := chunkReader{buf: metaData}

	for {
		c, ok, err := r.next()
		if err != nil {
			return header{}, err
		}
		if !ok {
			break
		}

		switch c.Tag {
		case TagEnd:
			// Bytes after END up to META_SIZE are ignored.
			return h, nil
		case TagDataSize:
			v, err := uintValue(c.Value)
			if err != nil {
				return header{}, fmt.Errorf("DATA_SIZE: %w", err)
			}
			h.DataSize = v
		case TagPlainSize:
			v, err := uintValue(c.Value)
			if err != nil {
				return header{}, fmt.Errorf("PLAIN_SIZE: %w", err)
			}
			h.PlainSize = v
		case TagCompression:
			v, err := uintValue(c.Value)
			if err != nil {
				return header{}, fmt.Errorf("COMPRESSION: %w", err)
			}
			h.Compression = CompressionKind(v)
		case TagCipher:
			v, err := uintValue(c.Value)
			if err != nil {
				return header{}, fmt.Errorf("CIPHER: %w", err)
			}
			h.Cipher = CipherKind(v)
		case TagKDF:
			v, err := uintValue(c.Value)
			if err != nil {
				return header{}, fmt.Errorf("KDF: %w", err)
			}
			h.KDF = KDFKind(v)
		case TagKDFParams:
			h.KDFParams = append([]byte(nil), c.Value...)
		case TagSalt:
			h.Salt = append([]byte(nil), c.Value...)
		case TagCRC32:
			v, err := uintValue(c.Value)
			if err != nil {
				return header{}, fmt.Errorf("CRC32: %w", err)
			}
			h.CRC32 = uint32(v)
		default:
			log.Warn("unknown envelope chunk tag, skipping", log.Tag(c.Tag), log.Int("size", len(c.Value)))
		}
	}

	return h, nil
}

// Probe reports whether data begins with the keybox magic, without
// attempting to decrypt anything. Useful for the facade to distinguish
// "not a keybox file" from other open failures before prompting for a
// passphrase.
func Probe(data []byte) bool {
	return bytes.HasPrefix(data, Magic[:])
}
