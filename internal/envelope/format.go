// Package envelope implements the keybox binary file format: the
// MAGIC + TLV chunk header, driving compression and authenticated
// encryption of the plaintext record table, and the plaintext CRC32
// integrity check.
//
// CRITICAL: this is AUDIT-CRITICAL code - changes here directly affect
// whether existing keybox files can still be opened.
package envelope

import "keybox/internal/cryptoprim"

// Magic is the literal 4-byte prefix every keybox file begins with.
var Magic = [4]byte{'[', 'K', ']', 0x00}

// Chunk tags.
const (
	TagEnd         byte = 0
	TagDataSize    byte = 1
	TagPlainSize   byte = 2
	TagCompression byte = 3
	TagCipher      byte = 4
	TagKDF         byte = 5
	TagKDFParams   byte = 6
	TagSalt        byte = 7
	TagCRC32       byte = 8
)

// CompressionKind identifies the COMPRESSION chunk value.
type CompressionKind byte

const (
	CompressionNone    CompressionKind = 0
	CompressionDeflate CompressionKind = 1
)

// CipherKind identifies the CIPHER chunk value.
type CipherKind byte

const (
	CipherXSalsa20Poly1305 CipherKind = 1
)

// KDFKind identifies the KDF chunk value.
type KDFKind byte

const (
	KDFRaw     KDFKind = 0
	KDFArgon2 KDFKind = 1
)

// SaltSize is the default Argon2 salt length written by new envelopes.
const SaltSize = 16

// Params selects the envelope's compression, cipher, and KDF, plus the
// Argon2id tuning parameters when KDF is argon2id. These all live in the
// file so costs can be raised later without breaking old files.
type Params struct {
	Compression CompressionKind
	Cipher      CipherKind
	KDF         KDFKind
	KDFParams   cryptoprim.Argon2idParams
}

// DefaultParams returns the parameters new envelopes are written with:
// raw deflate compression, XSalsa20+Poly1305, Argon2id with the default
// tuning.
func DefaultParams() Params {
	return Params{
		Compression: CompressionDeflate,
		Cipher:      CipherXSalsa20Poly1305,
		KDF:         KDFArgon2,
		KDFParams:   cryptoprim.DefaultArgon2idParams,
	}
}

// header is the fully-parsed (or about-to-be-written) set of chunk
// values, independent of their wire encoding.
type header struct {
	DataSize    uint64
	PlainSize   uint64
	Compression CompressionKind
	Cipher      CipherKind
	KDF         KDFKind
	KDFParams   []byte
	Salt        []byte
	CRC32       uint32
}
