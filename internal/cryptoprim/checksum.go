package cryptoprim

import (
	"encoding/base64"
	"hash/crc32"
)

// CRC32 computes the IEEE 802.3 CRC32 (zero seed) of data, used for the
// plaintext integrity chunk and is deliberately redundant with the
// Poly1305 MAC; it exists for recovery diagnostics.
func CRC32(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Base64Encode encodes data as standard Base64 with no line wrapping.
func Base64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Base64Decode decodes standard, unwrapped Base64 text.
func Base64Decode(text string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(text)
}
