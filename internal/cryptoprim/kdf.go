package cryptoprim

import (
	"bytes"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2idParams are the tunable KDF parameters carried in the envelope's
// KDF_PARAMS chunk. These travel with the file so that costs can be
// raised later without breaking old files.
type Argon2idParams struct {
	Version     uint8 // 0x13 for Argon2 v1.3
	MemCostLog2 uint8 // actual memory = 2^MemCostLog2 KiB
	TimeCost    uint8
	Parallelism uint8
}

// DefaultArgon2idParams are the parameters new envelopes are written with:
// version 0x13, 64 MiB memory, 3 passes, 1 lane.
var DefaultArgon2idParams = Argon2idParams{
	Version:     0x13,
	MemCostLog2: 16,
	TimeCost:    3,
	Parallelism: 1,
}

// ToBytes encodes the parameters as the 4-byte KDF_PARAMS chunk value.
func (p Argon2idParams) ToBytes() []byte {
	return []byte{p.Version, p.MemCostLog2, p.TimeCost, p.Parallelism}
}

// Argon2idParamsFromBytes decodes a 4-byte KDF_PARAMS chunk value.
func Argon2idParamsFromBytes(b []byte) (Argon2idParams, error) {
	if len(b) != 4 {
		return Argon2idParams{}, fmt.Errorf("cryptoprim: KDF_PARAMS must be 4 bytes, got %d", len(b))
	}
	return Argon2idParams{
		Version:     b[0],
		MemCostLog2: b[1],
		TimeCost:    b[2],
		Parallelism: b[3],
	}, nil
}

// MemoryKiB returns the actual Argon2 memory parameter (in KiB) these
// params request.
func (p Argon2idParams) MemoryKiB() uint32 {
	return uint32(1) << p.MemCostLog2
}

// DeriveKey runs Argon2id(passphrase, salt) with the given parameters,
// producing the 32-byte master key.
//
// CRITICAL: a given file's params MUST NOT change or the file becomes
// undecryptable; param tuning is done by rewriting the file via save().
func DeriveKey(passphrase, salt []byte, params Argon2idParams) ([]byte, error) {
	key := argon2.IDKey(
		passphrase,
		salt,
		uint32(params.TimeCost),
		params.MemoryKiB(),
		params.Parallelism,
		KeySize,
	)

	if bytes.Equal(key, make([]byte, KeySize)) {
		return nil, fmt.Errorf("cryptoprim: argon2id produced an all-zero key")
	}

	return key, nil
}

// RawKey returns the passphrase bytes unmodified, truncated or zero-padded
// to KeySize. This backs the KDF=raw (no derivation) chunk value, mainly
// useful for tests that need a deterministic key without paying Argon2's
// cost.
func RawKey(passphrase []byte) []byte {
	key := make([]byte, KeySize)
	copy(key, passphrase)
	return key
}
