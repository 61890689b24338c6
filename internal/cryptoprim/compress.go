package cryptoprim

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"
)

// DeflateLevel is the compression level used for the optional COMPRESSION=1
// chunk. compress/flate writes raw deflate (no zlib/gzip wrapper), the
// stream zlib produces with window bits -15; nothing in the retrieved example
// pack offers a third-party raw-deflate codec, so this is one of the few
// primitives left on the standard library (see DESIGN.md).
const DeflateLevel = flate.DefaultCompression

// Deflate compresses plaintext with raw deflate.
func Deflate(plaintext []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, DeflateLevel)
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: deflate writer: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("cryptoprim: deflate write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("cryptoprim: deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

// Inflate decompresses raw-deflate data produced by Deflate.
func Inflate(compressed []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(compressed))
	defer func() { _ = r.Close() }()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("cryptoprim: inflate: %w", err)
	}
	return out, nil
}
