// Package codec is the payload boundary between the backend and the
// coordination service. Every payload stored in the namespace goes through
// a Codec; writers and subscribers of the same cluster must share one.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Codec turns values into stored bytes and back. Implementations must be
// safe for concurrent use.
type Codec interface {
	Encode(v any) ([]byte, error)
	// Decode unmarshals data into v, which must be a pointer.
	Decode(data []byte, v any) error
}

// GzipJSON is the default codec: JSON body compressed with gzip.
type GzipJSON struct{}

var _ Codec = GzipJSON{}

func (GzipJSON) Encode(v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("codec: encode: %w", err)
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("codec: compress: %w", err)
	}
	return buf.Bytes(), nil
}

func (GzipJSON) Decode(data []byte, v any) error {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("codec: decompress: %w", err)
	}
	defer zr.Close()
	body, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("codec: decompress: %w", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("codec: decode: %w", err)
	}
	return nil
}
