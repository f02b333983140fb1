package redis

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
)

// DefaultCompressionThreshold is the payload size above which values are
// brotli-compressed. Analysis bundles of multi-location templates are
// usually larger than this.
const DefaultCompressionThreshold = 1024

const (
	formatRaw    byte = 0
	formatBrotli byte = 1
)

// Codec frames cached values with a one-byte format marker
type Codec struct {
	compress  bool
	threshold int
}

// NewCodec creates a codec; compression off stores every value raw
func NewCodec(compress bool, threshold int) *Codec {
	return &Codec{compress: compress, threshold: threshold}
}

// Encode frames and optionally compresses a value
func (c *Codec) Encode(value []byte) ([]byte, error) {
	if !c.compress || len(value) <= c.threshold {
		return append([]byte{formatRaw}, value...), nil
	}

	var buf bytes.Buffer
	buf.WriteByte(formatBrotli)
	w := brotli.NewWriterLevel(&buf, brotli.DefaultCompression)
	if _, err := w.Write(value); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reverses Encode. Values written by a codec with compression
// disabled decode the same way.
func (c *Codec) Decode(raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty cache frame")
	}
	switch raw[0] {
	case formatRaw:
		return raw[1:], nil
	case formatBrotli:
		return io.ReadAll(brotli.NewReader(bytes.NewReader(raw[1:])))
	default:
		return nil, fmt.Errorf("unknown cache frame format %d", raw[0])
	}
}
