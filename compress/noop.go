package compress

import (
	"io"

	"github.com/arloliu/sensorpipe/format"
)

// NoOpCodec passes data through unchanged. It is the codec for plain-text logs.
type NoOpCodec struct{}

var _ Codec = (*NoOpCodec)(nil)

// NewNoOpCodec creates a new pass-through codec.
func NewNoOpCodec() NoOpCodec {
	return NoOpCodec{}
}

// Type returns format.CompressionNone.
func (c NoOpCodec) Type() format.CompressionType {
	return format.CompressionNone
}

// NewReader returns r with a no-op Close.
func (c NoOpCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

// NewWriter returns w with a no-op Close.
func (c NoOpCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return &writeCloser{Writer: w, closeFunc: func() error { return nil }}, nil
}
