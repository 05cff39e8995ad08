package compress

import (
	"errors"
	"io"

	"github.com/arloliu/sensorpipe/format"
	"github.com/klauspost/compress/gzip"
)

// GzipCodec reads and writes gzip streams, the default format of logrotate.
//
// Concatenated gzip members are read as one stream.
type GzipCodec struct{}

var _ Codec = (*GzipCodec)(nil)

// NewGzipCodec creates a new gzip codec.
func NewGzipCodec() GzipCodec {
	return GzipCodec{}
}

// Type returns format.CompressionGzip.
func (c GzipCodec) Type() format.CompressionType {
	return format.CompressionGzip
}

// NewReader returns a decompressing reader over r. An empty input is an
// empty stream rather than an error.
func (c GzipCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(r)
	if errors.Is(err, io.EOF) {
		return io.NopCloser(eofReader{}), nil
	}
	if err != nil {
		return nil, err
	}

	return zr, nil
}

// NewWriter returns a compressing writer over w.
func (c GzipCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return gzip.NewWriter(w), nil
}
