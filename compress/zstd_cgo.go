//go:build gozstd

package compress

import (
	"io"

	"github.com/valyala/gozstd"
)

// NewReader returns a decompressing reader over r using the cgo decoder.
func (c ZstdCodec) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr := gozstd.NewReader(r)

	return &readCloser{Reader: zr, release: zr.Release}, nil
}

// NewWriter returns a compressing writer over w at the default level.
func (c ZstdCodec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw := gozstd.NewWriterLevel(w, gozstd.DefaultCompressionLevel)

	return &writeCloser{Writer: zw, closeFunc: zw.Close, release: zw.Release}, nil
}
