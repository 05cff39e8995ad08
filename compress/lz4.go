package compress

import (
	"io"
	"sync"

	"github.com/arloliu/sensorpipe/format"
	"github.com/pierrec/lz4/v4"
)

// lz4ReaderPool pools lz4.Reader instances for reuse.
// A frame reader keeps block buffers that are worth keeping warm.
var lz4ReaderPool = sync.Pool{
	New: func() any {
		return lz4.NewReader(nil)
	},
}

// LZ4Codec reads and writes the LZ4 frame format (what the lz4 CLI produces).
type LZ4Codec struct{}

var _ Codec = (*LZ4Codec)(nil)

// NewLZ4Codec creates a new LZ4 codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Type returns format.CompressionLZ4.
func (c LZ4Codec) Type() format.CompressionType {
	return format.CompressionLZ4
}

// NewReader returns a decompressing reader over r using a pooled frame reader.
func (c LZ4Codec) NewReader(r io.Reader) (io.ReadCloser, error) {
	zr, _ := lz4ReaderPool.Get().(*lz4.Reader)
	zr.Reset(r)

	return &readCloser{
		Reader: zr,
		release: func() {
			zr.Reset(nil)
			lz4ReaderPool.Put(zr)
		},
	}, nil
}

// NewWriter returns a compressing writer over w.
func (c LZ4Codec) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}
