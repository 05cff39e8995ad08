package compress

import "github.com/arloliu/sensorpipe/format"

// ZstdCodec reads and writes Zstandard streams.
//
// The default build uses the pure Go decoder from klauspost/compress. Building
// with the gozstd tag switches to the cgo binding of the reference library.
type ZstdCodec struct{}

var _ Codec = (*ZstdCodec)(nil)

// NewZstdCodec creates a new Zstd codec with default settings.
//
// Example:
//
//	codec := NewZstdCodec()
//	rc, err := codec.NewReader(f)
//	if err != nil {
//		return err
//	}
//	defer rc.Close()
func NewZstdCodec() ZstdCodec {
	return ZstdCodec{}
}

// Type returns format.CompressionZstd.
func (c ZstdCodec) Type() format.CompressionType {
	return format.CompressionZstd
}
