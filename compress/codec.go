package compress

import (
	"fmt"
	"io"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/format"
)

// Compressor wraps a destination writer with a compressing stream.
//
// Closing the returned writer flushes buffered data and finishes the stream
// framing. It does not close w.
type Compressor interface {
	NewWriter(w io.Writer) (io.WriteCloser, error)
}

// Decompressor wraps a compressed source with a decompressing stream.
//
// Closing the returned reader releases pooled decoder state. It does not
// close r.
//
// Thread Safety: implementations are safe for concurrent use; each returned
// stream belongs to a single goroutine.
type Decompressor interface {
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
	Type() format.CompressionType
}

// CreateCodec is a factory function that creates a Codec based on the specified compression type.
//
// Parameters:
//   - compressionType: Type of compression (None, Zstd, S2, LZ4 or Gzip)
//   - target: Description of target usage (for error messages)
//
// Returns:
//   - Codec: Codec instance for the specified type
//   - error: errs.ErrUnknownCompression for CompressionAuto or an unknown type
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCodec(), nil
	case format.CompressionZstd:
		return NewZstdCodec(), nil
	case format.CompressionS2:
		return NewS2Codec(), nil
	case format.CompressionLZ4:
		return NewLZ4Codec(), nil
	case format.CompressionGzip:
		return NewGzipCodec(), nil
	default:
		return nil, fmt.Errorf("%w: invalid %s compression: %s", errs.ErrUnknownCompression, target, compressionType)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCodec(),
	format.CompressionZstd: NewZstdCodec(),
	format.CompressionS2:   NewS2Codec(),
	format.CompressionLZ4:  NewLZ4Codec(),
	format.CompressionGzip: NewGzipCodec(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: unsupported compression type: %s", errs.ErrUnknownCompression, compressionType)
}

// NewReader decompresses r with the built-in codec for compressionType.
func NewReader(r io.Reader, compressionType format.CompressionType) (io.ReadCloser, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.NewReader(r)
}

// NewWriter compresses into w with the built-in codec for compressionType.
func NewWriter(w io.Writer, compressionType format.CompressionType) (io.WriteCloser, error) {
	codec, err := GetCodec(compressionType)
	if err != nil {
		return nil, err
	}

	return codec.NewWriter(w)
}

// readCloser pairs a stream reader with a release function run once on Close.
type readCloser struct {
	io.Reader
	release func()
}

func (rc *readCloser) Close() error {
	if rc.release != nil {
		rc.release()
		rc.release = nil
	}
	rc.Reader = eofReader{}

	return nil
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

// writeCloser finishes a stream with closeFunc and then runs release.
type writeCloser struct {
	io.Writer
	closeFunc func() error
	release   func()
}

func (wc *writeCloser) Close() error {
	if wc.closeFunc == nil {
		return nil
	}
	err := wc.closeFunc()
	wc.closeFunc = nil
	if wc.release != nil {
		wc.release()
		wc.release = nil
	}

	return err
}
