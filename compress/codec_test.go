package compress

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/format"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getAllCodecs() map[string]Codec {
	return map[string]Codec{
		"NoOp": NewNoOpCodec(),
		"Zstd": NewZstdCodec(),
		"S2":   NewS2Codec(),
		"LZ4":  NewLZ4Codec(),
		"Gzip": NewGzipCodec(),
	}
}

func compressBytes(t testing.TB, codec Codec, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	w, err := codec.NewWriter(&buf)
	require.NoError(t, err)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func decompressBytes(codec Codec, data []byte) ([]byte, error) {
	r, err := codec.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}

func TestCreateCodec(t *testing.T) {
	for _, ct := range []format.CompressionType{
		format.CompressionNone, format.CompressionZstd, format.CompressionS2,
		format.CompressionLZ4, format.CompressionGzip,
	} {
		codec, err := CreateCodec(ct, "output")
		require.NoError(t, err)
		require.Equal(t, ct, codec.Type())

		builtin, err := GetCodec(ct)
		require.NoError(t, err)
		require.Equal(t, ct, builtin.Type())
	}

	_, err := CreateCodec(format.CompressionAuto, "output")
	require.ErrorIs(t, err, errs.ErrUnknownCompression)
	require.Contains(t, err.Error(), "output")

	_, err = GetCodec(format.CompressionType(0x7f))
	require.ErrorIs(t, err, errs.ErrUnknownCompression)

	_, err = NewReader(strings.NewReader(""), format.CompressionAuto)
	require.ErrorIs(t, err, errs.ErrUnknownCompression)
}

// TestAllCodecs_RoundTrip writes NDJSON-like payloads through every codec and reads them back.
func TestAllCodecs_RoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{
			name: "single_line",
			data: []byte(`{"sensor":"ds18b20","value":"21.5"}` + "\n"),
		},
		{
			name: "no_trailing_newline",
			data: []byte("timestamp,sensor,value\n1700000000,dht22,40.1"),
		},
		{
			name: "repeated_lines",
			data: bytes.Repeat([]byte(`{"sensor":"bme280","pressure":"1013.2","ts":"1700000000"}`+"\n"), 2048), // ~120KB
		},
		{
			name: "binary_data",
			data: []byte{0x00, 0x01, 0x02, 0x03, 0xFF, 0xFE, 0xFD, 0xFC},
		},
		{
			name: "highly_compressible",
			data: make([]byte, 1024*1024), // 1MB of zeros
		},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					compressed := compressBytes(t, codec, tc.data)

					decompressed, err := decompressBytes(codec, compressed)
					require.NoError(t, err)
					require.Equal(t, tc.data, decompressed, "Decompressed data must match original")
				})
			}
		})
	}
}

func TestAllCodecs_EmptyStream(t *testing.T) {
	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed := compressBytes(t, codec, nil)

			decompressed, err := decompressBytes(codec, compressed)
			require.NoError(t, err)
			require.Empty(t, decompressed)
		})
	}
}

func TestGzip_EmptyInput(t *testing.T) {
	decompressed, err := decompressBytes(NewGzipCodec(), nil)
	require.NoError(t, err)
	require.Empty(t, decompressed)
}

func TestGzip_ConcatenatedMembers(t *testing.T) {
	codec := NewGzipCodec()
	first := compressBytes(t, codec, []byte("a\n"))
	second := compressBytes(t, codec, []byte("b\n"))

	decompressed, err := decompressBytes(codec, append(append([]byte{}, first...), second...))
	require.NoError(t, err)
	require.Equal(t, "a\nb\n", string(decompressed))
}

// TestAllCodecs_InvalidData tests that all codecs report corrupt input.
func TestAllCodecs_InvalidData(t *testing.T) {
	invalidInputs := []struct {
		name string
		data []byte
	}{
		{
			name: "random_bytes",
			data: []byte{0xFF, 0xFF, 0xFF, 0xFF},
		},
		{
			name: "text_as_compressed",
			data: []byte("this is not compressed data"),
		},
	}

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			// NoOp codec doesn't validate data, so skip invalid data tests
			if codecName == "NoOp" {
				t.Skip("NoOp codec doesn't validate data")
				return
			}

			for _, input := range invalidInputs {
				t.Run(input.name, func(t *testing.T) {
					_, err := decompressBytes(codec, input.data)
					require.Error(t, err, "Should return error for invalid compressed data")
				})
			}
		})
	}
}

func TestAllCodecs_Truncated(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"sensor":"dht22","humidity":"40"}`+"\n"), 512)

	for codecName, codec := range getAllCodecs() {
		if codecName == "NoOp" {
			continue
		}
		t.Run(codecName, func(t *testing.T) {
			compressed := compressBytes(t, codec, payload)
			_, err := decompressBytes(codec, compressed[:len(compressed)/2])
			require.Error(t, err)
		})
	}
}

// TestAllCodecs_ConcurrentUsage checks that pooled decoders are never shared
// between live streams.
func TestAllCodecs_ConcurrentUsage(t *testing.T) {
	const numGoroutines = 20

	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			payloads := make([][]byte, numGoroutines)
			compressed := make([][]byte, numGoroutines)
			for i := range payloads {
				payloads[i] = bytes.Repeat([]byte{byte('a' + i)}, 4096+i)
				compressed[i] = compressBytes(t, codec, payloads[i])
			}

			var wg sync.WaitGroup
			for i := range numGoroutines {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range 10 {
						got, err := decompressBytes(codec, compressed[i])
						if !assert.NoError(t, err) {
							return
						}
						assert.Equal(t, payloads[i], got)
					}
				}()
			}
			wg.Wait()
		})
	}
}

func TestReader_CloseIsIdempotent(t *testing.T) {
	for codecName, codec := range getAllCodecs() {
		t.Run(codecName, func(t *testing.T) {
			compressed := compressBytes(t, codec, []byte("line\n"))
			r, err := codec.NewReader(bytes.NewReader(compressed))
			require.NoError(t, err)
			require.NoError(t, r.Close())
			require.NoError(t, r.Close())
		})
	}
}

func TestPackageHelpers(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, format.CompressionZstd)
	require.NoError(t, err)
	_, err = io.WriteString(w, "x,y\n1,2\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(&buf, format.CompressionZstd)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, "x,y\n1,2\n", string(got))
}
