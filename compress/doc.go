// Package compress provides streaming codecs for compressed sensor log artifacts.
//
// Rotated or archived logs are commonly stored compressed. The reader opens a
// source, picks a codec from the file suffix (see format.DetectCompression)
// and reads lines through the codec's decompressing stream. The CLI uses the
// compressing side to write filtered output.
//
// # Supported Algorithms
//
//   - None: plain text, passed through
//   - Zstd: klauspost/compress decoder (pure Go), or valyala/gozstd with the gozstd build tag
//   - S2: S2/Snappy framed stream (klauspost/compress/s2)
//   - LZ4: LZ4 frame format (pierrec/lz4)
//   - Gzip: gzip members, including concatenated ones (klauspost/compress/gzip)
//
// # Usage
//
//	codec, err := compress.GetCodec(format.DetectCompression(path))
//	if err != nil {
//		return err
//	}
//	rc, err := codec.NewReader(f)
//	if err != nil {
//		return err
//	}
//	defer rc.Close()
//
// Compressed streams are not seekable, so tail mode scans them forward and
// follow mode rejects them.
//
// Decoders for Zstd and LZ4 are pooled; Close on the returned reader hands the
// decoder back to the pool, so a reader must not be used after Close.
package compress
