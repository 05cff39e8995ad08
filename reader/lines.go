package reader

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/arloliu/sensorpipe/errs"
	"github.com/arloliu/sensorpipe/internal/pool"
)

const readBufferSize = 64 * 1024

// lineReader splits a stream into physical lines.
//
// Only newline-terminated lines are returned by next; text after the last
// newline stays buffered across io.EOF so a follow loop can wait for the
// writer to finish the line. flush hands it out when the stream is final.
type lineReader struct {
	br       *bufio.Reader
	pending  *pool.ByteBuffer
	maxLine  int
	overflow bool
	queue    []string // replayed lines, served before the stream
	lineNo   int      // number of the last line returned
	offset   int64    // stream bytes consumed by returned lines
}

func newLineReader(r io.Reader, maxLine int) *lineReader {
	return &lineReader{
		br:      bufio.NewReaderSize(r, readBufferSize),
		pending: pool.GetLineBuffer(),
		maxLine: maxLine,
	}
}

// release returns the pending buffer to the pool. The reader must not be used afterwards.
func (lr *lineReader) release() {
	pool.PutLineBuffer(lr.pending)
	lr.pending = nil
}

// reset discards buffered state and continues from r, e.g. after a seek.
func (lr *lineReader) reset(r io.Reader, offset int64) {
	lr.br.Reset(r)
	lr.pending.Reset()
	lr.overflow = false
	lr.offset = offset
}

// replay queues lines to be returned before any further stream data and
// restarts line numbering at 1.
func (lr *lineReader) replay(lines []string) {
	lr.queue = lines
	lr.lineNo = 0
}

// next returns the next line without its "\n" or "\r\n" terminator.
//
// It returns io.EOF when the stream is exhausted (see flush), and an error
// wrapping errs.ErrLineTooLong for a line longer than maxLine; that line is
// consumed and reading can continue.
func (lr *lineReader) next() (string, error) {
	if len(lr.queue) > 0 {
		line := lr.queue[0]
		lr.queue = lr.queue[1:]
		lr.lineNo++

		return line, nil
	}

	for {
		chunk, err := lr.br.ReadSlice('\n')
		lr.offset += int64(len(chunk))
		if !lr.overflow {
			if lr.pending.Len()+len(chunk) > lr.maxLine+2 {
				lr.overflow = true
				lr.pending.Reset()
			} else {
				_, _ = lr.pending.Write(chunk)
			}
		}

		switch {
		case err == nil:
			lr.lineNo++
			if lr.overflow {
				lr.overflow = false
				return "", fmt.Errorf("line %d: %w", lr.lineNo, errs.ErrLineTooLong)
			}
			line := string(trimEOL(lr.pending.Bytes()))
			lr.pending.Reset()

			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return "", err
		}
	}
}

// flush returns the unterminated text buffered at end of stream, if any.
func (lr *lineReader) flush() (string, bool) {
	if lr.pending.Len() == 0 && !lr.overflow {
		return "", false
	}
	lr.lineNo++
	if lr.overflow {
		lr.overflow = false
		return "", false
	}
	line := string(trimEOL(lr.pending.Bytes()))
	lr.pending.Reset()

	return line, true
}

func trimEOL(b []byte) []byte {
	b = bytes.TrimSuffix(b, []byte{'\n'})
	return bytes.TrimSuffix(b, []byte{'\r'})
}
