package reader

import (
	"errors"
	"io"
	"slices"

	"github.com/arloliu/sensorpipe/internal/pool"
)

const tailBlockSize = 64 * 1024

// tailLines returns the last n lines of ra[floor:end] in forward order.
//
// The scan walks backwards from end one block at a time. Bytes of the line
// being collected are appended last-to-first and the buffer is reversed once
// the preceding newline (or floor) is reached, so only the returned lines are
// ever held in memory. A newline at end-1 terminates the final line rather
// than starting an empty one, and a "\r" directly before a newline is dropped.
// Lines are the atomic unit: a line holding several readings is never split.
func tailLines(ra io.ReaderAt, floor, end int64, n int) ([]string, error) {
	if n <= 0 || end <= floor {
		return nil, nil
	}

	bb := pool.GetLineBuffer()
	defer pool.PutLineBuffer(bb)

	block := make([]byte, min(tailBlockSize, end-floor))
	lines := make([]string, 0, min(n, 1024))
	finish := func() {
		bb.Reverse()
		lines = append(lines, bb.String())
		bb.Reset()
	}

	trailing := true  // the next '\n' seen terminates the final line
	atLineEnd := true // the next byte seen is the last byte of a line
	pos := end
scan:
	for pos > floor {
		start := max(floor, pos-int64(len(block)))
		chunk := block[:pos-start]
		if _, err := ra.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}

		for i := len(chunk) - 1; i >= 0; i-- {
			c := chunk[i]
			if c == '\n' {
				if trailing {
					trailing = false
					continue
				}
				finish()
				if len(lines) == n {
					break scan
				}
				atLineEnd = true

				continue
			}
			trailing = false
			if c == '\r' && atLineEnd {
				atLineEnd = false
				continue
			}
			atLineEnd = false
			_ = bb.WriteByte(c)
		}
		pos = start
	}

	if len(lines) < n {
		finish()
	}
	slices.Reverse(lines)

	return lines, nil
}

// lastLineEnd returns the offset just past the last newline in ra[floor:end],
// or floor when there is none. Follow mode resumes reading from there so an
// unterminated final line is completed by the writer before it is consumed.
func lastLineEnd(ra io.ReaderAt, floor, end int64) (int64, error) {
	block := make([]byte, min(tailBlockSize, max(end-floor, 0)))
	for pos := end; pos > floor; {
		start := max(floor, pos-int64(len(block)))
		chunk := block[:pos-start]
		if _, err := ra.ReadAt(chunk, start); err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		for i := len(chunk) - 1; i >= 0; i-- {
			if chunk[i] == '\n' {
				return start + int64(i) + 1, nil
			}
		}
		pos = start
	}

	return floor, nil
}

// ring keeps the most recent lines pushed into it, up to limit.
// It backs tail mode for streams that cannot be scanned backwards.
type ring struct {
	buf   []string
	limit int
	head  int
}

func newRing(limit int) *ring {
	return &ring{buf: make([]string, 0, min(limit, 1024)), limit: limit}
}

func (r *ring) push(line string) {
	if len(r.buf) < r.limit {
		r.buf = append(r.buf, line)
		return
	}
	r.buf[r.head] = line
	r.head = (r.head + 1) % r.limit
}

// lines returns the retained lines oldest first.
func (r *ring) lines() []string {
	out := make([]string, 0, len(r.buf))
	out = append(out, r.buf[r.head:]...)

	return append(out, r.buf[:r.head]...)
}
