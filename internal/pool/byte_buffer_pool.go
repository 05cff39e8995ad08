package pool

import (
	"io"
	"sync"
)

const (
	LineBufferDefaultSize   = 1024 * 4    // 4KiB
	LineBufferMaxThreshold  = 1024 * 1024 // 1MiB
	OutputBufferDefaultSize = 1024 * 64   // 64KiB
	OutputBufferMaxThresh   = 1024 * 1024 * 4
)

// ByteBuffer is a growable byte slice used to assemble lines and output records.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified default size.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// String returns a copy of the buffer contents as a string.
func (bb *ByteBuffer) String() string {
	return string(bb.B)
}

// Reset empties the buffer but keeps the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// WriteByte appends a single byte. It never fails.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)
	return nil
}

// WriteString appends s. It never fails.
func (bb *ByteBuffer) WriteString(s string) (int, error) {
	bb.B = append(bb.B, s...)
	return len(s), nil
}

// Write appends data. It never fails.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// Reverse reverses the buffer contents in place.
//
// The backward tail scan collects each line's bytes last-to-first and flips
// them once the line boundary is found.
func (bb *ByteBuffer) Reverse() {
	for i, j := 0, len(bb.B)-1; i < j; i, j = i+1, j-1 {
		bb.B[i], bb.B[j] = bb.B[j], bb.B[i]
	}
}

// Grow ensures the buffer can hold requiredBytes more bytes without reallocating.
//
// Small buffers grow by LineBufferDefaultSize, larger ones by 25% of capacity.
func (bb *ByteBuffer) Grow(requiredBytes int) {
	available := cap(bb.B) - len(bb.B)
	if available >= requiredBytes {
		return
	}

	growBy := LineBufferDefaultSize
	if cap(bb.B) > 4*LineBufferDefaultSize {
		growBy = cap(bb.B) / 4
	}
	if growBy < requiredBytes {
		growBy = requiredBytes
	}

	newBuf := make([]byte, len(bb.B), len(bb.B)+growBy)
	copy(newBuf, bb.B)
	bb.B = newBuf
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// ByteBufferPool is a sync.Pool of ByteBuffers that discards buffers grown
// beyond maxThreshold so one huge line does not pin memory for the whole run.
type ByteBufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewByteBufferPool creates a new ByteBufferPool with buffers of the specified default size.
func NewByteBufferPool(defaultSize int, maxThreshold int) *ByteBufferPool {
	return &ByteBufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves a ByteBuffer from the pool.
func (bbp *ByteBufferPool) Get() *ByteBuffer {
	bb, _ := bbp.pool.Get().(*ByteBuffer)
	return bb
}

// Put returns a ByteBuffer to the pool for reuse.
func (bbp *ByteBufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if bbp.maxThreshold > 0 && cap(bb.B) > bbp.maxThreshold {
		return
	}

	bb.Reset()
	bbp.pool.Put(bb)
}

var (
	lineDefaultPool   = NewByteBufferPool(LineBufferDefaultSize, LineBufferMaxThreshold)
	outputDefaultPool = NewByteBufferPool(OutputBufferDefaultSize, OutputBufferMaxThresh)
)

// GetLineBuffer retrieves a ByteBuffer from the line pool.
func GetLineBuffer() *ByteBuffer {
	return lineDefaultPool.Get()
}

// PutLineBuffer returns a ByteBuffer to the line pool.
func PutLineBuffer(bb *ByteBuffer) {
	lineDefaultPool.Put(bb)
}

// GetOutputBuffer retrieves a ByteBuffer from the output pool.
func GetOutputBuffer() *ByteBuffer {
	return outputDefaultPool.Get()
}

// PutOutputBuffer returns a ByteBuffer to the output pool.
func PutOutputBuffer(bb *ByteBuffer) {
	outputDefaultPool.Put(bb)
}
