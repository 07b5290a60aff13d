// Package pool provides reusable byte buffers for block data.
//
// A block stream allocates one input buffer per block plus scratch buffers for the
// transform chain. Recycling them through a per-stream pool keeps memory usage
// proportional to the number of blocks in flight rather than to the stream length.
package pool

import (
	"io"
	"sync"
)

// ByteBuffer is a growable byte slice handed between the stream driver and workers.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new empty ByteBuffer with the given capacity.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{B: make([]byte, 0, capacity)}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Reset empties the buffer and keeps the allocated memory.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// Len returns the number of bytes in the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Cap returns the capacity of the buffer.
func (bb *ByteBuffer) Cap() int {
	return cap(bb.B)
}

// Write appends data to the buffer, growing it as needed.
func (bb *ByteBuffer) Write(data []byte) (int, error) {
	bb.B = append(bb.B, data...)
	return len(data), nil
}

// WriteTo writes the contents of the buffer to w.
func (bb *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(bb.B)
	return int64(n), err
}

// Resize sets the length of the buffer to n, reallocating when the capacity is too
// small. Existing content is preserved up to min(n, Len()).
func (bb *ByteBuffer) Resize(n int) []byte {
	if n < 0 {
		panic("Resize: negative length")
	}

	if n > cap(bb.B) {
		newBuf := make([]byte, n)
		copy(newBuf, bb.B)
		bb.B = newBuf

		return bb.B
	}

	bb.B = bb.B[:n]

	return bb.B
}

// BufferPool is a pool of ByteBuffers sized for one stream's block size.
//
// Buffers whose capacity grew beyond maxThreshold are dropped instead of being
// returned to the pool.
type BufferPool struct {
	pool         sync.Pool
	maxThreshold int
}

// NewBufferPool creates a pool whose new buffers have defaultSize capacity.
func NewBufferPool(defaultSize int, maxThreshold int) *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() any {
				return NewByteBuffer(defaultSize)
			},
		},
		maxThreshold: maxThreshold,
	}
}

// Get retrieves an empty ByteBuffer from the pool.
func (p *BufferPool) Get() *ByteBuffer {
	bb, _ := p.pool.Get().(*ByteBuffer)
	bb.Reset()

	return bb
}

// Put returns a ByteBuffer to the pool.
func (p *BufferPool) Put(bb *ByteBuffer) {
	if bb == nil {
		return
	}

	if p.maxThreshold > 0 && bb.Cap() > p.maxThreshold {
		return
	}

	bb.Reset()
	p.pool.Put(bb)
}
