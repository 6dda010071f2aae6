// Package ring implements the parser's staging buffer: a single circular
// allocation holding bytes that were read from the source but not yet
// turned into chunks.
package ring

import (
	"io"
	"math/bits"

	"github.com/kropptrevor/qoistream/internal/pool"
)

type Buffer struct {
	buf   []byte
	start int // first unread byte
	n     int // unread bytes
}

// New returns an empty buffer with the given capacity (at least 1).
func New(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{buf: pool.Get(size)}
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int { return b.n }

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int { return len(b.buf) }

// Free returns the number of bytes that can be filled before the buffer is
// full.
func (b *Buffer) Free() int { return len(b.buf) - b.n }

// Peek copies up to len(dst) unread bytes into dst, following the wrap, and
// returns the filled prefix of dst. Nothing is consumed.
func (b *Buffer) Peek(dst []byte) []byte {
	k := min(len(dst), b.n)
	first := copy(dst[:k], b.buf[b.start:])
	copy(dst[first:k], b.buf)
	return dst[:k]
}

// Discard drops the next k unread bytes. Discarded bytes are gone for good.
func (b *Buffer) Discard(k int) {
	if k < 0 || k > b.n {
		panic("ring: discard out of range")
	}
	b.n -= k
	if b.n == 0 {
		b.start = 0
		return
	}
	b.start = (b.start + k) % len(b.buf)
}

// space returns the contiguous free region that follows the unread bytes.
func (b *Buffer) space() []byte {
	if b.n == len(b.buf) {
		return nil
	}
	tail := (b.start + b.n) % len(b.buf)
	if tail >= b.start {
		return b.buf[tail:]
	}
	return b.buf[tail:b.start]
}

// Fill issues one Read into the free space at the tail and keeps whatever
// was read, even when an error is returned alongside it.
func (b *Buffer) Fill(r io.Reader) (int, error) {
	space := b.space()
	if len(space) == 0 {
		return 0, nil
	}
	n, err := r.Read(space)
	if n < 0 || n > len(space) {
		panic("ring: reader returned invalid count")
	}
	b.n += n
	return n, err
}

// Grow makes room for at least size unread bytes. The new capacity is the
// larger of double the current one and the power of two covering size.
// Unread bytes keep their order.
func (b *Buffer) Grow(size int) {
	if size <= len(b.buf) {
		return
	}
	newCap := max(2*len(b.buf), 1<<bits.Len(uint(size-1)))
	buf := pool.Get(newCap)
	b.Peek(buf)
	pool.Put(b.buf)
	b.buf = buf
	b.start = 0
}

// Release returns the allocation to the pool. The buffer must not be used
// afterwards.
func (b *Buffer) Release() {
	pool.Put(b.buf)
	b.buf = nil
	b.start, b.n = 0, 0
}
