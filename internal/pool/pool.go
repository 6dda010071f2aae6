// Package pool recycles staging buffers between decodes. Buffers are kept
// in power-of-two size classes so a grown buffer can be reused by the next
// stream that needs the same capacity.
package pool

import "sync"

// Size classes.
const (
	Size256B = 256
	Size1K   = 1024
	Size4K   = 4096
	Size16K  = 16384
	Size64K  = 65536
)

var sizes = [...]int{Size256B, Size1K, Size4K, Size16K, Size64K}

var pools [len(sizes)]sync.Pool

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]byte, sz)
				return &b
			},
		}
	}
}

// bucketIndex returns the class holding size, or -1 when size is larger
// than every class.
func bucketIndex(size int) int {
	for i, sz := range sizes {
		if size <= sz {
			return i
		}
	}
	return -1
}

// Get returns a slice with length size. Requests above Size64K are
// allocated directly.
func Get(size int) []byte {
	idx := bucketIndex(size)
	if idx < 0 {
		return make([]byte, size)
	}
	bp := pools[idx].Get().(*[]byte)
	b := *bp
	if cap(b) < size {
		b = make([]byte, sizes[idx])
	}
	return b[:size]
}

// Put hands b back for reuse. Slices below Size256B, and slices whose
// capacity is not exactly a size class, are dropped.
func Put(b []byte) {
	c := cap(b)
	idx := bucketIndex(c)
	if idx < 0 || sizes[idx] != c {
		return
	}
	b = b[:c]
	pools[idx].Put(&b)
}
