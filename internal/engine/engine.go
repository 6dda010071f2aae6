// Package engine replays QOI chunks against the decode state (previous
// pixel, 64-slot color cache, output cursor) to rebuild pixels.
package engine

import (
	"errors"
	"fmt"

	"github.com/kropptrevor/qoistream/internal/chunk"
	"github.com/kropptrevor/qoistream/internal/format"
)

// ErrFinished is returned for chunks applied after the end marker.
var ErrFinished = errors.New("qoi: chunk after end marker")

// Pixel is a non-premultiplied RGBA color.
type Pixel struct {
	R, G, B, A uint8
}

// Hash returns the color cache slot for p.
func (p Pixel) Hash() uint8 {
	return uint8((int(p.R)*3 + int(p.G)*5 + int(p.B)*7 + int(p.A)*11) % 64)
}

// Engine owns the output buffer and decode state for one stream. It is not
// safe for concurrent use.
type Engine struct {
	pix    []byte
	total  int
	cursor int
	prev   Pixel
	cache  [64]Pixel
	filled uint64 // bit i set once slot i holds a pixel
	done   bool
}

// New returns an engine writing pixels RGBA pixels into a fresh buffer
// that starts out opaque black.
func New(pixels int) *Engine {
	pix := make([]byte, pixels*4)
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 255
	}
	return &Engine{
		pix:   pix,
		total: pixels,
		prev:  Pixel{0, 0, 0, 255},
	}
}

// ZeroCache marks every cache slot as holding transparent black, the way the
// reference C decoder initializes its index. Index chunks then never fail.
func (e *Engine) ZeroCache() {
	e.cache = [64]Pixel{}
	e.filled = ^uint64(0)
}

// Apply reconstructs the pixels for c and advances the cursor. The end
// marker only stops the engine: it writes nothing, leaves the cursor alone
// and does not touch the cache.
func (e *Engine) Apply(c chunk.Chunk) error {
	if e.done {
		return fmt.Errorf("%w: %v", ErrFinished, c)
	}

	prev := e.prev
	var px Pixel
	switch c.Op {
	case chunk.OpRGB:
		px = Pixel{c.R, c.G, c.B, prev.A}
	case chunk.OpRGBA:
		px = Pixel{c.R, c.G, c.B, c.A}
	case chunk.OpIndex:
		if c.Index >= 64 || e.filled&(1<<c.Index) == 0 {
			return fmt.Errorf("%w: slot %d at pixel %d", format.ErrInvalidCacheReference, c.Index, e.cursor)
		}
		px = e.cache[c.Index]
	case chunk.OpDiff:
		px = Pixel{
			prev.R + c.DR - 2,
			prev.G + c.DG - 2,
			prev.B + c.DB - 2,
			prev.A,
		}
	case chunk.OpLuma:
		vg := c.DG - 32
		px = Pixel{
			prev.R + vg + c.DR - 8,
			prev.G + vg,
			prev.B + vg + c.DB - 8,
			prev.A,
		}
	case chunk.OpRun:
		return e.emit(prev, int(c.Run)+1)
	case chunk.OpEnd:
		e.done = true
		return nil
	default:
		return fmt.Errorf("%w: unknown op %v", format.ErrInvalidChunkEncoding, c.Op)
	}
	return e.emit(px, 1)
}

// emit writes px into the next n slots, then makes it the previous pixel
// and caches it.
func (e *Engine) emit(px Pixel, n int) error {
	if n > e.total-e.cursor {
		return fmt.Errorf("%w: %d pixels at %d of %d", format.ErrBufferOverrun, n, e.cursor, e.total)
	}
	out := e.pix[e.cursor*4 : (e.cursor+n)*4]
	for i := 0; i < len(out); i += 4 {
		out[i+0] = px.R
		out[i+1] = px.G
		out[i+2] = px.B
		out[i+3] = px.A
	}
	e.cursor += n
	e.prev = px
	h := px.Hash()
	e.cache[h] = px
	e.filled |= 1 << h
	return nil
}

// Done reports whether the end marker has been applied.
func (e *Engine) Done() bool { return e.done }

// Cursor returns the index of the next pixel to be written.
func (e *Engine) Cursor() int { return e.cursor }

// Total returns the number of pixels the buffer holds.
func (e *Engine) Total() int { return e.total }

// Previous returns the most recently written pixel.
func (e *Engine) Previous() Pixel { return e.prev }

// Cached returns slot i of the color cache and whether it was ever filled.
func (e *Engine) Cached(i uint8) (Pixel, bool) {
	if i >= 64 {
		return Pixel{}, false
	}
	return e.cache[i], e.filled&(1<<i) != 0
}

// Pixels returns the RGBA output buffer, 4 bytes per pixel in row order.
// Slots past Cursor stay opaque black.
func (e *Engine) Pixels() []byte { return e.pix }
