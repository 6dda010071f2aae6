package qoitest

import (
	"fmt"
	"io"

	"github.com/kropptrevor/qoistream/internal/chunk"
	"github.com/kropptrevor/qoistream/internal/format"
)

// Encode writes pix, width*height RGBA pixels in row order, as a complete
// QOI stream. It picks chunks the way the reference encoder does so the
// output exercises every chunk type.
func Encode(w io.Writer, width, height int, pix []byte, channels uint8) error {
	if len(pix) != width*height*4 {
		return fmt.Errorf("qoitest: %d bytes for %dx%d pixels", len(pix), width, height)
	}
	e := encoder{
		out:  errWriter{w: w},
		prev: rgba{0, 0, 0, 255},
	}
	e.out.write(format.AppendHeader(nil, format.Header{
		Width:      uint32(width),
		Height:     uint32(height),
		Channels:   channels,
		ColorSpace: format.ColorSpaceSRGB,
	}))
	for i := 0; i < len(pix) && e.out.err == nil; i += 4 {
		e.writePixel(rgba{pix[i], pix[i+1], pix[i+2], pix[i+3]})
	}
	if e.runLength > 0 {
		e.flushRun()
	}
	e.write(chunk.Chunk{Op: chunk.OpEnd})
	return e.out.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) write(b []byte) {
	if ew.err != nil {
		return
	}
	_, ew.err = ew.w.Write(b)
}

type rgba struct {
	r, g, b, a byte
}

func (c rgba) index() uint8 {
	return uint8((int(c.r)*3 + int(c.g)*5 + int(c.b)*7 + int(c.a)*11) % 64)
}

type encoder struct {
	out       errWriter
	scratch   []byte
	cache     [64]rgba
	seen      [64]bool
	prev      rgba
	runLength byte
}

func (e *encoder) write(c chunk.Chunk) {
	e.scratch = chunk.AppendEncoded(e.scratch[:0], c)
	e.out.write(e.scratch)
}

func (e *encoder) flushRun() {
	e.write(chunk.Chunk{Op: chunk.OpRun, Run: e.runLength - 1})
	e.runLength = 0
}

func (e *encoder) writePixel(px rgba) {
	if px == e.prev {
		e.remember(px)
		e.runLength++
		if e.runLength == 62 {
			e.flushRun()
		}
		return
	}
	if e.runLength > 0 {
		e.flushRun()
	}

	index := px.index()
	switch {
	case e.seen[index] && e.cache[index] == px:
		e.write(chunk.Chunk{Op: chunk.OpIndex, Index: index})
	case e.prev.a != px.a:
		e.write(chunk.Chunk{Op: chunk.OpRGBA, R: px.r, G: px.g, B: px.b, A: px.a})
	default:
		dr := px.r - e.prev.r
		dg := px.g - e.prev.g
		db := px.b - e.prev.b
		drdg := dr - dg
		dbdg := db - dg
		switch {
		case dr+2 <= 3 && dg+2 <= 3 && db+2 <= 3:
			e.write(chunk.Chunk{Op: chunk.OpDiff, DR: dr + 2, DG: dg + 2, DB: db + 2})
		case dg+32 <= 63 && drdg+8 <= 15 && dbdg+8 <= 15:
			e.write(chunk.Chunk{Op: chunk.OpLuma, DG: dg + 32, DR: drdg + 8, DB: dbdg + 8})
		default:
			e.write(chunk.Chunk{Op: chunk.OpRGB, R: px.r, G: px.g, B: px.b})
		}
	}
	e.remember(px)
	e.prev = px
}

// remember mirrors the decoder's cache update. Slots never written are
// never referenced, so the output does not rely on a zeroed cache.
func (e *encoder) remember(px rgba) {
	index := px.index()
	e.cache[index] = px
	e.seen[index] = true
}
