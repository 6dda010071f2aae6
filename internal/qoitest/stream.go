// Package qoitest builds QOI byte streams for tests: a chunk-level Stream
// builder for hand-made edge cases and a reference Encode for whole images.
package qoitest

import (
	"github.com/kropptrevor/qoistream/internal/chunk"
	"github.com/kropptrevor/qoistream/internal/format"
)

// Stream assembles a header and chunks. It never validates what it writes.
type Stream struct {
	b []byte
}

func NewStream(width, height uint32, channels, colorSpace uint8) *Stream {
	h := format.Header{Width: width, Height: height, Channels: channels, ColorSpace: colorSpace}
	return &Stream{b: format.AppendHeader(nil, h)}
}

func (s *Stream) Chunk(c chunk.Chunk) *Stream {
	s.b = chunk.AppendEncoded(s.b, c)
	return s
}

func (s *Stream) RGB(r, g, b uint8) *Stream {
	return s.Chunk(chunk.Chunk{Op: chunk.OpRGB, R: r, G: g, B: b})
}

func (s *Stream) RGBA(r, g, b, a uint8) *Stream {
	return s.Chunk(chunk.Chunk{Op: chunk.OpRGBA, R: r, G: g, B: b, A: a})
}

func (s *Stream) Index(i uint8) *Stream {
	return s.Chunk(chunk.Chunk{Op: chunk.OpIndex, Index: i})
}

// Diff takes the biased fields, 0..3 each.
func (s *Stream) Diff(dr, dg, db uint8) *Stream {
	return s.Chunk(chunk.Chunk{Op: chunk.OpDiff, DR: dr, DG: dg, DB: db})
}

// Luma takes the biased fields: dg 0..63, drdg and dbdg 0..15.
func (s *Stream) Luma(dg, drdg, dbdg uint8) *Stream {
	return s.Chunk(chunk.Chunk{Op: chunk.OpLuma, DG: dg, DR: drdg, DB: dbdg})
}

// Run repeats the previous pixel run+1 times.
func (s *Stream) Run(run uint8) *Stream {
	return s.Chunk(chunk.Chunk{Op: chunk.OpRun, Run: run})
}

func (s *Stream) End() *Stream {
	return s.Chunk(chunk.Chunk{Op: chunk.OpEnd})
}

// Raw appends arbitrary bytes.
func (s *Stream) Raw(b ...byte) *Stream {
	s.b = append(s.b, b...)
	return s
}

func (s *Stream) Bytes() []byte {
	return s.b
}
