// Package chunk recognizes the seven QOI chunk encodings in a byte window.
// Every function here is pure: no I/O and no decode state.
package chunk

import "fmt"

// Full-byte and 2-bit tags. The 2-bit tags sit in the top bits of the
// first byte.
const (
	TagIndex byte = 0b00000000
	TagDiff  byte = 0b01000000
	TagLuma  byte = 0b10000000
	TagRun   byte = 0b11000000
	TagRGB   byte = 0b11111110
	TagRGBA  byte = 0b11111111

	maskTag byte = 0b11000000
	mask6   byte = 0b00111111
	mask4   byte = 0b00001111
	mask2   byte = 0b00000011
)

// MaxSize is the widest chunk encoding, the end marker.
const MaxSize = 8

type Op uint8

const (
	OpRGB Op = iota + 1
	OpRGBA
	OpIndex
	OpDiff
	OpLuma
	OpRun
	OpEnd
)

func (o Op) String() string {
	switch o {
	case OpRGB:
		return "RGB"
	case OpRGBA:
		return "RGBA"
	case OpIndex:
		return "INDEX"
	case OpDiff:
		return "DIFF"
	case OpLuma:
		return "LUMA"
	case OpRun:
		return "RUN"
	case OpEnd:
		return "END"
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// Chunk is one decoded chunk. Op selects which fields are meaningful:
//
//	OpRGB    R, G, B
//	OpRGBA   R, G, B, A
//	OpIndex  Index (0..63)
//	OpDiff   DR, DG, DB, each 0..3 with a bias of 2
//	OpLuma   DG (0..63, bias 32), DR and DB (0..15, bias 8, relative to DG)
//	OpRun    Run (0..63), the pixel repeats Run+1 times
//	OpEnd    none
type Chunk struct {
	Op         Op
	R, G, B, A uint8
	Index      uint8
	DR, DG, DB uint8
	Run        uint8
}

// Size returns the number of encoded bytes for c.
func (c Chunk) Size() int {
	switch c.Op {
	case OpRGB:
		return 4
	case OpRGBA:
		return 5
	case OpLuma:
		return 2
	case OpEnd:
		return MaxSize
	}
	return 1
}

func (c Chunk) String() string {
	switch c.Op {
	case OpRGB:
		return fmt.Sprintf("RGB{%d %d %d}", c.R, c.G, c.B)
	case OpRGBA:
		return fmt.Sprintf("RGBA{%d %d %d %d}", c.R, c.G, c.B, c.A)
	case OpIndex:
		return fmt.Sprintf("INDEX{%d}", c.Index)
	case OpDiff:
		return fmt.Sprintf("DIFF{%d %d %d}", c.DR, c.DG, c.DB)
	case OpLuma:
		return fmt.Sprintf("LUMA{%d %d %d}", c.DG, c.DR, c.DB)
	case OpRun:
		return fmt.Sprintf("RUN{%d}", c.Run)
	}
	return c.Op.String()
}

// AppendEncoded appends the wire form of c to b.
func AppendEncoded(b []byte, c Chunk) []byte {
	switch c.Op {
	case OpRGB:
		return append(b, TagRGB, c.R, c.G, c.B)
	case OpRGBA:
		return append(b, TagRGBA, c.R, c.G, c.B, c.A)
	case OpIndex:
		return append(b, TagIndex|c.Index&mask6)
	case OpDiff:
		return append(b, TagDiff|(c.DR&mask2)<<4|(c.DG&mask2)<<2|c.DB&mask2)
	case OpLuma:
		return append(b, TagLuma|c.DG&mask6, (c.DR&mask4)<<4|c.DB&mask4)
	case OpRun:
		return append(b, TagRun|c.Run&mask6)
	case OpEnd:
		return append(b, endMarker[:]...)
	}
	return b
}
