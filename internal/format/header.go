// Package format holds the fixed parts of the QOI wire format: the header,
// the end marker and the errors shared by every decoding stage.
package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	Magic      = "qoif"
	HeaderSize = 14

	ChannelsRGB  uint8 = 3
	ChannelsRGBA uint8 = 4

	ColorSpaceSRGB   uint8 = 0
	ColorSpaceLinear uint8 = 1

	// MaxPixels guards against headers that would need an absurd output
	// buffer. 400 million pixels is 1.6GB of RGBA.
	MaxPixels = 400_000_000
)

// EndMarker terminates every chunk stream.
var EndMarker = [8]byte{0, 0, 0, 0, 0, 0, 0, 1}

// Header is the 14 byte preamble of a QOI stream.
type Header struct {
	Width      uint32
	Height     uint32
	Channels   uint8
	ColorSpace uint8
}

// Pixels returns width*height. It fails when the product does not fit in an
// int or exceeds limit; a limit <= 0 only checks for overflow.
func (h Header) Pixels(limit int) (int, error) {
	n := uint64(h.Width) * uint64(h.Height)
	if n > math.MaxInt/4 {
		return 0, fmt.Errorf("%w: %dx%d overflows the pixel buffer", ErrMalformedHeader, h.Width, h.Height)
	}
	if limit > 0 && n > uint64(limit) {
		return 0, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrMalformedHeader, h.Width, h.Height, limit)
	}
	return int(n), nil
}

// ParseHeader reads a header from the start of b and returns it with the
// number of bytes consumed, which is always HeaderSize on success.
func ParseHeader(b []byte) (Header, int, error) {
	if len(b) < HeaderSize {
		return Header{}, 0, fmt.Errorf("%w: got %d of %d bytes", ErrMalformedHeader, len(b), HeaderSize)
	}
	if !bytes.Equal(b[:4], []byte(Magic)) {
		return Header{}, 0, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, b[:4])
	}
	h := Header{
		Width:      binary.BigEndian.Uint32(b[4:8]),
		Height:     binary.BigEndian.Uint32(b[8:12]),
		Channels:   b[12],
		ColorSpace: b[13],
	}
	if h.Channels != ChannelsRGB && h.Channels != ChannelsRGBA {
		return Header{}, 0, fmt.Errorf("%w: channels %d", ErrMalformedHeader, h.Channels)
	}
	if h.ColorSpace != ColorSpaceSRGB && h.ColorSpace != ColorSpaceLinear {
		return Header{}, 0, fmt.Errorf("%w: colorspace %d", ErrMalformedHeader, h.ColorSpace)
	}
	return h, HeaderSize, nil
}

// AppendHeader appends the wire form of h to b.
func AppendHeader(b []byte, h Header) []byte {
	b = append(b, Magic...)
	b = binary.BigEndian.AppendUint32(b, h.Width)
	b = binary.BigEndian.AppendUint32(b, h.Height)
	return append(b, h.Channels, h.ColorSpace)
}
