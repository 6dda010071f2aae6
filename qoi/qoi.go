// Package qoi decodes images in the QOI ("Quite OK Image") format.
//
// Decoding is streamed: chunks are parsed from the source on one goroutine
// while pixels are reconstructed on another, so a slow reader overlaps with
// decoding. The package registers itself with the image package, so
// image.Decode reads QOI files once it is imported.
package qoi

import (
	"image"

	"github.com/kropptrevor/qoistream/internal/chunk"
	"github.com/kropptrevor/qoistream/internal/format"
)

const (
	Magic      = format.Magic
	HeaderSize = format.HeaderSize

	ChannelsRGB  = format.ChannelsRGB
	ChannelsRGBA = format.ChannelsRGBA

	ColorSpaceSRGB   = format.ColorSpaceSRGB
	ColorSpaceLinear = format.ColorSpaceLinear

	// MaxPixels is the default limit on width*height.
	MaxPixels = format.MaxPixels
)

// Chunk tags. The 2-bit tags occupy the top two bits of the first byte.
const (
	TagIndex = chunk.TagIndex
	TagDiff  = chunk.TagDiff
	TagLuma  = chunk.TagLuma
	TagRun   = chunk.TagRun
	TagRGB   = chunk.TagRGB
	TagRGBA  = chunk.TagRGBA
)

// Header describes a QOI image: its dimensions, the channel count the
// encoder saw (3 or 4) and whether the colors are sRGB or linear. The
// decoded buffer is always RGBA regardless of Channels.
type Header = format.Header

func init() {
	image.RegisterFormat("qoi", Magic, Decode, DecodeConfig)
}
