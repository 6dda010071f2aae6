package qoi

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/kropptrevor/qoistream/internal/engine"
	"github.com/kropptrevor/qoistream/internal/format"
	"github.com/kropptrevor/qoistream/internal/parser"
	"github.com/kropptrevor/qoistream/internal/pipeline"
)

// Options tunes DecodePixels. The zero value, and a nil *Options, select
// the defaults.
type Options struct {
	// QueueDepth is how many parsed chunks may wait for the pixel
	// goroutine before parsing blocks. Default 4.
	QueueDepth int

	// BufferSize is the initial capacity of the read buffer in bytes. It
	// grows when a chunk does not fit. Default 4096.
	BufferSize int

	// MaxPixels rejects headers declaring more pixels. Default MaxPixels.
	MaxPixels int

	// Strict rejects streams whose end marker arrives before every
	// declared pixel was written. Otherwise the missing pixels are left
	// opaque black.
	Strict bool

	// ZeroCache starts the color cache filled with transparent black, as
	// the reference C decoder does, instead of empty. Index chunks pointing
	// at slots no pixel has filled then decode instead of failing with
	// ErrInvalidCacheReference.
	ZeroCache bool
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.QueueDepth < 1 {
		opts.QueueDepth = pipeline.DefaultDepth
	}
	if opts.BufferSize < 1 {
		opts.BufferSize = parser.DefaultBufferSize
	}
	if opts.MaxPixels < 1 {
		opts.MaxPixels = format.MaxPixels
	}
	return opts
}

// DecodeHeader reads the 14 byte header from r. It reads no further.
func DecodeHeader(r io.Reader) (Header, error) {
	p := parser.New(r, HeaderSize)
	defer p.Close()
	return p.ReadHeader()
}

// DecodeConfig returns the color model and dimensions of a QOI image
// without decoding its pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := DecodeHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}

// Decode reads a QOI image from r. The result is always an *image.NRGBA.
func Decode(r io.Reader) (image.Image, error) {
	h, pix, err := DecodePixels(context.Background(), r, nil)
	if err != nil {
		return nil, err
	}
	return &image.NRGBA{
		Pix:    pix,
		Stride: 4 * int(h.Width),
		Rect:   image.Rect(0, 0, int(h.Width), int(h.Height)),
	}, nil
}

// DecodePixels decodes a QOI stream from r into a buffer of
// width*height RGBA pixels, 4 bytes each, in row order.
//
// r is read sequentially into the read buffer, and no Read is issued once
// the end marker has been parsed. Bytes after the end marker that arrived
// in the same Read are discarded, so r is not left positioned at a second
// stream. Cancelling ctx stops the decode between chunks; a Read call that
// blocks forever is not interrupted.
func DecodePixels(ctx context.Context, r io.Reader, opts *Options) (Header, []byte, error) {
	o := opts.withDefaults()
	if err := ctx.Err(); err != nil {
		return Header{}, nil, err
	}

	p := parser.New(r, o.BufferSize)
	defer p.Close()

	h, err := p.ReadHeader()
	if err != nil {
		return Header{}, nil, err
	}
	n, err := h.Pixels(o.MaxPixels)
	if err != nil {
		return Header{}, nil, err
	}

	e := engine.New(n)
	if o.ZeroCache {
		e.ZeroCache()
	}
	if err := pipeline.Run(ctx, p, e, o.QueueDepth); err != nil {
		return Header{}, nil, err
	}
	if o.Strict && e.Cursor() < e.Total() {
		return Header{}, nil, fmt.Errorf("%w: wrote %d of %d pixels", ErrIncompletePixelData, e.Cursor(), e.Total())
	}
	return h, e.Pixels(), nil
}
