package qoi_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/kropptrevor/qoistream/qoi"
)

func imageEquals(t *testing.T, expected image.Image, actual image.Image) {
	t.Helper()
	esize := expected.Bounds().Size()
	asize := actual.Bounds().Size()
	if esize != asize {
		t.Fatalf("expected image size %v but got %v", esize, asize)
	}
	for x := 0; x < esize.X; x++ {
		for y := 0; y < esize.Y; y++ {
			ecol := color.NRGBAModel.Convert(expected.At(x, y)).(color.NRGBA)
			acol := color.NRGBAModel.Convert(actual.At(x, y)).(color.NRGBA)
			if ecol != acol {
				t.Fatalf("expected color %v but got %v at %v", ecol, acol, image.Point{x, y})
			}
		}
	}
}

func newNRGBA(width, height int, pixels ...color.NRGBA) *image.NRGBA {
	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, c := range pixels {
		m.SetNRGBA(i%width, i/width, c)
	}
	return m
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("Should succeed", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 0, 0, 0, 0, 0, 3, 0,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		_, err := qoi.Decode(reader)

		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}
	})

	t.Run("Should decode a single RGBA pixel", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(1, 1, color.NRGBA{10, 20, 30, 255})
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 1, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGBA, 10, 20, 30, 255,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
		if pix := actual.(*image.NRGBA).Pix; !bytes.Equal(pix, []byte{10, 20, 30, 255}) {
			t.Fatalf("expected [10 20 30 255], but got %v", pix)
		}
	})

	t.Run("Should fail parsing bad magic bytes", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'a', 'b', 'c', 'd', 0, 0, 0, 0, 0, 0, 0, 0, 3, 0,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrMalformedHeader) {
			t.Fatalf("expected %q but got %v", qoi.ErrMalformedHeader, err)
		}
	})

	t.Run("Should correctly parse header width and height", func(t *testing.T) {
		t.Parallel()
		expectedWidth := 1
		expectedHeight := 1
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, byte(expectedWidth), 0, 0, 0, byte(expectedHeight), 3, 0,
			qoi.TagRGB,
			128, // red
			0,   // green
			0,   // blue
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		m, err := qoi.Decode(reader)

		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}
		if actual := m.Bounds().Dx(); expectedWidth != actual {
			t.Fatalf("expected %v but got %v", expectedWidth, actual)
		}
		if actual := m.Bounds().Dy(); expectedHeight != actual {
			t.Fatalf("expected %v but got %v", expectedHeight, actual)
		}
	})

	t.Run("Should fail parsing bad channels", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 0, 0, 0, 0, 0, 9, qoi.ColorSpaceSRGB,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrMalformedHeader) {
			t.Fatalf("expected %q but got %v", qoi.ErrMalformedHeader, err)
		}
	})

	t.Run("Should fail parsing bad color space", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 0, 0, 0, 0, 0, qoi.ChannelsRGBA, 2,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrMalformedHeader) {
			t.Fatalf("expected %q but got %v", qoi.ErrMalformedHeader, err)
		}
	})

	t.Run("Should fail parsing a truncated header", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{'q', 'o', 'i', 'f', 0, 0, 0, 1})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrMalformedHeader) {
			t.Fatalf("expected %q but got %v", qoi.ErrMalformedHeader, err)
		}
	})

	t.Run("Should fail parsing missing end marker", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 0, 0, 0, 0, 0, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
		})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrUnexpectedEndOfStream) {
			t.Fatalf("expected %q but got %v", qoi.ErrUnexpectedEndOfStream, err)
		}
	})

	t.Run("Should fail parsing partial end marker", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 0, 0, 0, 0, 0, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			0, 0, 0, 0, 0,
		})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrUnexpectedEndOfStream) {
			t.Fatalf("expected %q but got %v", qoi.ErrUnexpectedEndOfStream, err)
		}
	})

	t.Run("Should fail parsing bad end marker", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 0, 0, 0, 0, 0, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			0, 0, 0, 0, 0, 1, 1, 1,
		})

		_, err := qoi.Decode(reader)

		// The leading zero byte is read as an index chunk into an empty cache.
		if !errors.Is(err, qoi.ErrInvalidCacheReference) {
			t.Fatalf("expected %q but got %v", qoi.ErrInvalidCacheReference, err)
		}
	})

	t.Run("Should parse RGB chunk", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(1, 1, color.NRGBA{128, 0, 0, 255})
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 1, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB,
			128, // red
			0,   // green
			0,   // blue
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should parse RGBA chunk", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(1, 1, color.NRGBA{128, 0, 0, 128})
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 1, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGBA,
			128, // red
			0,   // green
			0,   // blue
			128, // alpha
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should parse index chunk", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(3, 1,
			color.NRGBA{128, 0, 0, 255},
			color.NRGBA{0, 127, 0, 255},
			color.NRGBA{128, 0, 0, 255},
		)
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 3, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 128, 0, 0,
			qoi.TagRGB, 0, 127, 0,
			qoi.TagIndex | 53,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should parse diff chunk", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(2, 1,
			color.NRGBA{128, 0, 0, 255},
			color.NRGBA{129, 0, 0, 255},
		)
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 128, 0, 0,
			qoi.TagDiff | 0b_11_10_10,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should parse diff chunk with wraparound", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(2, 1,
			color.NRGBA{128, 255, 0, 255},
			color.NRGBA{128, 0, 255, 255},
		)
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 128, 255, 0,
			qoi.TagDiff | 0b_10_11_01,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should parse luma chunk", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(2, 1,
			color.NRGBA{128, 0, 0, 255},
			color.NRGBA{151, 31, 38, 255},
		)
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 128, 0, 0,
			qoi.TagLuma | 0b_111111,
			0b_0000_1111,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should parse luma chunk with wraparound", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(2, 1,
			color.NRGBA{128, 255, 0, 255},
			color.NRGBA{128, 1, 255, 255},
		)
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 128, 255, 0,
			qoi.TagLuma | 0b_100010,
			0b_0110_0101,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should parse run chunk", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(5, 1,
			color.NRGBA{128, 0, 0, 255},
			color.NRGBA{128, 0, 0, 255},
			color.NRGBA{128, 0, 0, 255},
			color.NRGBA{128, 0, 0, 255},
			color.NRGBA{128, 129, 0, 255},
		)
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 5, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 128, 0, 0,
			qoi.TagRun | 0b_000010,
			qoi.TagRGB, 128, 129, 0,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should decode index chunk after run", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(2, 2,
			color.NRGBA{0, 0, 0, 255},
			color.NRGBA{0, 0, 0, 255},
			color.NRGBA{127, 0, 0, 255},
			color.NRGBA{0, 0, 0, 255},
		)
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 2, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRun | 0b_000001, // run 2
			qoi.TagRGB, 127, 0, 0, // RGB
			qoi.TagIndex | 0b_110101, // index 53
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})

	t.Run("Should fail on more pixels than declared", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 1, 2, 3,
			qoi.TagRun | 1, // two more pixels, one slot left
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrBufferOverrun) {
			t.Fatalf("expected %q but got %v", qoi.ErrBufferOverrun, err)
		}
	})

	t.Run("Should fail on index before the slot was filled", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 1, 2, 3,
			qoi.TagIndex | 12,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		_, err := qoi.Decode(reader)

		if !errors.Is(err, qoi.ErrInvalidCacheReference) {
			t.Fatalf("expected %q but got %v", qoi.ErrInvalidCacheReference, err)
		}
	})

	t.Run("Should leave unwritten pixels opaque black", func(t *testing.T) {
		t.Parallel()
		expected := newNRGBA(2, 1, color.NRGBA{1, 2, 3, 255}, color.NRGBA{0, 0, 0, 255})
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 2, 0, 0, 0, 1, qoi.ChannelsRGB, qoi.ColorSpaceSRGB,
			qoi.TagRGB, 1, 2, 3,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		actual, err := qoi.Decode(reader)
		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}

		imageEquals(t, expected, actual)
	})
}

func TestDecodeConfig(t *testing.T) {
	t.Parallel()

	t.Run("Should report dimensions and color model", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{'q', 'o', 'i', 'f', 0, 0, 1, 0, 0, 0, 0, 200, 3, 1})

		cfg, err := qoi.DecodeConfig(reader)

		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}
		if cfg.Width != 256 || cfg.Height != 200 {
			t.Fatalf("expected 256x200, but got %dx%d", cfg.Width, cfg.Height)
		}
		if cfg.ColorModel != color.NRGBAModel {
			t.Fatalf("expected NRGBA color model, but got %v", cfg.ColorModel)
		}
	})

	t.Run("Should fail on a bad header", func(t *testing.T) {
		t.Parallel()
		_, err := qoi.DecodeConfig(bytes.NewReader([]byte("qoix0000000000")))
		if !errors.Is(err, qoi.ErrMalformedHeader) {
			t.Fatalf("expected %q but got %v", qoi.ErrMalformedHeader, err)
		}
	})
}

func TestDecodeHeader(t *testing.T) {
	t.Parallel()

	t.Run("Should read exactly the header", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 1, 0, 0, 0, 1, qoi.ChannelsRGB, qoi.ColorSpaceLinear,
			qoi.TagRGB, 1, 2, 3,
		})

		h, err := qoi.DecodeHeader(reader)

		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}
		expected := qoi.Header{Width: 1, Height: 1, Channels: qoi.ChannelsRGB, ColorSpace: qoi.ColorSpaceLinear}
		if h != expected {
			t.Fatalf("expected %+v, but got %+v", expected, h)
		}
		if reader.Len() != 4 {
			t.Fatalf("expected 4 unread bytes, but got %d", reader.Len())
		}
	})
}

func TestImageDecode(t *testing.T) {
	t.Parallel()

	t.Run("Should be registered with the image package", func(t *testing.T) {
		t.Parallel()
		reader := bytes.NewReader([]byte{
			'q', 'o', 'i', 'f', 0, 0, 0, 1, 0, 0, 0, 1, qoi.ChannelsRGBA, qoi.ColorSpaceSRGB,
			qoi.TagRGBA, 1, 2, 3, 4,
			0, 0, 0, 0, 0, 0, 0, 1,
		})

		m, name, err := image.Decode(reader)

		if err != nil {
			t.Fatalf("expected nil error, but got %v", err)
		}
		if name != "qoi" {
			t.Fatalf("expected format qoi, but got %q", name)
		}
		imageEquals(t, newNRGBA(1, 1, color.NRGBA{1, 2, 3, 4}), m)
	})
}

func TestErrParseHeader(t *testing.T) {
	t.Parallel()

	t.Run("Should match malformed headers", func(t *testing.T) {
		t.Parallel()
		_, err := qoi.Decode(bytes.NewReader([]byte("not a qoi file")))

		if !errors.Is(err, qoi.ErrParseHeader) {
			t.Fatalf("expected %q but got %v", qoi.ErrParseHeader, err)
		}
	})
}
