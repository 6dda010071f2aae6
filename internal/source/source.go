// Package source adapts byte sources for the decoder. QOI files are often
// shipped compressed; Open recognizes zstd, gzip and zlib framing and
// returns a reader of the plain stream.
package source

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

type Compression uint8

const (
	None Compression = iota
	Zstd
	Gzip
	Zlib
)

func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case Gzip:
		return "gzip"
	case Zlib:
		return "zlib"
	}
	return fmt.Sprintf("Compression(%d)", uint8(c))
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// Detect classifies the first bytes of a stream.
func Detect(magic []byte) Compression {
	switch {
	case bytes.HasPrefix(magic, zstdMagic):
		return Zstd
	case bytes.HasPrefix(magic, gzipMagic):
		return Gzip
	case isZlib(magic):
		return Zlib
	}
	return None
}

// isZlib checks the RFC 1950 header: deflate method, window <= 32K and a
// CMF/FLG pair divisible by 31.
func isZlib(magic []byte) bool {
	if len(magic) < 2 {
		return false
	}
	cmf, flg := magic[0], magic[1]
	return cmf&0x0f == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// Open peeks at r and returns a reader of the decompressed stream, or of r
// itself when no compression is recognized. Closing the result releases
// decompressor state but does not close r.
func Open(r io.Reader) (io.ReadCloser, Compression, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, None, fmt.Errorf("source: peeking magic: %w", err)
	}

	c := Detect(magic)
	switch c {
	case Zstd:
		d, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, fmt.Errorf("source: zstd: %w", err)
		}
		return d.IOReadCloser(), c, nil
	case Gzip:
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("source: gzip: %w", err)
		}
		return gr, c, nil
	case Zlib:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, c, fmt.Errorf("source: zlib: %w", err)
		}
		return zr, c, nil
	}
	return io.NopCloser(br), None, nil
}
