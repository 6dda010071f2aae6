// Package parser turns a blocking byte source into a sequence of QOI
// chunks. A Parser reads the header once, then yields one chunk per call to
// Next until the end marker.
package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/kropptrevor/qoistream/internal/chunk"
	"github.com/kropptrevor/qoistream/internal/format"
	"github.com/kropptrevor/qoistream/internal/ring"
)

const (
	// DefaultBufferSize is the initial staging buffer capacity.
	DefaultBufferSize = 4096

	// MaxEmptyReads bounds consecutive (0, nil) reads before the source is
	// treated as exhausted.
	MaxEmptyReads = 100
)

type state uint8

const (
	readingHeader state = iota
	readingChunks
	done
)

type Parser struct {
	r        io.Reader
	buf      *ring.Buffer
	state    state
	header   format.Header
	consumed int64
	eof      bool
	err      error
	scratch  [chunk.MaxSize]byte
}

// New returns a parser reading from r with a staging buffer of bufSize
// bytes. A bufSize < 1 selects DefaultBufferSize.
func New(r io.Reader, bufSize int) *Parser {
	if bufSize < 1 {
		bufSize = DefaultBufferSize
	}
	return &Parser{r: r, buf: ring.New(bufSize)}
}

// Consumed returns how many stream bytes have been turned into the header
// and chunks so far.
func (p *Parser) Consumed() int64 { return p.consumed }

// Header returns the header once ReadHeader has succeeded.
func (p *Parser) Header() format.Header { return p.header }

// ReadHeader reads and validates the 14 byte header. Calling it again after
// success returns the same header without reading.
func (p *Parser) ReadHeader() (format.Header, error) {
	if p.err != nil {
		return format.Header{}, p.err
	}
	if p.state != readingHeader {
		return p.header, nil
	}
	p.buf.Grow(format.HeaderSize)
	for p.buf.Len() < format.HeaderSize {
		if err := p.fill(); err != nil {
			if err == io.EOF || errors.Is(err, format.ErrUnexpectedEndOfStream) {
				err = fmt.Errorf("%w: stream ended after %d of %d bytes: %w",
					format.ErrMalformedHeader, p.buf.Len(), format.HeaderSize, io.ErrUnexpectedEOF)
			}
			return format.Header{}, p.fail(err)
		}
	}
	var b [format.HeaderSize]byte
	h, n, err := format.ParseHeader(p.buf.Peek(b[:]))
	if err != nil {
		return format.Header{}, p.fail(err)
	}
	p.buf.Discard(n)
	p.consumed += int64(n)
	p.header = h
	p.state = readingChunks
	return h, nil
}

// Next returns the next chunk in stream order. The end marker is returned
// as an OpEnd chunk; after it Next returns io.EOF and never reads again.
// Any other error is fatal and is returned by every later call.
func (p *Parser) Next() (chunk.Chunk, error) {
	if p.err != nil {
		return chunk.Chunk{}, p.err
	}
	switch p.state {
	case readingHeader:
		if _, err := p.ReadHeader(); err != nil {
			return chunk.Chunk{}, err
		}
	case done:
		return chunk.Chunk{}, io.EOF
	}

	for {
		c, n, err := chunk.Parse(p.buf.Peek(p.scratch[:]))
		if err == nil {
			p.buf.Discard(n)
			p.consumed += int64(n)
			if c.Op == chunk.OpEnd {
				p.state = done
			}
			return c, nil
		}

		var incomplete chunk.Incomplete
		if !errors.As(err, &incomplete) {
			return chunk.Chunk{}, p.fail(&format.ChunkError{Offset: p.consumed, Err: err})
		}
		p.buf.Grow(p.buf.Len() + incomplete.Needed)
		if err := p.fill(); err != nil {
			if err == io.EOF {
				err = fmt.Errorf("%w: after %d bytes, %d buffered bytes need %d more",
					format.ErrUnexpectedEndOfStream, p.consumed, p.buf.Len(), incomplete.Needed)
			}
			return chunk.Chunk{}, p.fail(err)
		}
	}
}

// Close releases the staging buffer. It does not close the source.
func (p *Parser) Close() error {
	if p.buf != nil {
		p.buf.Release()
		p.buf = nil
	}
	if p.err == nil {
		p.err = errors.New("qoi: parser closed")
	}
	return nil
}

// fill reads at least one byte into the staging buffer. It returns io.EOF
// once the source is exhausted.
func (p *Parser) fill() error {
	if p.eof {
		return io.EOF
	}
	for i := 0; i < MaxEmptyReads; i++ {
		n, err := p.buf.Fill(p.r)
		if err == io.EOF {
			p.eof = true
			if n > 0 {
				return nil
			}
			return io.EOF
		}
		if err != nil {
			return &format.SourceError{Err: err}
		}
		if n > 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %w", format.ErrUnexpectedEndOfStream, io.ErrNoProgress)
}

func (p *Parser) fail(err error) error {
	p.err = err
	return err
}
