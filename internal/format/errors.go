package format

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedHeader       = errors.New("qoi: malformed header")
	ErrUnexpectedEndOfStream = errors.New("qoi: unexpected end of stream")
	ErrInvalidChunkEncoding  = errors.New("qoi: invalid chunk encoding")
	ErrInvalidCacheReference = errors.New("qoi: index chunk references an empty cache slot")
	ErrBufferOverrun         = errors.New("qoi: chunk stream exceeds declared pixel count")
	ErrIncompletePixelData   = errors.New("qoi: end marker before declared pixel count")
)

// ChunkError reports a chunk that could not be recognized. Offset is the
// number of stream bytes consumed before it, header included.
type ChunkError struct {
	Offset int64
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("qoi: chunk at byte %d: %v", e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Is makes every ChunkError match ErrInvalidChunkEncoding.
func (e *ChunkError) Is(target error) bool {
	return target == ErrInvalidChunkEncoding
}

// SourceError wraps a failure returned by the byte source.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string {
	return "qoi: reading source: " + e.Err.Error()
}

func (e *SourceError) Unwrap() error { return e.Err }
