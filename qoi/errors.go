package qoi

import "github.com/kropptrevor/qoistream/internal/format"

// Every decoding failure matches one of these with errors.Is, except
// source failures, which are returned as *SourceError.
var (
	ErrMalformedHeader       = format.ErrMalformedHeader
	ErrUnexpectedEndOfStream = format.ErrUnexpectedEndOfStream
	ErrInvalidChunkEncoding  = format.ErrInvalidChunkEncoding
	ErrInvalidCacheReference = format.ErrInvalidCacheReference
	ErrBufferOverrun         = format.ErrBufferOverrun
	ErrIncompletePixelData   = format.ErrIncompletePixelData

	// ErrParseHeader is the former name of ErrMalformedHeader.
	ErrParseHeader = ErrMalformedHeader
)

// ChunkError reports unrecognizable chunk bytes and the stream offset they
// were found at.
type ChunkError = format.ChunkError

// SourceError wraps an error returned by the reader being decoded.
type SourceError = format.SourceError
