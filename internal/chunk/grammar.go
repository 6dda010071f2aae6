package chunk

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrNoMatch reports bytes that are present but fit no chunk rule.
var ErrNoMatch = errors.New("no chunk rule matches")

// Incomplete reports that the window ended before a chunk could be
// recognized. Needed is the number of additional bytes required.
type Incomplete struct {
	Needed int
}

func (e Incomplete) Error() string {
	return fmt.Sprintf("need %d more bytes", e.Needed)
}

var endMarker = [MaxSize]byte{0, 0, 0, 0, 0, 0, 0, 1}

// Recognizer tries to read one chunk from the start of b.
type Recognizer func(b []byte) (Chunk, int, error)

// Grammar lists the recognizers in priority order. The end marker goes
// first because its leading zero bytes are also valid index chunks, and
// RGB/RGBA go before run because their tags share the run prefix 11.
var Grammar = [...]Recognizer{
	ParseEndMarker,
	ParseIndex,
	ParseRGB,
	ParseRGBA,
	ParseDiff,
	ParseLuma,
	ParseRun,
}

// Parse recognizes the chunk at the start of b. It returns the chunk and
// its width, an Incomplete error when b is too short to decide, or
// ErrNoMatch. The first recognizer that succeeds or needs more bytes wins.
// An empty window needs one byte, enough to read the tag.
func Parse(b []byte) (Chunk, int, error) {
	if len(b) == 0 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	for _, recognize := range Grammar {
		c, n, err := recognize(b)
		if err == nil {
			return c, n, nil
		}
		if !errors.Is(err, ErrNoMatch) {
			return Chunk{}, 0, err
		}
	}
	return Chunk{}, 0, ErrNoMatch
}

func ParseEndMarker(b []byte) (Chunk, int, error) {
	if len(b) < MaxSize {
		if bytes.HasPrefix(endMarker[:], b) {
			return Chunk{}, 0, Incomplete{Needed: MaxSize - len(b)}
		}
		return Chunk{}, 0, ErrNoMatch
	}
	if !bytes.Equal(b[:MaxSize], endMarker[:]) {
		return Chunk{}, 0, ErrNoMatch
	}
	return Chunk{Op: OpEnd}, MaxSize, nil
}

func ParseIndex(b []byte) (Chunk, int, error) {
	if len(b) < 1 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	if b[0]&maskTag != TagIndex {
		return Chunk{}, 0, ErrNoMatch
	}
	return Chunk{Op: OpIndex, Index: b[0] & mask6}, 1, nil
}

func ParseRGB(b []byte) (Chunk, int, error) {
	if len(b) < 1 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	if b[0] != TagRGB {
		return Chunk{}, 0, ErrNoMatch
	}
	if len(b) < 4 {
		return Chunk{}, 0, Incomplete{Needed: 4 - len(b)}
	}
	return Chunk{Op: OpRGB, R: b[1], G: b[2], B: b[3]}, 4, nil
}

func ParseRGBA(b []byte) (Chunk, int, error) {
	if len(b) < 1 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	if b[0] != TagRGBA {
		return Chunk{}, 0, ErrNoMatch
	}
	if len(b) < 5 {
		return Chunk{}, 0, Incomplete{Needed: 5 - len(b)}
	}
	return Chunk{Op: OpRGBA, R: b[1], G: b[2], B: b[3], A: b[4]}, 5, nil
}

func ParseDiff(b []byte) (Chunk, int, error) {
	if len(b) < 1 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	if b[0]&maskTag != TagDiff {
		return Chunk{}, 0, ErrNoMatch
	}
	return Chunk{
		Op: OpDiff,
		DR: (b[0] >> 4) & mask2,
		DG: (b[0] >> 2) & mask2,
		DB: b[0] & mask2,
	}, 1, nil
}

func ParseLuma(b []byte) (Chunk, int, error) {
	if len(b) < 1 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	if b[0]&maskTag != TagLuma {
		return Chunk{}, 0, ErrNoMatch
	}
	if len(b) < 2 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	return Chunk{
		Op: OpLuma,
		DG: b[0] & mask6,
		DR: b[1] >> 4,
		DB: b[1] & mask4,
	}, 2, nil
}

// ParseRun accepts every 6-bit payload. Payloads 62 and 63 collide with the
// RGB and RGBA tags, so Parse never reaches them.
func ParseRun(b []byte) (Chunk, int, error) {
	if len(b) < 1 {
		return Chunk{}, 0, Incomplete{Needed: 1}
	}
	if b[0]&maskTag != TagRun {
		return Chunk{}, 0, ErrNoMatch
	}
	return Chunk{Op: OpRun, Run: b[0] & mask6}, 1, nil
}
