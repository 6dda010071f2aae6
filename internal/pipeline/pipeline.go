// Package pipeline runs chunk parsing and pixel reconstruction on two
// goroutines connected by a bounded queue, so reads from the source overlap
// with decoding.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kropptrevor/qoistream/internal/chunk"
	"github.com/kropptrevor/qoistream/internal/format"
)

// DefaultDepth is the queue capacity used when Run is given depth < 1.
const DefaultDepth = 4

// Producer yields chunks in stream order and io.EOF once the stream is
// complete.
type Producer interface {
	Next() (chunk.Chunk, error)
}

// Consumer applies chunks in order. Done reports that no more chunks are
// wanted.
type Consumer interface {
	Apply(chunk.Chunk) error
	Done() bool
}

// message carries one chunk, or a producer failure as the last message
// before the queue is closed.
type message struct {
	chunk chunk.Chunk
	err   error
}

// Run drains p into c through a queue of the given depth and returns once
// c is done or either side fails. The producer runs on its own goroutine
// and has always exited when Run returns, so a source Read that never
// returns blocks Run too; closing the source unblocks it.
func Run(ctx context.Context, p Producer, c Consumer, depth int) error {
	if depth < 1 {
		depth = DefaultDepth
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan message, depth)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		produce(ctx, p, queue)
	}()

	err := consume(ctx, c, queue)
	cancel()
	wg.Wait()
	return err
}

func produce(ctx context.Context, p Producer, queue chan<- message) {
	defer close(queue)
	for ctx.Err() == nil {
		c, err := p.Next()
		if err == io.EOF {
			return
		}
		select {
		case queue <- message{chunk: c, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

func consume(ctx context.Context, c Consumer, queue <-chan message) error {
	for {
		select {
		case msg, ok := <-queue:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				if c.Done() {
					return nil
				}
				return fmt.Errorf("%w: producer stopped before the end marker", format.ErrUnexpectedEndOfStream)
			}
			if msg.err != nil {
				return msg.err
			}
			if err := c.Apply(msg.chunk); err != nil {
				return err
			}
			if c.Done() {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
