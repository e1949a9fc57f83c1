// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// =============================================================================
// STATE
// =============================================================================

// State is the consumer lifecycle.
type State int

const (
	Idle State = iota
	Streaming
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Streaming:
		return "streaming"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrIdleTimeout means no bytes arrived within Options.IdleTimeout.
	ErrIdleTimeout = errors.New("stream idle timeout")
	// ErrClosed is returned when Consume is called on a finished consumer.
	ErrClosed = errors.New("stream consumer already finished")
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Consumer.
type Options struct {
	// IdleTimeout bounds each wait for the next chunk. Zero disables it.
	IdleTimeout time.Duration

	// ReadSize is the buffer handed to each Read (default: 4096)
	ReadSize int

	// Logger receives lifecycle diagnostics. Nil discards.
	Logger *slog.Logger
}

// DefaultOptions returns the consumer defaults.
func DefaultOptions() Options {
	return Options{
		IdleTimeout: 60 * time.Second,
		ReadSize:    4096,
	}
}

// FragmentFunc receives decoded text in arrival order. It runs on the
// goroutine that called Consume.
type FragmentFunc func(text string)

// Result summarises a finished stream.
type Result struct {
	State     State
	Charset   string
	Fragments int
	Bytes     int
	Duration  time.Duration
}

// =============================================================================
// CONSUMER
// =============================================================================

// Consumer drives one response body to completion.
type Consumer struct {
	opts   Options
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// NewConsumer returns an Idle consumer.
func NewConsumer(opts Options) *Consumer {
	if opts.ReadSize <= 0 {
		opts.ReadSize = DefaultOptions().ReadSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Consumer{opts: opts, logger: logger}
}

// State returns the current lifecycle state.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Consumer) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

type chunk struct {
	text string
	err  error
}

// Consume decodes body according to contentType and calls onText for every
// non-empty fragment until end of data, a read error, the idle timeout or ctx
// cancellation. body is always closed before Consume returns.
func (c *Consumer) Consume(ctx context.Context, body io.ReadCloser, contentType string, onText FragmentFunc) (Result, error) {
	c.mu.Lock()
	if c.state != Idle {
		c.mu.Unlock()
		body.Close()
		return Result{State: c.state}, ErrClosed
	}
	c.state = Streaming
	c.mu.Unlock()

	enc, charset, known := EncodingFor(contentType)
	if !known {
		c.logger.Warn("unknown response charset, decoding as utf-8", "content_type", contentType)
	}

	res := Result{Charset: charset}
	start := time.Now()
	decoded := transform.NewReader(body, enc.NewDecoder())

	chunks := make(chan chunk)
	done := make(chan struct{})
	var pumpWG sync.WaitGroup
	pumpWG.Add(1)
	go func() {
		defer pumpWG.Done()
		c.pump(decoded, chunks, done)
	}()

	finish := func(state State, err error) (Result, error) {
		close(done)
		body.Close()
		pumpWG.Wait()
		c.setState(state)
		res.State = state
		res.Duration = time.Since(start)
		if err != nil {
			c.logger.Debug("stream failed", "error", err, "fragments", res.Fragments, "bytes", res.Bytes)
		} else {
			c.logger.Debug("stream completed", "fragments", res.Fragments, "bytes", res.Bytes, "duration", res.Duration)
		}
		return res, err
	}

	var idle <-chan time.Time
	var timer *time.Timer
	if c.opts.IdleTimeout > 0 {
		timer = time.NewTimer(c.opts.IdleTimeout)
		defer timer.Stop()
		idle = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return finish(Failed, ctx.Err())

		case <-idle:
			return finish(Failed, ErrIdleTimeout)

		case ch := <-chunks:
			if ch.text != "" {
				res.Fragments++
				res.Bytes += len(ch.text)
				onText(ch.text)
			}
			if ch.err == io.EOF {
				return finish(Completed, nil)
			}
			if ch.err != nil {
				return finish(Failed, fmt.Errorf("read stream: %w", ch.err))
			}
			if timer != nil {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(c.opts.IdleTimeout)
			}
		}
	}
}

// pump reads decoded text and forwards it until an error or done closes.
// The transform reader may cut its output at the size of buf, so a trailing
// partial rune is held back until the next read completes it.
func (c *Consumer) pump(r io.Reader, out chan<- chunk, done <-chan struct{}) {
	buf := make([]byte, c.opts.ReadSize)
	var pending []byte
	for {
		n, err := r.Read(buf)
		pending = append(pending, buf[:n]...)

		cut := len(pending)
		if err == nil {
			cut = completePrefix(pending)
		}
		if cut == 0 && err == nil {
			continue
		}

		ch := chunk{text: string(pending[:cut]), err: err}
		pending = append(pending[:0], pending[cut:]...)

		select {
		case out <- ch:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// completePrefix returns the length of the longest prefix of p that does not
// end inside a multi-byte UTF-8 sequence.
func completePrefix(p []byte) int {
	for i := len(p) - 1; i >= 0 && i >= len(p)-utf8.UTFMax; i-- {
		if utf8.RuneStart(p[i]) {
			if utf8.FullRune(p[i:]) {
				return len(p)
			}
			return i
		}
	}
	return len(p)
}

// ReadAll decodes body in one go. Useful for non-streaming callers and as the
// reference the incremental path must match.
func ReadAll(body io.Reader, contentType string) (string, error) {
	enc, _, _ := EncodingFor(contentType)
	data, err := io.ReadAll(transform.NewReader(body, enc.NewDecoder()))
	return string(data), err
}
