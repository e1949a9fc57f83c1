// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"
)

// maxLine bounds a single NDJSON line.
const maxLine = 1 << 20

// =============================================================================
// STREAM READER
// =============================================================================

// StreamCallback receives each chunk in order. A non-nil return stops the
// stream and is returned from Process.
type StreamCallback func(chunk StreamChunk) error

// StreamReader decodes an /api/chat NDJSON body.
type StreamReader struct {
	scanner     *bufio.Scanner
	accumulator strings.Builder
	chunks      int
	model       string
}

// NewStreamReader creates a new stream reader from an io.Reader.
func NewStreamReader(r io.Reader) *StreamReader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	return &StreamReader{scanner: sc}
}

// Process reads the stream and calls callback for each chunk until the done
// chunk, EOF, ctx cancellation or a callback error. An in-band error object
// ends the stream with an InvalidResponse error.
func (s *StreamReader) Process(ctx context.Context, callback StreamCallback) error {
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := s.scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var parsed streamLine
		if err := json.Unmarshal(line, &parsed); err != nil {
			// Skip malformed lines
			continue
		}
		if parsed.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: parsed.Error}
		}

		chunk := s.toChunk(parsed)
		if err := callback(chunk); err != nil {
			return err
		}
		if chunk.Done {
			return nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return &ClientError{Type: ErrTypeConnection, Message: "stream read failed", Cause: err}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return nil
}

func (s *StreamReader) toChunk(line streamLine) StreamChunk {
	if line.Model != "" {
		s.model = line.Model
	}
	if line.Message.Content != "" {
		s.accumulator.WriteString(line.Message.Content)
		s.chunks++
	}

	chunk := StreamChunk{
		Content: line.Message.Content,
		Model:   s.model,
		Done:    line.Done,
	}
	if line.Done {
		chunk.DoneReason = line.DoneReason
		chunk.TotalDuration = time.Duration(line.TotalDuration)
		chunk.PromptTokens = line.PromptEvalCount
		chunk.CompletionTokens = line.EvalCount
	}
	return chunk
}

// GetAccumulated returns all content received so far.
func (s *StreamReader) GetAccumulated() string {
	return s.accumulator.String()
}

// GetChunkCount returns the number of non-empty content chunks.
func (s *StreamReader) GetChunkCount() int {
	return s.chunks
}

// GetModel returns the model reported by the stream.
func (s *StreamReader) GetModel() string {
	return s.model
}
