// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import "time"

// =============================================================================
// MESSAGE TYPES
// =============================================================================

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return Message{Role: "system", Content: content}
}

// =============================================================================
// REQUEST TYPES
// =============================================================================

// ChatRequest is the /api/chat request body.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
	Options  *Options  `json:"options,omitempty"`
}

// Options are model sampling parameters.
type Options struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// =============================================================================
// STREAMING TYPES
// =============================================================================

// streamLine is one NDJSON object of an /api/chat stream.
type streamLine struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	TotalDuration   int64  `json:"total_duration,omitempty"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
	Error           string `json:"error,omitempty"`
}

// StreamChunk is a single decoded chunk of a streaming reply.
type StreamChunk struct {
	// Content added by this chunk
	Content string

	// Model that produced the chunk
	Model string

	// Set on the final chunk only
	Done             bool
	DoneReason       string
	TotalDuration    time.Duration
	PromptTokens     int
	CompletionTokens int
}

// OllamaError is the error body Ollama returns with non-2xx responses.
type OllamaError struct {
	Error string `json:"error"`
}
