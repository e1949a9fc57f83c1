// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dailymind/dailymind-tui/internal/ollama"
)

// =============================================================================
// RESPONDER
// =============================================================================

// Prompt is one reply request.
type Prompt struct {
	System string
	Text   string
}

// EmitFunc receives reply fragments in order. A non-nil error stops the reply.
type EmitFunc func(fragment string) error

// Responder generates a reply as a sequence of fragments.
type Responder interface {
	Name() string
	Respond(ctx context.Context, p Prompt, emit EmitFunc) error
}

// Responder kinds accepted by NewResponder.
const (
	ResponderEcho   = "echo"
	ResponderOllama = "ollama"
)

// NewResponder builds the responder named by kind.
func NewResponder(kind, ollamaURL, ollamaModel string, logger *slog.Logger) (Responder, error) {
	switch strings.ToLower(kind) {
	case "", ResponderEcho:
		return NewEchoResponder(0), nil
	case ResponderOllama:
		return NewOllamaResponder(ollama.NewClient(&ollama.Config{
			BaseURL: ollamaURL,
			Model:   ollamaModel,
			Logger:  logger,
		})), nil
	default:
		return nil, fmt.Errorf("unknown responder %q", kind)
	}
}

// =============================================================================
// ECHO
// =============================================================================

// EchoResponder streams the user's text back one word at a time.
type EchoResponder struct {
	delay time.Duration
}

// NewEchoResponder returns an echo responder that waits delay between words.
func NewEchoResponder(delay time.Duration) *EchoResponder {
	return &EchoResponder{delay: delay}
}

func (e *EchoResponder) Name() string { return ResponderEcho }

func (e *EchoResponder) Respond(ctx context.Context, p Prompt, emit EmitFunc) error {
	words := strings.Fields(p.Text)
	for i, w := range words {
		if i > 0 && e.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.delay):
			}
		}
		if i < len(words)-1 {
			w += " "
		}
		if err := emit(w); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// =============================================================================
// OLLAMA
// =============================================================================

// OllamaResponder forwards the prompt to a local Ollama model.
type OllamaResponder struct {
	client *ollama.Client
}

// NewOllamaResponder wraps client.
func NewOllamaResponder(client *ollama.Client) *OllamaResponder {
	return &OllamaResponder{client: client}
}

func (o *OllamaResponder) Name() string { return ResponderOllama + ":" + o.client.Model() }

func (o *OllamaResponder) Respond(ctx context.Context, p Prompt, emit EmitFunc) error {
	messages := []ollama.Message{ollama.NewUserMessage(p.Text)}
	if p.System != "" {
		messages = append([]ollama.Message{ollama.NewSystemMessage(p.System)}, messages...)
	}
	return o.client.ChatStream(ctx, messages, func(chunk ollama.StreamChunk) error {
		if chunk.Content == "" {
			return nil
		}
		return emit(chunk.Content)
	})
}
