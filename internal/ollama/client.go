// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Ollama client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches sentinels by Type.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeNotRunning
	ErrTypeTimeout
	ErrTypeModelNotFound
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrNotRunning    = &ClientError{Type: ErrTypeNotRunning, Message: "Ollama is not running"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrModelNotFound = &ClientError{Type: ErrTypeModelNotFound, Message: "model not found"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the Ollama client.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://127.0.0.1:11434)
	BaseURL string

	// Model used for chat (default: llama3.2)
	Model string

	// ConnectTimeout bounds dialing and waiting for response headers (default: 5s)
	ConnectTimeout time.Duration

	// Options are passed through to the model when set
	Options *Options

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Logger receives request diagnostics. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://127.0.0.1:11434",
		Model:          "llama3.2",
		ConnectTimeout: 5 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is safe for concurrent use.
type Client struct {
	config     *Config
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client, filling zero fields of cfg from DefaultConfig.
func NewClient(cfg *Config) *Client {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	c := *cfg
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = defaults.Model
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		// No overall timeout: replies stream for as long as the model talks.
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: c.ConnectTimeout}).DialContext,
				ResponseHeaderTimeout: c.ConnectTimeout * 6,
			},
		}
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{config: &c, httpClient: httpClient, logger: logger}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.config.Model
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that Ollama is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "health check failed: " + resp.Status}
	}
	return nil
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// ChatStream sends a streaming chat request and calls callback for each chunk.
// callback runs synchronously in the order chunks arrive. Returns when the
// stream completes, callback fails or ctx is done.
func (c *Client) ChatStream(ctx context.Context, messages []Message, callback StreamCallback) error {
	body, err := json.Marshal(ChatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   true,
		Options:  c.config.Options,
	})
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrModelNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var ollamaErr OllamaError
		if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&ollamaErr); err == nil && ollamaErr.Error != "" {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: ollamaErr.Error}
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "stream request failed: " + resp.Status}
	}

	reader := NewStreamReader(resp.Body)
	err = reader.Process(ctx, callback)
	c.logger.Debug("ollama stream finished",
		"model", reader.GetModel(),
		"chunks", reader.GetChunkCount(),
		"duration", time.Since(start),
		"error", err)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ClientError{Type: ErrTypeTimeout, Message: ErrTimeout.Message, Cause: err}
	}
	return &ClientError{Type: ErrTypeNotRunning, Message: ErrNotRunning.Message, Cause: err}
}

// IsModelNotFound checks if an error is a model not found error.
func IsModelNotFound(err error) bool {
	return errors.Is(err, ErrModelNotFound)
}

// IsNotRunning checks if an error indicates Ollama is not running.
func IsNotRunning(err error) bool {
	return errors.Is(err, ErrNotRunning)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
