// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

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

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the client.
type Config struct {
	// BaseURL is the service root (default: http://127.0.0.1:5000)
	BaseURL string

	// ChatPath is the streaming chat endpoint (default: /chat-stream)
	ChatPath string

	// PremiumPath is the entitlement check endpoint (default: /check-premium)
	PremiumPath string

	// ConnectTimeout bounds dialing and waiting for response headers (default: 15s)
	ConnectTimeout time.Duration

	// CheckTimeout bounds the whole entitlement check (default: 10s)
	CheckTimeout time.Duration

	// UserAgent sent with every request
	UserAgent string

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Logger receives request diagnostics. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "http://127.0.0.1:5000",
		ChatPath:       "/chat-stream",
		PremiumPath:    "/check-premium",
		ConnectTimeout: 15 * time.Second,
		CheckTimeout:   10 * time.Second,
		UserAgent:      "dailymind-tui",
	}
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// ChatRequest is the chat-stream payload. Email is a pointer so an absent
// identity serialises as null rather than "".
type ChatRequest struct {
	Text        string  `json:"text"`
	Personality string  `json:"personality"`
	Email       *string `json:"email"`
	IsFree      bool    `json:"is_free"`
}

// StreamResponse is a successful chat response whose body has not been read.
// The caller owns Body and must close it.
type StreamResponse struct {
	Body        io.ReadCloser
	ContentType string
	StatusCode  int
}

type premiumRequest struct {
	Email string `json:"email"`
}

type premiumResponse struct {
	Premium bool `json:"premium"`
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

// New creates a client, filling zero fields of cfg from DefaultConfig.
func New(cfg *Config) *Client {
	defaults := DefaultConfig()
	if cfg == nil {
		cfg = defaults
	}
	c := *cfg
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.ChatPath == "" {
		c.ChatPath = defaults.ChatPath
	}
	if c.PremiumPath == "" {
		c.PremiumPath = defaults.PremiumPath
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaults.ConnectTimeout
	}
	if c.CheckTimeout <= 0 {
		c.CheckTimeout = defaults.CheckTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = defaults.UserAgent
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Transport: newTransport(c.ConnectTimeout)}
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{config: &c, httpClient: hc, logger: logger}
}

// newTransport bounds connection setup and the wait for headers while leaving
// the body free to stream.
func newTransport(connect time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   connect,
		ResponseHeaderTimeout: connect,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          4,
	}
}

// Config returns a copy of the effective configuration.
func (c *Client) Config() Config {
	return *c.config
}

// ChatStream dispatches req and returns the open body on a 2xx response.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest) (*StreamResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/plain")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	c.logger.Debug("chat stream opened",
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"latency", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer drainAndClose(resp.Body)
		return nil, statusError(resp)
	}

	return &StreamResponse{
		Body:        resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

// CheckPremium asks the service whether email holds a premium entitlement.
// Any failure is returned as an error; it never reads as false.
func (c *Client) CheckPremium(ctx context.Context, email string) (bool, error) {
	body, err := json.Marshal(premiumRequest{Email: email})
	if err != nil {
		return false, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.CheckTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+c.config.PremiumPath, bytes.NewReader(body))
	if err != nil {
		return false, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false, classifyTransportError(err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, statusError(resp)
	}

	var out premiumResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&out); err != nil {
		return false, &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid premium response", Cause: err}
	}
	c.logger.Debug("premium check answered", "premium", out.Premium)
	return out.Premium, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "connection failed", Cause: err}
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(raw))

	if resp.StatusCode == http.StatusForbidden {
		if text == "" {
			text = ErrQuotaExceeded.Message
		}
		return &ClientError{Type: ErrTypeQuotaExceeded, Message: text, StatusCode: resp.StatusCode}
	}
	if text == "" {
		text = "server error: " + resp.Status
	}
	return &ClientError{Type: ErrTypeServer, Message: text, StatusCode: resp.StatusCode}
}

func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, io.LimitReader(r, 64<<10))
	r.Close()
}
