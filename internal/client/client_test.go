// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func strPtr(s string) *string { return &s }

// =============================================================================
// CHAT STREAM TESTS
// =============================================================================

func TestChatStream_SendsPayloadAndReturnsOpenBody(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodPost, r.Method)
		require.Equal("/chat-stream", r.URL.Path)
		require.Equal("application/json", r.Header.Get("Content-Type"))

		var got map[string]any
		require.NoError(json.NewDecoder(r.Body).Decode(&got))
		require.Equal("hello", got["text"])
		require.Equal("Motivator", got["personality"])
		require.Equal("a@b.co", got["email"])
		require.Equal(true, got["is_free"])

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, "Hi there")
	}))
	defer srv.Close()

	c := New(&Config{BaseURL: srv.URL + "/"})
	resp, err := c.ChatStream(context.Background(), ChatRequest{
		Text:        "hello",
		Personality: "Motivator",
		Email:       strPtr("a@b.co"),
		IsFree:      true,
	})
	require.NoError(err)
	defer resp.Body.Close()

	require.Equal(http.StatusOK, resp.StatusCode)
	require.Equal("text/plain; charset=utf-8", resp.ContentType)
	body, err := io.ReadAll(resp.Body)
	require.NoError(err)
	require.Equal("Hi there", string(body))
}

func TestChatStream_NilEmailIsNull(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			payload, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			require.Contains(t, string(payload), `"email":null`)
			return &http.Response{
				StatusCode: http.StatusOK,
				Header:     http.Header{"Content-Type": []string{"text/plain"}},
				Body:       io.NopCloser(strings.NewReader("")),
			}, nil
		}),
	}
	c := New(&Config{BaseURL: "http://dailymind.test", HTTPClient: client})
	resp, err := c.ChatStream(context.Background(), ChatRequest{Text: "x"})
	require.NoError(t, err)
	resp.Body.Close()
}

func TestChatStream_403IsQuotaExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, "You've reached today's free limit. Upgrade to continue.")
	}))
	defer srv.Close()

	_, err := New(&Config{BaseURL: srv.URL}).ChatStream(context.Background(), ChatRequest{Text: "x"})
	require.Error(t, err)
	require.True(t, IsQuotaExceeded(err))
	require.False(t, IsServer(err))

	var ce *ClientError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, http.StatusForbidden, ce.StatusCode)
	require.Contains(t, ce.Message, "free limit")
}

func TestChatStream_OtherStatusIsServerError(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusInternalServerError, http.StatusBadGateway} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		_, err := New(&Config{BaseURL: srv.URL}).ChatStream(context.Background(), ChatRequest{Text: "x"})
		srv.Close()

		require.Error(t, err, "status %d", status)
		require.True(t, IsServer(err), "status %d", status)
		require.False(t, IsQuotaExceeded(err), "status %d", status)
	}
}

func TestChatStream_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(&Config{BaseURL: url}).ChatStream(context.Background(), ChatRequest{Text: "x"})
	require.Error(t, err)
	require.True(t, IsConnection(err))
}

func TestChatStream_HeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := New(&Config{BaseURL: srv.URL, ConnectTimeout: 50 * time.Millisecond})
	_, err := c.ChatStream(context.Background(), ChatRequest{Text: "x"})
	require.Error(t, err)
	require.True(t, IsTimeout(err), "got %v", err)
}

func TestChatStream_ContextDeadline(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			<-req.Context().Done()
			return nil, req.Context().Err()
		}),
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(&Config{HTTPClient: client}).ChatStream(ctx, ChatRequest{Text: "x"})
	require.True(t, IsTimeout(err), "got %v", err)
}

// =============================================================================
// PREMIUM CHECK TESTS
// =============================================================================

func TestCheckPremium(t *testing.T) {
	for _, premium := range []bool{true, false} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/check-premium", r.URL.Path)
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, "a@b.co", body["email"])
			json.NewEncoder(w).Encode(map[string]bool{"premium": premium})
		}))
		got, err := New(&Config{BaseURL: srv.URL}).CheckPremium(context.Background(), "a@b.co")
		srv.Close()

		require.NoError(t, err)
		require.Equal(t, premium, got)
	}
}

func TestCheckPremium_FailuresAreErrors(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		"bad json":     func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "<html>") },
	}
	for name, h := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()
			got, err := New(&Config{BaseURL: srv.URL}).CheckPremium(context.Background(), "a@b.co")
			require.Error(t, err)
			require.False(t, got)
		})
	}
}

func TestCheckPremium_CustomPath(t *testing.T) {
	client := &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/api/entitlement", req.URL.Path)
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(`{"premium":true}`)),
			}, nil
		}),
	}
	c := New(&Config{BaseURL: "http://dailymind.test", PremiumPath: "/api/entitlement", HTTPClient: client})
	got, err := c.CheckPremium(context.Background(), "a@b.co")
	require.NoError(t, err)
	require.True(t, got)
}

// =============================================================================
// ERROR TESTS
// =============================================================================

func TestClientError_IsMatchesByType(t *testing.T) {
	err := &ClientError{Type: ErrTypeServer, Message: "boom", StatusCode: 502}
	require.ErrorIs(t, err, ErrServer)
	require.NotErrorIs(t, err, ErrTimeout)
	require.Equal(t, "boom (status 502)", err.Error())

	wrapped := &ClientError{Type: ErrTypeConnection, Message: "connection failed", Cause: io.ErrUnexpectedEOF}
	require.ErrorIs(t, wrapped, io.ErrUnexpectedEOF)
	require.Equal(t, "connection", wrapped.Type.String())
}

func TestNew_Defaults(t *testing.T) {
	c := New(nil)
	cfg := c.Config()
	require.Equal(t, "/chat-stream", cfg.ChatPath)
	require.Equal(t, "/check-premium", cfg.PremiumPath)
	require.Equal(t, 15*time.Second, cfg.ConnectTimeout)
}
