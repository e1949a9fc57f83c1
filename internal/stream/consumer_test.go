// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

// chunkedBody returns one slice per Read, like a chunked HTTP body.
type chunkedBody struct {
	chunks [][]byte
	err    error // returned after the last chunk instead of io.EOF
	closed bool
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	if len(b.chunks) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	if n < len(b.chunks[0]) {
		b.chunks[0] = b.chunks[0][n:]
	} else {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

func (b *chunkedBody) Close() error {
	b.closed = true
	return nil
}

func split(data []byte, at ...int) [][]byte {
	var out [][]byte
	prev := 0
	for _, i := range at {
		out = append(out, data[prev:i])
		prev = i
	}
	return append(out, data[prev:])
}

func collect(t *testing.T, c *Consumer, body io.ReadCloser, contentType string) ([]string, Result, error) {
	t.Helper()
	var frags []string
	res, err := c.Consume(context.Background(), body, contentType, func(s string) {
		frags = append(frags, s)
	})
	return frags, res, err
}

// =============================================================================
// DECODING TESTS
// =============================================================================

func TestConsume_SplitMultibyteReconstructsText(t *testing.T) {
	const text = "Stay calm 😀 ñandú café 世界"
	data := []byte(text)

	// Every split point, including ones inside a rune.
	for i := 1; i < len(data); i++ {
		body := &chunkedBody{chunks: split(data, i)}
		frags, res, err := collect(t, NewConsumer(DefaultOptions()), body, "text/plain; charset=utf-8")
		require.NoError(t, err, "split at %d", i)
		require.Equal(t, Completed, res.State)
		require.Equal(t, text, strings.Join(frags, ""), "split at %d", i)
		for _, f := range frags {
			require.True(t, utf8.ValidString(f), "fragment %q split at %d is not valid UTF-8", f, i)
			require.NotContains(t, f, "�")
		}
		require.True(t, body.closed)
	}
}

func TestConsume_ByteAtATimeMatchesReadAll(t *testing.T) {
	const text = "日本語のテキスト 🚀 done"
	data := []byte(text)
	var chunks [][]byte
	for i := range data {
		chunks = append(chunks, data[i:i+1])
	}

	frags, res, err := collect(t, NewConsumer(DefaultOptions()), &chunkedBody{chunks: chunks}, "")
	require.NoError(t, err)

	whole, err := ReadAll(strings.NewReader(text), "")
	require.NoError(t, err)
	require.Equal(t, whole, strings.Join(frags, ""))
	require.Equal(t, len(text), res.Bytes)
	require.Equal(t, "utf-8", res.Charset)
}

func TestConsume_TinyReadBufferNeverSplitsRunes(t *testing.T) {
	const text = "ß😀ü"
	opts := DefaultOptions()
	opts.ReadSize = 1

	frags, _, err := collect(t, NewConsumer(opts), &chunkedBody{chunks: [][]byte{[]byte(text)}}, "")
	require.NoError(t, err)
	require.Equal(t, text, strings.Join(frags, ""))
	for _, f := range frags {
		require.True(t, utf8.ValidString(f), "fragment %q", f)
	}
}

func TestConsume_DeclaredLatin1(t *testing.T) {
	body := &chunkedBody{chunks: [][]byte{[]byte("caf"), {0xe9}, []byte(" cr\xe8me")}}
	frags, res, err := collect(t, NewConsumer(DefaultOptions()), body, "text/plain; charset=ISO-8859-1")
	require.NoError(t, err)
	require.Equal(t, "café crème", strings.Join(frags, ""))
	require.Equal(t, "windows-1252", res.Charset)
}

func TestConsume_ShiftJISSplitAcrossChunks(t *testing.T) {
	// "日本" in Shift_JIS.
	sjis := []byte{0x93, 0xfa, 0x96, 0x7b}
	body := &chunkedBody{chunks: split(sjis, 1, 3)}
	frags, _, err := collect(t, NewConsumer(DefaultOptions()), body, "text/plain; charset=shift_jis")
	require.NoError(t, err)
	require.Equal(t, "日本", strings.Join(frags, ""))
}

func TestEncodingFor(t *testing.T) {
	tests := []struct {
		contentType string
		wantName    string
		wantKnown   bool
	}{
		{"", "utf-8", true},
		{"text/plain", "utf-8", true},
		{"text/plain; charset=UTF-8", "utf-8", true},
		{"text/plain; charset=latin1", "windows-1252", true},
		{"text/plain; charset=klingon", "utf-8", false},
		{"not a media type;;", "utf-8", true},
	}
	for _, tt := range tests {
		_, name, known := EncodingFor(tt.contentType)
		if name != tt.wantName || known != tt.wantKnown {
			t.Errorf("EncodingFor(%q) = %q,%v want %q,%v", tt.contentType, name, known, tt.wantName, tt.wantKnown)
		}
	}
}

func TestConsume_UnknownCharsetFallsBackToUTF8(t *testing.T) {
	frags, res, err := collect(t, NewConsumer(DefaultOptions()),
		&chunkedBody{chunks: [][]byte{[]byte("héllo")}}, "text/plain; charset=klingon")
	require.NoError(t, err)
	require.Equal(t, "héllo", strings.Join(frags, ""))
	require.Equal(t, "utf-8", res.Charset)
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestConsume_StateTransitions(t *testing.T) {
	c := NewConsumer(DefaultOptions())
	require.Equal(t, Idle, c.State())

	var during State
	_, err := c.Consume(context.Background(), &chunkedBody{chunks: [][]byte{[]byte("x")}}, "", func(string) {
		during = c.State()
	})
	require.NoError(t, err)
	require.Equal(t, Streaming, during)
	require.Equal(t, Completed, c.State())

	body := &chunkedBody{}
	_, err = c.Consume(context.Background(), body, "", func(string) {})
	require.ErrorIs(t, err, ErrClosed)
	require.True(t, body.closed, "a rejected body is still closed")
}

func TestConsume_EmptyBody(t *testing.T) {
	frags, res, err := collect(t, NewConsumer(DefaultOptions()), &chunkedBody{}, "")
	require.NoError(t, err)
	require.Empty(t, frags)
	require.Equal(t, Completed, res.State)
	require.Zero(t, res.Fragments)
}

func TestConsume_ReadErrorKeepsPartialText(t *testing.T) {
	boom := errors.New("connection reset")
	body := &chunkedBody{chunks: [][]byte{[]byte("partial ")}, err: boom}

	c := NewConsumer(DefaultOptions())
	frags, res, err := collect(t, c, body, "")
	require.ErrorIs(t, err, boom)
	require.Equal(t, Failed, res.State)
	require.Equal(t, Failed, c.State())
	require.Equal(t, "partial ", strings.Join(frags, ""))
	require.True(t, body.closed)
}

func TestConsume_IdleTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		pw.Write([]byte("first words"))
		// Then stall until the consumer gives up and closes the reader.
	}()

	opts := DefaultOptions()
	opts.IdleTimeout = 50 * time.Millisecond
	c := NewConsumer(opts)

	start := time.Now()
	frags, res, err := collect(t, c, pr, "")
	require.ErrorIs(t, err, ErrIdleTimeout)
	require.Equal(t, Failed, res.State)
	require.Equal(t, "first words", strings.Join(frags, ""))
	require.Less(t, time.Since(start), 5*time.Second)

	// The pipe is closed, so a late writer fails instead of blocking.
	_, werr := pw.Write([]byte("late"))
	require.Error(t, werr)
}

func TestConsume_IdleTimerResetsOnEachChunk(t *testing.T) {
	pr, pw := io.Pipe()
	go func() {
		for i := 0; i < 4; i++ {
			pw.Write([]byte("tick "))
			time.Sleep(30 * time.Millisecond)
		}
		pw.Close()
	}()

	opts := DefaultOptions()
	opts.IdleTimeout = 200 * time.Millisecond
	frags, res, err := collect(t, NewConsumer(opts), pr, "")
	require.NoError(t, err)
	require.Equal(t, Completed, res.State)
	require.Equal(t, strings.Repeat("tick ", 4), strings.Join(frags, ""))
}

func TestConsume_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		pw.Write([]byte("hello"))
		cancel()
	}()

	opts := DefaultOptions()
	opts.IdleTimeout = 0
	var got strings.Builder
	res, err := NewConsumer(opts).Consume(ctx, pr, "", func(s string) { got.WriteString(s) })
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, Failed, res.State)
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{Idle: "idle", Streaming: "streaming", Completed: "completed", Failed: "failed"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q", int(s), s.String())
		}
	}
}
