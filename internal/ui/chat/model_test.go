// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/dailymind/dailymind-tui/internal/client"
	"github.com/dailymind/dailymind-tui/internal/identity"
	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/prefs"
	"github.com/dailymind/dailymind-tui/internal/session"
	"github.com/dailymind/dailymind-tui/internal/ui/styles"
)

// =============================================================================
// HARNESS
// =============================================================================

type replyChat struct{ text string }

func (r replyChat) ChatStream(ctx context.Context, req client.ChatRequest) (*client.StreamResponse, error) {
	return &client.StreamResponse{
		Body:        io.NopCloser(strings.NewReader(r.text)),
		ContentType: "text/plain; charset=utf-8",
		StatusCode:  200,
	}, nil
}

type tuiHarness struct {
	m       Model
	pending []tea.Msg
	ctrl    *session.Controller
	opened  []string
	store   *prefs.MemoryStore
}

func newTUI(t *testing.T, seed map[string]string, markdown bool) *tuiHarness {
	t.Helper()
	h := &tuiHarness{store: prefs.NewMemoryStore(seed)}
	ids := identity.NewManager(h.store, nil, nil)
	h.ctrl = session.New(session.DefaultConfig(), ids, replyChat{text: "Breathe **slowly**."},
		NewFuncSurface(func(msg tea.Msg) { h.pending = append(h.pending, msg) }), nil)

	h.m = New(Options{
		Controller:     h.ctrl,
		Theme:          styles.NewThemeFor(&bytes.Buffer{}, styles.ThemeDark),
		RenderMarkdown: markdown,
		OpenURL: func(url string) error {
			h.opened = append(h.opened, url)
			return nil
		},
	})
	h.update(tea.WindowSizeMsg{Width: 100, Height: 30})
	require.NoError(t, h.ctrl.Start(context.Background()))
	h.drain()
	return h
}

func (h *tuiHarness) update(msg tea.Msg) tea.Cmd {
	next, cmd := h.m.Update(msg)
	h.m = next.(Model)
	return cmd
}

// drain applies queued surface messages.
func (h *tuiHarness) drain() {
	for len(h.pending) > 0 {
		msg := h.pending[0]
		h.pending = h.pending[1:]
		h.update(msg)
	}
}

func (h *tuiHarness) typeText(s string) {
	h.update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *tuiHarness) press(k tea.KeyType) tea.Cmd {
	return h.update(tea.KeyMsg{Type: k})
}

// run executes cmd synchronously, then feeds its result and any surface
// messages back into the model.
func (h *tuiHarness) run(cmd tea.Cmd) {
	if cmd == nil {
		return
	}
	msg := cmd()
	h.drain()
	if msg != nil {
		h.update(msg)
	}
}

// =============================================================================
// TESTS
// =============================================================================

func TestStart_WithoutEmailOpensModal(t *testing.T) {
	h := newTUI(t, nil, false)
	require.True(t, h.m.EmailOpen())
	require.True(t, h.m.InputEnabled())
	require.Contains(t, h.m.View(), "Enter your email")
}

func TestEmailModal_RejectsThenSaves(t *testing.T) {
	h := newTUI(t, nil, false)

	h.typeText("not-an-email")
	h.run(h.press(tea.KeyEnter))
	require.True(t, h.m.EmailOpen())
	require.Contains(t, h.m.View(), InvalidEmailText)

	// Clear and retype.
	for i := 0; i < len("not-an-email"); i++ {
		h.press(tea.KeyBackspace)
	}
	h.typeText("Jane@Example.com")
	cmd := h.press(tea.KeyEnter)
	require.NotNil(t, cmd)
	require.True(t, h.m.EmailOpen(), "modal stays open until the save returns")
	require.Nil(t, h.press(tea.KeyEnter), "second submit while saving")
	h.run(cmd)

	require.False(t, h.m.EmailOpen())
	require.Equal(t, "jane@example.com", h.ctrl.Status().Email)
	last := h.m.Entries()[len(h.m.Entries())-1]
	require.Equal(t, session.NoticeEmailSaved, last.Text)
}

// observedModel forwards every post-Update model so a test can watch a
// running program.
type observedModel struct {
	Model
	updates chan<- Model
}

func (o observedModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := o.Model.Update(msg)
	m := next.(Model)
	select {
	case o.updates <- m:
	default:
	}
	return observedModel{Model: m, updates: o.updates}, cmd
}

func TestEmailModal_SavesInsideRunningProgram(t *testing.T) {
	store := prefs.NewMemoryStore(nil)
	ids := identity.NewManager(store, nil, nil)
	ctrl := session.New(session.DefaultConfig(), ids, replyChat{text: "ok"}, nil, nil)

	updates := make(chan Model, 1024)
	m := New(Options{
		Controller: ctrl,
		Theme:      styles.NewThemeFor(&bytes.Buffer{}, styles.ThemeDark),
	})
	p := tea.NewProgram(observedModel{Model: m, updates: updates},
		tea.WithInput(nil), tea.WithOutput(io.Discard), tea.WithoutRenderer())
	ctrl.SetSurface(NewProgramSurface(p))

	runDone := make(chan error, 1)
	go func() {
		_, err := p.Run()
		runDone <- err
	}()
	t.Cleanup(func() {
		p.Quit()
		select {
		case <-runDone:
		case <-time.After(2 * time.Second):
			p.Kill()
		}
	})

	started := make(chan error, 1)
	go func() { started <- ctrl.Start(context.Background()) }()
	select {
	case err := <-started:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("start did not reach the event loop")
	}

	waitFor := func(what string, ok func(Model) bool) {
		t.Helper()
		deadline := time.After(3 * time.Second)
		for {
			select {
			case got := <-updates:
				if ok(got) {
					return
				}
			case <-deadline:
				t.Fatalf("event loop stalled waiting for %s", what)
			}
		}
	}
	waitFor("email modal", Model.EmailOpen)

	p.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a@b.io")})
	p.Send(tea.KeyMsg{Type: tea.KeyEnter})

	waitFor("saved notice", func(got Model) bool {
		entries := got.Entries()
		return !got.EmailOpen() && len(entries) > 0 &&
			entries[len(entries)-1].Text == session.NoticeEmailSaved
	})
	require.Equal(t, "a@b.io", ctrl.Status().Email)

	// The loop still accepts input after the save.
	p.Send(StatusMsg("still here"))
	waitFor("status roundtrip", func(got Model) bool {
		return got.status == "still here"
	})
}

func TestEmailModal_EscCloses(t *testing.T) {
	h := newTUI(t, nil, false)
	h.press(tea.KeyEsc)
	require.False(t, h.m.EmailOpen())

	h.press(tea.KeyCtrlE)
	require.True(t, h.m.EmailOpen())
}

func TestSend_StreamsIntoTranscript(t *testing.T) {
	h := newTUI(t, map[string]string{prefs.KeyEmail: "a@b.co"}, false)
	require.False(t, h.m.EmailOpen())

	h.typeText("I can't focus")
	cmd := h.press(tea.KeyEnter)
	require.NotNil(t, cmd)
	h.run(cmd)

	entries := h.m.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, model.RoleUser, entries[0].Role)
	require.Equal(t, "I can't focus", entries[0].Text)
	require.Equal(t, "Breathe **slowly**.", entries[1].Text)
	require.True(t, entries[1].Final)
	require.True(t, h.m.InputEnabled())
	require.Empty(t, h.m.input.Value(), "input cleared")
	require.Contains(t, h.m.View(), "1/10 free")
}

func TestSend_EmptyInputDoesNothing(t *testing.T) {
	h := newTUI(t, map[string]string{prefs.KeyEmail: "a@b.co"}, false)
	h.typeText("   ")
	require.Nil(t, h.press(tea.KeyEnter))
}

func TestLock_DisablesInputAndShowsUpgrade(t *testing.T) {
	h := newTUI(t, map[string]string{prefs.KeyEmail: "a@b.co", prefs.KeyMessageCount: "9"}, false)
	h.typeText("last free one")
	h.run(h.press(tea.KeyEnter))

	require.False(t, h.m.InputEnabled())
	view := h.m.View()
	require.Contains(t, view, "LOCKED")
	require.Contains(t, view, session.NoticeUpgrade)

	// Typing and Enter are ignored while locked.
	h.typeText("more")
	require.Nil(t, h.press(tea.KeyEnter))

	h.run(h.press(tea.KeyCtrlU))
	require.Equal(t, []string{session.DefaultConfig().UpgradeURL}, h.opened)
}

func TestTab_CyclesPersonality(t *testing.T) {
	h := newTUI(t, map[string]string{prefs.KeyEmail: "a@b.co"}, false)
	h.press(tea.KeyTab)
	require.Equal(t, "Motivator", h.ctrl.Personality())
	require.Contains(t, h.m.View(), "personality: Motivator")
}

func TestVerify_WithoutCheckerReportsFailure(t *testing.T) {
	h := newTUI(t, map[string]string{prefs.KeyEmail: "a@b.co"}, false)
	h.run(h.press(tea.KeyCtrlV))
	require.Contains(t, h.m.View(), "premium check failed")
}

func TestMarkdown_RendersFinalReply(t *testing.T) {
	h := newTUI(t, map[string]string{prefs.KeyEmail: "a@b.co"}, true)
	h.typeText("hi")
	h.run(h.press(tea.KeyEnter))

	view := h.m.viewport.View()
	require.Contains(t, view, "slowly")
	require.NotContains(t, view, "**slowly**")
}

func TestProgramSurface_PostsMessages(t *testing.T) {
	var got []tea.Msg
	s := NewFuncSurface(func(m tea.Msg) { got = append(got, m) })
	s.EntryAdded(model.Entry{ID: "x"})
	s.EntryAppended("x", "frag")
	s.SetInputEnabled(false)
	s.ClearInput()
	s.RequestEmail()
	s.ScrollToLatest()
	s.EntryFinalized(model.Entry{ID: "x"})

	require.Len(t, got, 7)
	require.Equal(t, EntryAppendedMsg{ID: "x", Fragment: "frag"}, got[1])
	require.Equal(t, InputEnabledMsg{Enabled: false}, got[2])
}
