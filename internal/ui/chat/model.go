// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dailymind/dailymind-tui/internal/identity"
	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/quota"
	"github.com/dailymind/dailymind-tui/internal/session"
	"github.com/dailymind/dailymind-tui/internal/ui/styles"
	"github.com/dailymind/dailymind-tui/internal/util"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Controller *session.Controller
	Theme      *styles.Theme

	// RenderMarkdown renders finished replies through glamour
	RenderMarkdown bool

	// OpenURL opens the upgrade page. Nil only shows the URL.
	OpenURL func(url string) error

	// Context bounds sends and verifications. Defaults to Background.
	Context context.Context
}

// InvalidEmailText is shown in the capture modal for a rejected address.
const InvalidEmailText = "Please enter a valid email"

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	ctrl    *session.Controller
	theme   *styles.Theme
	keys    KeyMap
	ctx     context.Context
	openURL func(string) error

	// Rendered copy of the transcript, fed by surface messages
	entries []model.Entry
	index   map[string]int
	md      *markdown

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	inputEnabled bool
	streaming    bool
	verifying    bool
	follow       bool

	// Email capture modal
	emailOpen   bool
	emailInput  textinput.Model
	emailErr    string
	emailSaving bool

	status string
	width  int
	height int
	ready  bool
}

// New creates a chat model bound to opts.Controller.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(styles.ThemeDark)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	in := textinput.New()
	in.Placeholder = "Type a message..."
	in.Prompt = "❯ "
	in.CharLimit = 4000

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.Prompt = "📧 "
	email.CharLimit = 254

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctrl:       opts.Controller,
		theme:      theme,
		keys:       DefaultKeyMap(),
		ctx:        ctx,
		openURL:    opts.OpenURL,
		index:      make(map[string]int),
		md:         newMarkdown(theme, opts.RenderMarkdown),
		viewport:   viewport.New(80, 20),
		input:      in,
		spinner:    sp,
		follow:     true,
		emailInput: email,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// Entries returns the rendered copy of the transcript.
func (m Model) Entries() []model.Entry {
	return append([]model.Entry(nil), m.entries...)
}

// InputEnabled reports whether typing is accepted.
func (m Model) InputEnabled() bool { return m.inputEnabled }

// EmailOpen reports whether the capture modal is showing.
func (m Model) EmailOpen() bool { return m.emailOpen }

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// Surface calls
	case EntryAddedMsg:
		m.index[msg.Entry.ID] = len(m.entries)
		m.entries = append(m.entries, msg.Entry)
		if msg.Entry.Role == model.RoleAssistant && !msg.Entry.Final {
			m.streaming = true
		}
		m.refresh()
		return m, nil

	case EntryAppendedMsg:
		if i, ok := m.index[msg.ID]; ok {
			m.entries[i].Text += msg.Fragment
			m.refresh()
		}
		return m, nil

	case EntryFinalizedMsg:
		if i, ok := m.index[msg.Entry.ID]; ok {
			m.entries[i] = msg.Entry
		}
		m.streaming = false
		m.refresh()
		return m, nil

	case ScrollMsg:
		m.follow = true
		m.viewport.GotoBottom()
		return m, nil

	case InputEnabledMsg:
		m.setInputEnabled(msg.Enabled)
		return m, nil

	case ClearInputMsg:
		m.input.Reset()
		return m, nil

	case RequestEmailMsg:
		m.openEmail()
		return m, textinput.Blink

	// Command results
	case SendDoneMsg:
		m.streaming = false
		m.status = outcomeStatus(msg.Outcome)
		return m, nil

	case EmailSavedMsg:
		m.emailSaving = false
		if msg.Err != nil {
			if errors.Is(msg.Err, identity.ErrInvalidEmail) {
				m.emailErr = InvalidEmailText
			} else {
				m.emailErr = msg.Err.Error()
			}
			return m, nil
		}
		m.closeEmail()
		m.status = "signed in as " + util.MaskEmail(msg.Email)
		return m, nil

	case VerifyDoneMsg:
		m.verifying = false
		switch {
		case msg.Err != nil:
			m.status = "premium check failed"
		case msg.Outcome == identity.Confirmed:
			m.status = "premium active"
		default:
			m.status = "payment not confirmed"
		}
		return m, nil

	case UpgradeOpenedMsg:
		if msg.Err != nil {
			m.status = "open " + msg.URL + " in your browser"
		} else {
			m.status = "upgrade page opened"
		}
		return m, nil

	case StatusMsg:
		m.status = string(msg)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.streaming {
			m.refresh()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.emailOpen {
		return m.handleEmailKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		if !m.inputEnabled {
			return m, nil
		}
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		return m, m.sendCmd(text)

	case key.Matches(msg, m.keys.Personality):
		m.status = "personality: " + m.ctrl.CyclePersonality()
		return m, nil

	case key.Matches(msg, m.keys.Email):
		m.openEmail()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Verify):
		if m.verifying {
			return m, nil
		}
		m.verifying = true
		m.status = "checking premium..."
		return m, m.verifyCmd()

	case key.Matches(msg, m.keys.Upgrade):
		return m, m.upgradeCmd()

	case key.Matches(msg, m.keys.PageUp):
		m.follow = false
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		m.follow = m.viewport.AtBottom()
		return m, nil
	}

	if !m.inputEnabled {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEmailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.closeEmail()
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		if m.emailSaving {
			return m, nil
		}
		m.emailSaving = true
		return m, m.saveEmailCmd(m.emailInput.Value())
	}

	var cmd tea.Cmd
	m.emailInput, cmd = m.emailInput.Update(msg)
	m.emailErr = ""
	return m, cmd
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) sendCmd(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		return SendDoneMsg{Outcome: ctrl.Send(ctx, text)}
	}
}

// saveEmailCmd stores the address off the event loop. SaveEmail appends a
// notice through the surface, which blocks until Update returns.
func (m Model) saveEmailCmd(value string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		email, err := ctrl.SaveEmail(value)
		return EmailSavedMsg{Email: email, Err: err}
	}
}

func (m Model) verifyCmd() tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		out, err := ctrl.VerifyPremium(ctx)
		return VerifyDoneMsg{Outcome: out, Err: err}
	}
}

func (m Model) upgradeCmd() tea.Cmd {
	url := m.ctrl.UpgradeURL()
	open := m.openURL
	return func() tea.Msg {
		if open == nil {
			return UpgradeOpenedMsg{URL: url, Err: errors.New("no opener")}
		}
		return UpgradeOpenedMsg{URL: url, Err: open(url)}
	}
}

// =============================================================================
// STATE HELPERS
// =============================================================================

func (m *Model) setInputEnabled(enabled bool) {
	m.inputEnabled = enabled
	if enabled && !m.emailOpen {
		m.input.Focus()
		m.input.Placeholder = "Type a message..."
		return
	}
	m.input.Blur()
	if !enabled {
		if m.ctrl != nil && m.ctrl.Status().Lock == quota.Locked {
			m.input.Placeholder = "Free limit reached"
		} else {
			m.input.Placeholder = "Waiting for reply..."
		}
	}
}

func (m *Model) openEmail() {
	m.emailOpen = true
	m.emailErr = ""
	m.emailInput.SetValue(m.ctrl.Status().Email)
	m.emailInput.CursorEnd()
	m.emailInput.Focus()
	m.input.Blur()
}

func (m *Model) closeEmail() {
	m.emailOpen = false
	m.emailErr = ""
	m.emailInput.Blur()
	if m.inputEnabled {
		m.input.Focus()
	}
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)

	// header 1, status 1, input 3, help 1
	vh := height - 6
	if vh < 3 {
		vh = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vh
	m.input.Width = max(width-6, 10)
	m.emailInput.Width = min(max(width-20, 20), 48)
	m.md.setWidth(max(width-4, 20))
	m.ready = true
	m.refresh()
}

// refresh re-renders the transcript into the viewport.
func (m *Model) refresh() {
	width := m.viewport.Width - 2
	parts := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		cursor := e.Role == model.RoleAssistant && !e.Final
		parts = append(parts, renderEntry(m.theme, m.md, e, width, cursor))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	if m.follow {
		m.viewport.GotoBottom()
	}
}

func outcomeStatus(o session.Outcome) string {
	switch o {
	case session.OutcomeBusy:
		return "still replying..."
	case session.OutcomeNeedEmail:
		return "email required"
	case session.OutcomeLocked, session.OutcomeServerLocked:
		return "free limit reached"
	case session.OutcomeFailed:
		return "send failed"
	default:
		return ""
	}
}

// statusLine renders counts, premium and lock state.
func (m Model) statusLine() string {
	st := m.ctrl.Status()
	parts := []string{m.theme.StatusKey.Render(st.Personality)}

	switch {
	case st.Premium:
		parts = append(parts, m.theme.PremiumBadge.Render("PREMIUM"))
	case st.Lock == quota.Locked:
		parts = append(parts, m.theme.LockBadge.Render("LOCKED"))
	default:
		line := fmt.Sprintf("%d/%d free", st.Count, st.Limit)
		if st.Remaining <= 2 {
			parts = append(parts, m.theme.QuotaLow.Render(line))
		} else {
			parts = append(parts, m.theme.QuotaOK.Render(line))
		}
	}

	if st.Email != "" {
		parts = append(parts, util.MaskEmail(st.Email))
	}
	if m.streaming {
		parts = append(parts, m.spinner.View()+" replying")
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " · ")
}
