// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/session"
	"github.com/dailymind/dailymind-tui/internal/ui/styles"
)

// markdown renders completed assistant replies, caching by entry ID.
type markdown struct {
	enabled  bool
	style    string
	width    int
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdown(theme *styles.Theme, enabled bool) *markdown {
	style := "dark"
	switch {
	case theme.Plain():
		style = "notty"
	case !theme.IsDark:
		style = "light"
	}
	return &markdown{enabled: enabled, style: style, cache: make(map[string]string)}
}

// setWidth rebuilds the renderer when the wrap width changes.
func (m *markdown) setWidth(width int) {
	if !m.enabled || width == m.width || width <= 0 {
		return
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.enabled = false
		return
	}
	m.width = width
	m.renderer = r
	m.cache = make(map[string]string)
}

// render returns the glamour output for e, or "" when markdown is off.
func (m *markdown) render(e model.Entry) string {
	if !m.enabled || m.renderer == nil {
		return ""
	}
	if out, ok := m.cache[e.ID]; ok {
		return out
	}
	out, err := m.renderer.Render(e.Text)
	if err != nil {
		return ""
	}
	out = strings.Trim(out, "\n")
	m.cache[e.ID] = out
	return out
}

// renderEntry formats a single transcript entry for the viewport.
func renderEntry(theme *styles.Theme, md *markdown, e model.Entry, width int, cursor bool) string {
	wrap := lipgloss.NewStyle().Width(max(width, 20))

	switch e.Kind {
	case model.KindUpgrade:
		return theme.Upgrade.Render(e.Text) + "\n" + theme.Hint.Render("press Ctrl+U to open the upgrade page, Ctrl+V once paid")
	case model.KindNotice:
		return wrap.Render(noticeStyle(theme, e.Text).Render(e.Text))
	}

	label := theme.UserLabel.Render(e.Role.DisplayName())
	textStyle := theme.UserText
	if e.Role == model.RoleAssistant {
		label = theme.AssistantLabel.Render(e.Role.DisplayName())
		textStyle = theme.AssistantText
	}
	header := label + " " + theme.Timestamp.Render(e.Timestamp.Format("15:04"))

	body := ""
	if e.Role == model.RoleAssistant && e.Final {
		body = md.render(e)
	}
	if body == "" {
		text := e.Text
		if cursor {
			text += theme.Cursor.Render("▍")
		}
		body = wrap.Render(textStyle.Render(text))
	}
	return header + "\n" + body
}

func noticeStyle(theme *styles.Theme, text string) lipgloss.Style {
	switch text {
	case session.NoticeLocked:
		return theme.LockNotice
	case session.NoticeServerError, session.NoticeConnectionError, session.NoticeTimeout, session.NoticeInterrupted:
		return theme.ErrorNotice
	default:
		return theme.Notice
	}
}
