// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading DailyMind..."
	}

	header := m.theme.Header.Width(m.width).Render(
		m.theme.HeaderBrand.Render("DailyMind") + "  your daily mental wellness companion")

	inputStyle := m.theme.InputBorder
	if !m.inputEnabled {
		inputStyle = m.theme.InputDisabled
	}
	input := inputStyle.Width(max(m.width-2, 12)).Render(m.input.View())

	status := m.theme.StatusBar.Width(m.width).Render(m.statusLine())
	help := m.theme.Hint.Render(m.helpLine())

	body := m.viewport.View()
	if m.emailOpen {
		body = m.placeModal(m.emailView())
	}

	return strings.Join([]string{header, body, input, status, help}, "\n")
}

func (m Model) helpLine() string {
	bindings := m.keys.ShortHelp()
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, "  ")
}

func (m Model) emailView() string {
	var b strings.Builder
	b.WriteString(m.theme.ModalTitle.Render("Enter your email to start chatting"))
	b.WriteString("\n")
	b.WriteString(m.emailInput.View())
	b.WriteString("\n\n")
	if m.emailErr != "" {
		b.WriteString(m.theme.ModalError.Render(m.emailErr))
		b.WriteString("\n")
	}
	b.WriteString(m.theme.Hint.Render("Enter save · Esc close"))
	return m.theme.Modal.Render(b.String())
}

// placeModal centers the modal over the transcript area.
func (m Model) placeModal(modal string) string {
	return lipgloss.Place(m.viewport.Width, m.viewport.Height,
		lipgloss.Center, lipgloss.Center, modal)
}
