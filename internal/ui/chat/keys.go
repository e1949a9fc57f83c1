// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat interface.
type KeyMap struct {
	Submit      key.Binding
	Personality key.Binding
	Email       key.Binding
	Verify      key.Binding
	Upgrade     key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Close       key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Personality: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "personality"),
		),
		Email: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "email"),
		),
		Verify: key.NewBinding(
			key.WithKeys("ctrl+v"),
			key.WithHelp("C-v", "verify premium"),
		),
		Upgrade: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("C-u", "upgrade"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Personality, k.Email, k.Verify, k.Upgrade, k.Quit}
}
