// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "github.com/dailymind/dailymind-tui/internal/model"

// Surface is what the controller needs from a user interface.
type Surface interface {
	// EntryAdded shows a new transcript entry.
	EntryAdded(e model.Entry)
	// EntryAppended grows the open assistant entry id by fragment.
	EntryAppended(id, fragment string)
	// EntryFinalized marks entry e immutable with its final text.
	EntryFinalized(e model.Entry)
	// ScrollToLatest keeps the newest text in view.
	ScrollToLatest()
	// SetInputEnabled enables or disables typing and sending.
	SetInputEnabled(enabled bool)
	// ClearInput empties the input field after a message is accepted.
	ClearInput()
	// RequestEmail opens the email capture flow.
	RequestEmail()
}

// NopSurface ignores every call.
type NopSurface struct{}

func (NopSurface) EntryAdded(model.Entry)       {}
func (NopSurface) EntryAppended(string, string) {}
func (NopSurface) EntryFinalized(model.Entry)   {}
func (NopSurface) ScrollToLatest()              {}
func (NopSurface) SetInputEnabled(bool)         {}
func (NopSurface) ClearInput()                  {}
func (NopSurface) RequestEmail()                {}
