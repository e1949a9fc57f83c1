// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/dailymind/dailymind-tui/internal/identity"
	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/session"
)

// =============================================================================
// SURFACE MESSAGES
// =============================================================================

// EntryAddedMsg carries a new transcript entry.
type EntryAddedMsg struct{ Entry model.Entry }

// EntryAppendedMsg carries a fragment for an open assistant entry.
type EntryAppendedMsg struct {
	ID       string
	Fragment string
}

// EntryFinalizedMsg carries the completed assistant entry.
type EntryFinalizedMsg struct{ Entry model.Entry }

// ScrollMsg asks the viewport to follow the latest entry.
type ScrollMsg struct{}

// InputEnabledMsg toggles the input field.
type InputEnabledMsg struct{ Enabled bool }

// ClearInputMsg empties the input field.
type ClearInputMsg struct{}

// RequestEmailMsg opens the email capture modal.
type RequestEmailMsg struct{}

// =============================================================================
// COMMAND RESULTS
// =============================================================================

// SendDoneMsg reports the outcome of a send.
type SendDoneMsg struct{ Outcome session.Outcome }

// EmailSavedMsg reports the result of saving the email address.
type EmailSavedMsg struct {
	Email string
	Err   error
}

// VerifyDoneMsg reports a premium verification.
type VerifyDoneMsg struct {
	Outcome identity.VerifyOutcome
	Err     error
}

// UpgradeOpenedMsg reports the result of opening the upgrade page.
type UpgradeOpenedMsg struct {
	URL string
	Err error
}

// StatusMsg sets a transient footer message.
type StatusMsg string
