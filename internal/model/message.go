// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/dailymind/dailymind-tui/internal/util"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents who produced an entry.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns the label shown in front of an entry.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "DailyMind"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// =============================================================================
// KIND TYPE
// =============================================================================

// Kind separates conversational messages from controller-generated lines.
type Kind string

const (
	// KindMessage is user input or an assistant reply.
	KindMessage Kind = "message"
	// KindNotice is an informational or error line from the controller.
	KindNotice Kind = "notice"
	// KindUpgrade is the upgrade affordance rendered by the lock transition.
	KindUpgrade Kind = "upgrade"
)

// =============================================================================
// ENTRY TYPE
// =============================================================================

// Entry is one transcript line. Entries handed out by Transcript are copies;
// mutating them does not affect the transcript.
type Entry struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Kind      Kind      `json:"kind"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	// Final is false only for the assistant entry of a stream in flight.
	Final bool `json:"final"`
}

func newEntry(role Role, kind Kind, text string, final bool) *Entry {
	return &Entry{
		ID:        uuid.NewString(),
		Role:      role,
		Kind:      kind,
		Text:      text,
		Timestamp: time.Now(),
		Final:     final,
	}
}

// IsMessage reports whether e is conversational content.
func (e Entry) IsMessage() bool {
	return e.Kind == KindMessage
}

// Preview returns the entry text truncated to maxLen runes.
func (e Entry) Preview(maxLen int) string {
	return util.TruncateRunes(e.Text, maxLen)
}
