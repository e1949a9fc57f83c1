// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a finished session transcript as kept in the archive.
// It carries no identity or quota data.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Personality string    `json:"personality,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Entries     []Entry   `json:"entries"`
}

// NewConversation wraps entries in a conversation with a fresh ID.
func NewConversation(personality string, entries []Entry) *Conversation {
	now := time.Now()
	c := &Conversation{
		ID:          uuid.NewString(),
		Personality: personality,
		CreatedAt:   now,
		UpdatedAt:   now,
		Entries:     entries,
	}
	if len(entries) > 0 {
		c.CreatedAt = entries[0].Timestamp
	}
	c.updateTitle()
	return c
}

// MessageCount counts conversational entries, ignoring notices.
func (c *Conversation) MessageCount() int {
	n := 0
	for _, e := range c.Entries {
		if e.IsMessage() {
			n++
		}
	}
	return n
}

// IsEmpty reports whether the conversation holds no user or assistant text.
func (c *Conversation) IsEmpty() bool {
	return c.MessageCount() == 0
}

// updateTitle takes the title from the first user message if not set.
func (c *Conversation) updateTitle() {
	if c.Title != "" {
		return
	}
	for _, e := range c.Entries {
		if e.Role == RoleUser && e.IsMessage() {
			c.Title = e.Preview(50)
			return
		}
	}
}

// GetTitle returns the conversation title or a default.
func (c *Conversation) GetTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return "New Conversation"
}

// Preview returns a short preview taken from the last user message.
func (c *Conversation) Preview() string {
	for i := len(c.Entries) - 1; i >= 0; i-- {
		if e := c.Entries[i]; e.Role == RoleUser && e.IsMessage() {
			return e.Preview(100)
		}
	}
	if len(c.Entries) == 0 {
		return "Empty conversation"
	}
	return c.Entries[0].Preview(100)
}

// GetMeta returns metadata about the conversation.
func (c *Conversation) GetMeta() ConversationMeta {
	return ConversationMeta{
		ID:           c.ID,
		Title:        c.GetTitle(),
		Personality:  c.Personality,
		MessageCount: c.MessageCount(),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		Preview:      c.Preview(),
	}
}

// ConversationMeta holds lightweight metadata for listing.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Personality  string    `json:"personality,omitempty"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Preview      string    `json:"preview"`
}
