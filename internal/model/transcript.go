// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrEntryNotFound is returned for an unknown entry ID.
	ErrEntryNotFound = errors.New("transcript entry not found")
	// ErrEntryFinal is returned when appending to an immutable entry.
	ErrEntryFinal = errors.New("transcript entry is final")
	// ErrStreamOpen is returned by BeginAssistant while another assistant
	// entry is still in flight.
	ErrStreamOpen = errors.New("an assistant entry is already streaming")
)

// Transcript is the ordered, append-only list of entries for one session.
// At most one assistant entry is open at a time; its text accumulates in a
// strings.Builder and is only materialised on read or finalize.
type Transcript struct {
	mu      sync.RWMutex
	entries []*Entry

	open    *Entry
	openBuf strings.Builder
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{entries: make([]*Entry, 0, 32)}
}

// Append adds a final entry and returns a copy of it.
func (t *Transcript) Append(role Role, kind Kind, text string) Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := newEntry(role, kind, text, true)
	t.push(e)
	return *e
}

// BeginAssistant creates the empty, mutable assistant entry for a stream.
func (t *Transcript) BeginAssistant() (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open != nil {
		return Entry{}, ErrStreamOpen
	}
	e := newEntry(RoleAssistant, KindMessage, "", false)
	t.open = e
	t.openBuf.Reset()
	t.push(e)
	return *e, nil
}

// AppendTo grows the open entry id by fragment.
func (t *Transcript) AppendTo(id, fragment string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open == nil || t.open.ID != id {
		if t.find(id) != nil {
			return ErrEntryFinal
		}
		return ErrEntryNotFound
	}
	t.openBuf.WriteString(fragment)
	return nil
}

// Finalize freezes the open entry id with whatever text it has so far.
// Finalizing an entry that is already final is a no-op.
func (t *Transcript) Finalize(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.open == nil || t.open.ID != id {
		if t.find(id) != nil {
			return nil
		}
		return ErrEntryNotFound
	}
	t.open.Text = t.openBuf.String()
	t.open.Final = true
	t.open = nil
	t.openBuf.Reset()
	return nil
}

// Entries returns a copy of every entry in order.
func (t *Transcript) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Entry, len(t.entries))
	for i, e := range t.entries {
		out[i] = t.copyOf(e)
	}
	return out
}

// Get returns a copy of entry id.
func (t *Transcript) Get(id string) (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e := t.find(id)
	if e == nil {
		return Entry{}, false
	}
	return t.copyOf(e), true
}

// Last returns the most recent entry.
func (t *Transcript) Last() (Entry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.entries) == 0 {
		return Entry{}, false
	}
	return t.copyOf(t.entries[len(t.entries)-1]), true
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// CountKind returns how many entries have kind k.
func (t *Transcript) CountKind(k Kind) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, e := range t.entries {
		if e.Kind == k {
			n++
		}
	}
	return n
}

// Streaming reports whether an assistant entry is open.
func (t *Transcript) Streaming() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.open != nil
}

// push appends e. Entries are never removed.
func (t *Transcript) push(e *Entry) {
	t.entries = append(t.entries, e)
}

func (t *Transcript) find(id string) *Entry {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].ID == id {
			return t.entries[i]
		}
	}
	return nil
}

func (t *Transcript) copyOf(e *Entry) Entry {
	c := *e
	if e == t.open {
		c.Text = t.openBuf.String()
	}
	return c
}
