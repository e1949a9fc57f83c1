// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/util"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// DefaultMaxConversations is used when no limit is configured.
const DefaultMaxConversations = 100

// ConversationStore keeps finished transcripts as one JSON file each.
type ConversationStore struct {
	// BaseDir is the directory for storing conversations
	BaseDir string

	// MaxConversations limits stored conversations (0 = unlimited)
	MaxConversations int
}

// NewConversationStore creates the directory if needed.
func NewConversationStore(baseDir string, maxConversations int) (*ConversationStore, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("conversation store: empty directory")
	}
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	if maxConversations < 0 {
		maxConversations = 0
	}
	return &ConversationStore{BaseDir: baseDir, MaxConversations: maxConversations}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists conv and returns its ID. Conversations without user or
// assistant text are not written and yield an empty ID.
func (s *ConversationStore) Save(conv *model.Conversation) (string, error) {
	if conv == nil || conv.IsEmpty() {
		return "", nil
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}
	if conv.Title == "" {
		conv.Title = conv.GetTitle()
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode conversation: %w", err)
	}
	if err := util.AtomicWriteFile(s.filePath(conv.ID), data, 0600); err != nil {
		return "", fmt.Errorf("write conversation: %w", err)
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}
	return conv.ID, nil
}

// enforceLimit removes the oldest conversations beyond MaxConversations.
func (s *ConversationStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}
	// List is newest first.
	for _, m := range metas[s.MaxConversations:] {
		_ = s.Delete(m.ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation by ID.
func (s *ConversationStore) Load(id string) (*model.Conversation, error) {
	if !validID(id) {
		return nil, ErrConversationNotFound
	}
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", id, err)
	}
	return &conv, nil
}

// LoadByIndex loads a conversation by its index in the list (0 = most recent).
func (s *ConversationStore) LoadByIndex(index int) (*model.Conversation, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metas) {
		return nil, ErrConversationNotFound
	}
	return s.Load(metas[index].ID)
}

// Resolve accepts a full ID, a unique ID prefix, or a 1-based list index.
func (s *ConversationStore) Resolve(ref string) (*model.Conversation, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, ErrConversationNotFound
	}
	if n, err := strconv.Atoi(ref); err == nil && len(ref) < 6 {
		return s.LoadByIndex(n - 1)
	}
	if validID(ref) {
		return s.Load(ref)
	}

	metas, err := s.List()
	if err != nil {
		return nil, err
	}
	var match string
	for _, m := range metas {
		if strings.HasPrefix(m.ID, ref) {
			if match != "" {
				return nil, &ConversationError{Message: fmt.Sprintf("ambiguous conversation id %q", ref)}
			}
			match = m.ID
		}
	}
	if match == "" {
		return nil, ErrConversationNotFound
	}
	return s.Load(match)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all saved conversations (most recent first).
func (s *ConversationStore) List() ([]model.ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.ConversationMeta{}, nil
		}
		return nil, err
	}

	metas := make([]model.ConversationMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		conv, err := s.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue // Skip corrupted files
		}
		metas = append(metas, conv.GetMeta())
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Search finds conversations whose title or preview contains query.
func (s *ConversationStore) Search(query string) ([]model.ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	query = strings.ToLower(query)
	var results []model.ConversationMeta
	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation by ID.
func (s *ConversationStore) Delete(id string) error {
	if !validID(id) {
		return ErrConversationNotFound
	}
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved conversations.
func (s *ConversationStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func (s *ConversationStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// validID keeps IDs from escaping BaseDir.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
