// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage archives finished chat transcripts.
//
// Each conversation is one JSON file named by its UUID, written atomically.
// The archive is history only: quota and identity never come from here.
//
// # Usage
//
//	store, err := storage.NewConversationStore(cfg.Storage.HistoryDir, cfg.Storage.MaxConversations)
//	id, err := store.Save(model.NewConversation(personality, transcript.Entries()))
//	metas, err := store.List() // newest first
//	conv, err := store.Resolve("2")
package storage
