// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the transcript types shared by the session
// controller, the terminal surfaces and the archive.
//
// # Key Types
//
//   - Entry: one line of the transcript (role, kind, text, finality)
//   - Transcript: the append-only, goroutine-safe sequence of entries for a
//     session, with a single in-flight assistant entry that grows by append
//   - Conversation: a finished transcript as written to the archive
//   - Role: user, assistant or system
//   - Kind: message, notice or upgrade affordance
//
// # Usage
//
//	t := model.NewTranscript()
//	t.Append(model.RoleUser, model.KindMessage, "hello")
//	e, _ := t.BeginAssistant()
//	_ = t.AppendTo(e.ID, "Hi")
//	_ = t.Finalize(e.ID)
package model
