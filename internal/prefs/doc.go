// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prefs is the client-local key/value store that survives restarts.
//
// It holds three advisory keys: the captured email, the attempted-message
// counter and the cached premium hint. Nothing stored here is authoritative
// for entitlement; the identity package reconciles it against the server.
//
// Three backends implement Store:
//   - MemoryStore: process lifetime only, used by tests and --ephemeral runs
//   - FileStore: one JSON object on disk, rewritten atomically on every change
//   - SQLiteStore: a single kv table in a modernc.org/sqlite database
//
// There are no transactions across keys. A crash between two Set calls leaves
// the first write visible and the second missing, and callers must cope.
package prefs
