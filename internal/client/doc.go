// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client talks to the DailyMind service.
//
// Two calls are exposed:
//   - ChatStream posts {text, personality, email, is_free} and hands back the
//     still-open response body for incremental decoding
//   - CheckPremium posts {email} and returns the server's premium verdict
//
// A 403 from the chat endpoint is the server's own quota declaration and is
// returned as ErrQuotaExceeded regardless of the client's counter. Other
// non-2xx statuses become ErrServer, transport failures ErrConnection, and a
// connect or header wait beyond ConnectTimeout becomes ErrTimeout.
//
// The underlying http.Client carries no overall timeout; a reply may stream
// for as long as it keeps producing bytes. Idle detection belongs to the
// stream package.
package client
