// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the slog loggers used by the client and the server.
//
// The client owns the terminal, so its records go to a log file as text. The
// server writes JSON to stdout. Loggers travel on a context.Context.
package logging
