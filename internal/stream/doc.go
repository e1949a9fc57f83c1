// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream turns a chunked HTTP reply body into text fragments as the
// bytes arrive.
//
// A Consumer is single use: one per dispatched message. It moves
// Idle -> Streaming -> Completed or Failed and never back. Decoding uses the
// charset declared in the response Content-Type (UTF-8 when absent or
// unknown) through a golang.org/x/text transformer, which carries incomplete
// multi-byte sequences from one read into the next. Fragments therefore never
// contain half a character, and their concatenation equals decoding the whole
// body at once.
//
// Each blocking read is bounded by an idle timeout. When no bytes arrive in
// time the body is closed and Consume fails with ErrIdleTimeout; fragments
// already delivered stay delivered.
package stream
