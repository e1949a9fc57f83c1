// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"

	"github.com/dailymind/dailymind-tui/internal/client"
	"github.com/dailymind/dailymind-tui/internal/stream"
)

// Transcript notices. The lock pair is what the lock transition appends.
const (
	NoticeLocked          = "🔒 Free limit reached. Upgrade to Premium to continue chatting."
	NoticeUpgrade         = "🚀 Upgrade to Premium"
	NoticeEmailRequired   = "📧 Please enter your email to start chatting."
	NoticeEmailSaved      = "Email saved. You can start chatting."
	NoticePremiumUnlocked = "🎉 Premium unlocked!"
	NoticeNotConfirmed    = "Payment not confirmed yet. Please try again."
	NoticeServerError     = "⚠️ Server error. Please try again."
	NoticeConnectionError = "⚠️ Connection error. Check your network and try again."
	NoticeTimeout         = "⚠️ The server took too long to respond. Please try again."
	NoticeInterrupted     = "⚠️ The reply was interrupted. Please resend your message."
)

// noticeFor maps a dispatch or stream failure to its transcript notice.
func noticeFor(err error) string {
	switch {
	case client.IsTimeout(err), errors.Is(err, stream.ErrIdleTimeout), errors.Is(err, context.DeadlineExceeded):
		return NoticeTimeout
	case client.IsConnection(err):
		return NoticeConnectionError
	case client.IsServer(err):
		return NoticeServerError
	default:
		return NoticeInterrupted
	}
}
