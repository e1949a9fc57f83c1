// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "fmt"

// Outcome is the result of one Send.
type Outcome int

const (
	// OutcomeIgnored: the input was empty after trimming.
	OutcomeIgnored Outcome = iota
	// OutcomeBusy: a previous reply is still streaming.
	OutcomeBusy
	// OutcomeNeedEmail: no email yet; the capture flow was opened.
	OutcomeNeedEmail
	// OutcomeLocked: the gate denied the send before dispatch.
	OutcomeLocked
	// OutcomeServerLocked: the server answered 403 and the session locked.
	OutcomeServerLocked
	// OutcomeFailed: dispatched but the request or the stream failed.
	OutcomeFailed
	// OutcomeSent: the reply streamed to completion.
	OutcomeSent
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeBusy:
		return "busy"
	case OutcomeNeedEmail:
		return "need_email"
	case OutcomeLocked:
		return "locked"
	case OutcomeServerLocked:
		return "server_locked"
	case OutcomeFailed:
		return "failed"
	case OutcomeSent:
		return "sent"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Dispatched reports whether the message reached the network.
func (o Outcome) Dispatched() bool {
	return o == OutcomeServerLocked || o == OutcomeFailed || o == OutcomeSent
}

// Phase guards against overlapping sends.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
)

func (p Phase) String() string {
	if p == PhaseStreaming {
		return "streaming"
	}
	return "idle"
}
