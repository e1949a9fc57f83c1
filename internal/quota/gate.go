// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package quota

import "fmt"

// DefaultLimit is the free message allowance.
const DefaultLimit = 10

// Decision is the gate's answer.
type Decision int

const (
	Allowed Decision = iota
	Denied
)

func (d Decision) String() string {
	switch d {
	case Allowed:
		return "allowed"
	case Denied:
		return "denied"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// State is the attempted-message counter against a fixed limit.
type State struct {
	Count int
	Limit int
}

// NewState returns a counter with the given limit. A non-positive limit falls
// back to DefaultLimit and a negative count is clamped to zero.
func NewState(count, limit int) State {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if count < 0 {
		count = 0
	}
	return State{Count: count, Limit: limit}
}

// Increment returns s with one more attempted message.
func (s State) Increment() State {
	s.Count++
	return s
}

// Reset returns s with the counter at zero. Only premium confirmation resets.
func (s State) Reset() State {
	s.Count = 0
	return s
}

// Remaining returns how many free messages are left, never negative.
func (s State) Remaining() int {
	if r := s.Limit - s.Count; r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether the counter has reached the limit.
func (s State) Exhausted() bool {
	return s.Count >= s.Limit
}

// MayProceed denies iff the user is not premium and the counter has reached
// the limit. premium is the effective flag: authoritative once a server check
// has completed, the cached hint before that.
func MayProceed(s State, premium bool) Decision {
	if !premium && s.Exhausted() {
		return Denied
	}
	return Allowed
}
