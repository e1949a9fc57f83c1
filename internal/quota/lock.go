// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package quota

import "sync"

// LockState is the input lock.
type LockState int

const (
	Unlocked LockState = iota
	Locked
)

func (l LockState) String() string {
	if l == Locked {
		return "locked"
	}
	return "unlocked"
}

// Reason records what caused the lock.
type Reason string

const (
	ReasonNone   Reason = ""
	ReasonLocal  Reason = "local"
	ReasonServer Reason = "server"
)

// Lock is the session lock. The zero value is Unlocked and ready to use.
type Lock struct {
	mu     sync.Mutex
	state  LockState
	reason Reason
}

// Engage moves the lock to Locked. It returns true only when this call made
// the transition, so side effects hang off a true result.
func (l *Lock) Engage(reason Reason) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Locked {
		return false
	}
	l.state = Locked
	l.reason = reason
	return true
}

// Release returns the lock to Unlocked after premium confirmation. It returns
// true if the lock was engaged.
func (l *Lock) Release() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Unlocked {
		return false
	}
	l.state = Unlocked
	l.reason = ReasonNone
	return true
}

// State returns the current lock state.
func (l *Lock) State() LockState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Reason returns why the lock is engaged, or ReasonNone.
func (l *Lock) Reason() Reason {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reason
}

// IsLocked reports whether the lock is engaged.
func (l *Lock) IsLocked() bool {
	return l.State() == Locked
}
