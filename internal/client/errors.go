// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package client

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeQuotaExceeded
	ErrTypeServer
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeInvalidResponse
)

func (t ErrorType) String() string {
	switch t {
	case ErrTypeQuotaExceeded:
		return "quota_exceeded"
	case ErrTypeServer:
		return "server"
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// ClientError represents an error from the DailyMind client.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Cause      error
}

func (e *ClientError) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is matches any ClientError of the same Type, so errors.Is(err,
// ErrQuotaExceeded) holds for every 403 whatever its message.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	return ok && t.Type == e.Type
}

// Sentinel errors for easy checking.
var (
	ErrQuotaExceeded = &ClientError{Type: ErrTypeQuotaExceeded, Message: "free limit reached"}
	ErrServer        = &ClientError{Type: ErrTypeServer, Message: "server error"}
	ErrConnection    = &ClientError{Type: ErrTypeConnection, Message: "connection failed"}
	ErrTimeout       = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// IsQuotaExceeded reports whether err is a server-declared quota denial.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// IsTimeout reports whether err is a connect or header timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsConnection reports whether the request never completed.
func IsConnection(err error) bool {
	return errors.Is(err, ErrConnection)
}

// IsServer reports whether the server answered with a non-403 failure.
func IsServer(err error) bool {
	return errors.Is(err, ErrServer)
}
