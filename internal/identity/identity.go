// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	// ErrMissingIdentity blocks a send until an email is captured.
	ErrMissingIdentity = errors.New("email required")
	// ErrInvalidEmail rejects an address at capture time.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrEntitlementCheck wraps any failure of the premium check. The caller
	// should offer a retry.
	ErrEntitlementCheck = errors.New("payment not confirmed yet")
)

// PremiumSource says where EffectivePremium got its answer.
type PremiumSource string

const (
	SourceCache  PremiumSource = "cache"
	SourceServer PremiumSource = "server"
)

// Identity is a point-in-time view of who the user is.
type Identity struct {
	Email string

	// PremiumHint is the persisted isPremium value. Advisory only.
	PremiumHint bool

	// PremiumServer is the last completed server verdict. Meaningful only
	// when Verified is true.
	PremiumServer bool

	// Verified is true once a premium check has completed this session.
	Verified bool
}

// HasEmail reports whether an email has been captured.
func (i Identity) HasEmail() bool {
	return i.Email != ""
}

// EffectivePremium is the flag the quota gate reads.
func (i Identity) EffectivePremium() bool {
	if i.Verified {
		return i.PremiumServer
	}
	return i.PremiumHint
}

// Source reports which value EffectivePremium used.
func (i Identity) Source() PremiumSource {
	if i.Verified {
		return SourceServer
	}
	return SourceCache
}

// NormalizeEmail trims and lower-cases raw and checks it is a bare address.
// Display names ("Jane <jane@x.io>") are rejected so that the stored key is
// exactly what the server will look up.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidEmail)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, raw)
	}
	return email, nil
}
