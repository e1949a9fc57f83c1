// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dailymind/dailymind-tui/internal/prefs"
	"github.com/dailymind/dailymind-tui/internal/util"
)

// EntitlementChecker asks the service whether an email is premium.
type EntitlementChecker interface {
	CheckPremium(ctx context.Context, email string) (bool, error)
}

// VerifyOutcome is the user-facing result of a premium check.
type VerifyOutcome int

const (
	// NotConfirmed covers both a negative answer and a failed check.
	NotConfirmed VerifyOutcome = iota
	// Confirmed means the server granted premium.
	Confirmed
)

func (o VerifyOutcome) String() string {
	if o == Confirmed {
		return "confirmed"
	}
	return "not_confirmed"
}

// Manager reads and writes the identity keys of a prefs.Store.
type Manager struct {
	store   prefs.Store
	checker EntitlementChecker
	logger  *slog.Logger

	mu sync.Mutex
	id Identity
}

// NewManager wires a manager. Load must be called before use.
func NewManager(store prefs.Store, checker EntitlementChecker, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{store: store, checker: checker, logger: logger}
}

// Load reads the cached email and premium hint. A stored email that no
// longer validates is ignored, so the capture flow runs again.
func (m *Manager) Load() (Identity, error) {
	email, _, err := m.store.Get(prefs.KeyEmail)
	if err != nil {
		return Identity{}, fmt.Errorf("load email: %w", err)
	}
	hint, err := prefs.GetBool(m.store, prefs.KeyIsPremium)
	if err != nil {
		return Identity{}, fmt.Errorf("load premium hint: %w", err)
	}
	if email != "" {
		if normalized, nerr := NormalizeEmail(email); nerr == nil {
			email = normalized
		} else {
			m.logger.Warn("ignoring stored email that does not validate")
			email = ""
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = Identity{Email: email, PremiumHint: hint}
	m.logger.Debug("identity loaded", "email", util.MaskEmail(email), "premium_hint", hint)
	return m.id, nil
}

// Current returns the in-memory identity.
func (m *Manager) Current() Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// RequireEmail returns the email or ErrMissingIdentity.
func (m *Manager) RequireEmail() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.id.Email == "" {
		return "", ErrMissingIdentity
	}
	return m.id.Email, nil
}

// SaveEmail validates, persists and adopts raw. The normalised form is
// returned.
func (m *Manager) SaveEmail(raw string) (string, error) {
	email, err := NormalizeEmail(raw)
	if err != nil {
		return "", err
	}
	if err := m.store.Set(prefs.KeyEmail, email); err != nil {
		return "", fmt.Errorf("save email: %w", err)
	}
	m.mu.Lock()
	m.id.Email = email
	m.mu.Unlock()
	m.logger.Info("email saved", "email", util.MaskEmail(email))
	return email, nil
}

// EffectivePremium returns the flag the quota gate should read.
func (m *Manager) EffectivePremium() bool {
	return m.Current().EffectivePremium()
}

// Verify runs the premium check for the current email.
//
// On {premium: true} the server flag is set, isPremium is persisted and the
// stored counter is removed. On {premium: false} the server flag becomes
// authoritative false unless a true verdict already exists this session.
// On any failure nothing changes and the error wraps ErrEntitlementCheck.
func (m *Manager) Verify(ctx context.Context) (VerifyOutcome, error) {
	email, err := m.RequireEmail()
	if err != nil {
		return NotConfirmed, err
	}
	if m.checker == nil {
		return NotConfirmed, fmt.Errorf("%w: no entitlement service configured", ErrEntitlementCheck)
	}

	premium, err := m.checker.CheckPremium(ctx, email)
	if err != nil {
		m.logger.Warn("premium check failed", "error", err)
		return NotConfirmed, fmt.Errorf("%w: %w", ErrEntitlementCheck, err)
	}

	if premium {
		m.mu.Lock()
		m.id.Verified = true
		m.id.PremiumServer = true
		m.id.PremiumHint = true
		m.mu.Unlock()

		if err := prefs.SetBool(m.store, prefs.KeyIsPremium, true); err != nil {
			m.logger.Warn("persist premium flag", "error", err)
		}
		if err := m.store.Remove(prefs.KeyMessageCount); err != nil {
			m.logger.Warn("clear message count", "error", err)
		}
		m.logger.Info("premium confirmed", "email", util.MaskEmail(email))
		return Confirmed, nil
	}

	m.mu.Lock()
	alreadyPremium := m.id.Verified && m.id.PremiumServer
	if !alreadyPremium {
		m.id.Verified = true
		m.id.PremiumServer = false
		m.id.PremiumHint = false
	}
	m.mu.Unlock()

	if !alreadyPremium {
		if err := prefs.SetBool(m.store, prefs.KeyIsPremium, false); err != nil {
			m.logger.Warn("persist premium flag", "error", err)
		}
	}
	m.logger.Info("premium not confirmed", "email", util.MaskEmail(email))
	return NotConfirmed, nil
}

// =============================================================================
// COUNTER PERSISTENCE
// =============================================================================

// LoadCount reads the persisted attempted-message counter, zero if absent.
func (m *Manager) LoadCount() (int, error) {
	n, _, err := prefs.GetInt(m.store, prefs.KeyMessageCount)
	if err != nil {
		return 0, fmt.Errorf("load message count: %w", err)
	}
	return n, nil
}

// SaveCount persists the attempted-message counter.
func (m *Manager) SaveCount(n int) error {
	if err := prefs.SetInt(m.store, prefs.KeyMessageCount, n); err != nil {
		return fmt.Errorf("save message count: %w", err)
	}
	return nil
}

// Forget removes every persisted identity key and resets the in-memory view.
func (m *Manager) Forget() error {
	if err := prefs.Reset(m.store); err != nil {
		return err
	}
	m.mu.Lock()
	m.id = Identity{}
	m.mu.Unlock()
	return nil
}
