// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dailymind/dailymind-tui/internal/prefs"
)

type fakeChecker struct {
	premium bool
	err     error
	calls   int
	emails  []string
}

func (f *fakeChecker) CheckPremium(ctx context.Context, email string) (bool, error) {
	f.calls++
	f.emails = append(f.emails, email)
	return f.premium, f.err
}

func newManager(t *testing.T, seed map[string]string, checker EntitlementChecker) (*Manager, *prefs.MemoryStore) {
	t.Helper()
	store := prefs.NewMemoryStore(seed)
	m := NewManager(store, checker, nil)
	_, err := m.Load()
	require.NoError(t, err)
	return m, store
}

// =============================================================================
// EMAIL TESTS
// =============================================================================

func TestNormalizeEmail(t *testing.T) {
	valid := map[string]string{
		"jane@example.com":       "jane@example.com",
		"  Jane@Example.COM \n":  "jane@example.com",
		"first.last+tag@mail.io": "first.last+tag@mail.io",
	}
	for in, want := range valid {
		got, err := NormalizeEmail(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
	}

	for _, in := range []string{"", "   ", "jane", "jane@", "@example.com", "jane@localhost", "Jane <jane@example.com>", "a b@example.com"} {
		_, err := NormalizeEmail(in)
		require.ErrorIs(t, err, ErrInvalidEmail, "%q should be rejected", in)
	}
}

func TestRequireEmail(t *testing.T) {
	m, _ := newManager(t, nil, nil)
	_, err := m.RequireEmail()
	require.ErrorIs(t, err, ErrMissingIdentity)

	saved, err := m.SaveEmail("Jane@Example.com")
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", saved)

	email, err := m.RequireEmail()
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", email)
}

func TestSaveEmail_PersistsAndRejectsInvalid(t *testing.T) {
	m, store := newManager(t, nil, nil)

	_, err := m.SaveEmail("not-an-email")
	require.ErrorIs(t, err, ErrInvalidEmail)
	_, ok, _ := store.Get(prefs.KeyEmail)
	require.False(t, ok, "invalid email must not be stored")

	_, err = m.SaveEmail("a@b.co")
	require.NoError(t, err)
	v, _, _ := store.Get(prefs.KeyEmail)
	require.Equal(t, "a@b.co", v)
}

func TestLoad_ReadsCacheAndDropsBadEmail(t *testing.T) {
	m, _ := newManager(t, map[string]string{prefs.KeyEmail: "a@b.co", prefs.KeyIsPremium: "true"}, nil)
	id := m.Current()
	require.Equal(t, "a@b.co", id.Email)
	require.True(t, id.PremiumHint)
	require.False(t, id.Verified)
	require.True(t, id.EffectivePremium(), "hint is provisional truth before any check")
	require.Equal(t, SourceCache, id.Source())

	bad, _ := newManager(t, map[string]string{prefs.KeyEmail: "garbage"}, nil)
	require.False(t, bad.Current().HasEmail())
}

// =============================================================================
// VERIFY TESTS
// =============================================================================

func TestVerify_RequiresEmail(t *testing.T) {
	checker := &fakeChecker{premium: true}
	m, _ := newManager(t, nil, checker)
	out, err := m.Verify(context.Background())
	require.ErrorIs(t, err, ErrMissingIdentity)
	require.Equal(t, NotConfirmed, out)
	require.Zero(t, checker.calls)
}

func TestVerify_ConfirmedPersistsAndClearsCount(t *testing.T) {
	checker := &fakeChecker{premium: true}
	m, store := newManager(t, map[string]string{
		prefs.KeyEmail:        "a@b.co",
		prefs.KeyMessageCount: "10",
	}, checker)

	out, err := m.Verify(context.Background())
	require.NoError(t, err)
	require.Equal(t, Confirmed, out)
	require.Equal(t, []string{"a@b.co"}, checker.emails)

	id := m.Current()
	require.True(t, id.Verified)
	require.True(t, id.PremiumServer)
	require.True(t, id.EffectivePremium())
	require.Equal(t, SourceServer, id.Source())

	hint, _ := prefs.GetBool(store, prefs.KeyIsPremium)
	require.True(t, hint)
	_, ok, _ := store.Get(prefs.KeyMessageCount)
	require.False(t, ok, "messageCount should be removed on confirmation")
}

func TestVerify_FalseRevokesForgedHint(t *testing.T) {
	checker := &fakeChecker{premium: false}
	m, store := newManager(t, map[string]string{
		prefs.KeyEmail:     "a@b.co",
		prefs.KeyIsPremium: "true",
	}, checker)
	require.True(t, m.EffectivePremium())

	out, err := m.Verify(context.Background())
	require.NoError(t, err)
	require.Equal(t, NotConfirmed, out)
	require.False(t, m.EffectivePremium(), "server false overrides the cached hint")

	hint, _ := prefs.GetBool(store, prefs.KeyIsPremium)
	require.False(t, hint)
}

func TestVerify_FalseDoesNotUndoEarlierTrue(t *testing.T) {
	checker := &fakeChecker{premium: true}
	m, _ := newManager(t, map[string]string{prefs.KeyEmail: "a@b.co"}, checker)

	_, err := m.Verify(context.Background())
	require.NoError(t, err)

	checker.premium = false
	out, err := m.Verify(context.Background())
	require.NoError(t, err)
	require.Equal(t, NotConfirmed, out)
	require.True(t, m.EffectivePremium())
}

func TestVerify_FailureChangesNothing(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	checker := &fakeChecker{err: boom}
	m, store := newManager(t, map[string]string{
		prefs.KeyEmail:        "a@b.co",
		prefs.KeyIsPremium:    "true",
		prefs.KeyMessageCount: "4",
	}, checker)
	before := m.Current()

	out, err := m.Verify(context.Background())
	require.Equal(t, NotConfirmed, out)
	require.ErrorIs(t, err, ErrEntitlementCheck)
	require.ErrorIs(t, err, boom)

	require.Equal(t, before, m.Current())
	require.True(t, m.EffectivePremium(), "a failed check is not a negative answer")
	require.Equal(t, map[string]string{
		prefs.KeyEmail:        "a@b.co",
		prefs.KeyIsPremium:    "true",
		prefs.KeyMessageCount: "4",
	}, store.Snapshot())
}

func TestVerify_NoChecker(t *testing.T) {
	m, _ := newManager(t, map[string]string{prefs.KeyEmail: "a@b.co"}, nil)
	_, err := m.Verify(context.Background())
	require.ErrorIs(t, err, ErrEntitlementCheck)
}

// =============================================================================
// COUNTER TESTS
// =============================================================================

func TestCountRoundTripAndForget(t *testing.T) {
	m, store := newManager(t, map[string]string{prefs.KeyEmail: "a@b.co"}, nil)

	n, err := m.LoadCount()
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, m.SaveCount(3))
	n, err = m.LoadCount()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.NoError(t, m.Forget())
	require.Empty(t, store.Snapshot())
	require.False(t, m.Current().HasEmail())
}

func TestVerifyOutcome_String(t *testing.T) {
	require.Equal(t, "confirmed", Confirmed.String())
	require.Equal(t, "not_confirmed", NotConfirmed.String())
}
