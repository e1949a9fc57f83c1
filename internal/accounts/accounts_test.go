// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package accounts

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "accounts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// clock lets tests move the store's notion of today.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func withClock(s *Store) *clock {
	c := &clock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.Local)}
	s.now = c.Now
	return c
}

func TestGetOrCreate(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	a, err := s.GetOrCreate(ctx, "  Sam@Example.com ")
	require.NoError(t, err)
	require.Equal(t, "sam@example.com", a.Email)
	require.Equal(t, SubscriptionFree, a.Subscription)
	require.Zero(t, a.MessageCount)
	require.False(t, a.IsPremium())

	again, err := s.GetOrCreate(ctx, "sam@example.com")
	require.NoError(t, err)
	require.Equal(t, a.CreatedAt, again.CreatedAt)

	_, err = s.GetOrCreate(ctx, "   ")
	require.ErrorIs(t, err, ErrEmptyEmail)
}

func TestGet_NotFound(t *testing.T) {
	s := openTest(t)
	_, err := s.Get(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	premium, err := s.IsPremium(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	require.False(t, premium)
}

func TestConsumeMessage_FreeLimit(t *testing.T) {
	s := openTest(t)
	withClock(s)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		a, err := s.ConsumeMessage(ctx, "sam@example.com", 3)
		require.NoError(t, err)
		require.Equal(t, i, a.MessageCount)
	}

	a, err := s.ConsumeMessage(ctx, "sam@example.com", 3)
	require.ErrorIs(t, err, ErrLimitReached)
	require.NotNil(t, a, "refusal still returns the account")
	require.Equal(t, 3, a.MessageCount)

	stored, err := s.Get(ctx, "sam@example.com")
	require.NoError(t, err)
	require.Equal(t, 3, stored.MessageCount, "refused message is not counted")
}

func TestConsumeMessage_ResetsOnNewDay(t *testing.T) {
	s := openTest(t)
	c := withClock(s)
	ctx := context.Background()

	_, err := s.ConsumeMessage(ctx, "sam@example.com", 1)
	require.NoError(t, err)
	_, err = s.ConsumeMessage(ctx, "sam@example.com", 1)
	require.ErrorIs(t, err, ErrLimitReached)

	c.Advance(24 * time.Hour)
	a, err := s.ConsumeMessage(ctx, "sam@example.com", 1)
	require.NoError(t, err)
	require.Equal(t, 1, a.MessageCount)
	require.Equal(t, "2025-03-15", a.LastUsed)
}

func TestConsumeMessage_PremiumUnlimited(t *testing.T) {
	s := openTest(t)
	withClock(s)
	ctx := context.Background()

	_, err := s.MarkPremium(ctx, "sam@example.com", "ABCDEF0123456789")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := s.ConsumeMessage(ctx, "sam@example.com", 1)
		require.NoError(t, err)
	}
}

func TestConsumeMessage_Concurrent(t *testing.T) {
	s := openTest(t)
	withClock(s)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.ConsumeMessage(ctx, "sam@example.com", 10); err == nil {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 10, allowed)
}

func TestMarkPremium(t *testing.T) {
	s := openTest(t)
	withClock(s)
	ctx := context.Background()

	_, err := s.ConsumeMessage(ctx, "sam@example.com", 10)
	require.NoError(t, err)

	a, err := s.MarkPremium(ctx, "Sam@example.com", "ABCDEF0123456789")
	require.NoError(t, err)
	require.True(t, a.IsPremium())
	require.Equal(t, "ABCDEF0123456789", a.LicenseKey)
	require.Zero(t, a.MessageCount)

	premium, err := s.IsPremium(ctx, "sam@example.com")
	require.NoError(t, err)
	require.True(t, premium)

	// Unknown emails are created as premium.
	b, err := s.MarkPremium(ctx, "new@example.com", "0000000000000000")
	require.NoError(t, err)
	require.True(t, b.IsPremium())
}

func TestStats(t *testing.T) {
	s := openTest(t)
	c := withClock(s)
	ctx := context.Background()

	_, err := s.ConsumeMessage(ctx, "old@example.com", 10)
	require.NoError(t, err)
	c.Advance(24 * time.Hour)

	for i := 0; i < 2; i++ {
		_, err := s.ConsumeMessage(ctx, "a@example.com", 10)
		require.NoError(t, err)
	}
	_, err = s.MarkPremium(ctx, "b@example.com", "KEY")
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, Stats{
		TotalUsers:    3,
		PremiumUsers:  1,
		FreeUsers:     2,
		TotalMessages: 3,
		UsersToday:    2,
	}, st)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accounts.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.MarkPremium(context.Background(), "sam@example.com", "KEY")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
	premium, err := s.IsPremium(context.Background(), "sam@example.com")
	require.NoError(t, err)
	require.True(t, premium)
}
