// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// =============================================================================
// TYPES
// =============================================================================

// Subscription is an account's plan.
type Subscription string

const (
	SubscriptionFree    Subscription = "free"
	SubscriptionPremium Subscription = "premium"
)

// dayLayout is how last_used is stored.
const dayLayout = "2006-01-02"

// Account is one row of the accounts table.
type Account struct {
	Email        string
	Subscription Subscription
	MessageCount int
	LastUsed     string
	LicenseKey   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsPremium reports whether the account is on the premium plan.
func (a *Account) IsPremium() bool {
	return a.Subscription == SubscriptionPremium
}

// Stats summarizes the accounts table for the admin endpoint.
type Stats struct {
	TotalUsers    int `json:"total_users"`
	PremiumUsers  int `json:"premium_users"`
	FreeUsers     int `json:"free_users"`
	TotalMessages int `json:"total_messages"`
	UsersToday    int `json:"users_today"`
}

var (
	// ErrNotFound is returned when no account exists for an email.
	ErrNotFound = errors.New("account not found")

	// ErrLimitReached is returned by ConsumeMessage for a free account that
	// has used today's allowance.
	ErrLimitReached = errors.New("free limit reached")

	// ErrEmptyEmail is returned for a blank email.
	ErrEmptyEmail = errors.New("email required")
)

// =============================================================================
// STORE
// =============================================================================

// Store is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the accounts database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Writes go through read-modify-write transactions; one connection keeps
	// them serialized.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS accounts (
		email         TEXT PRIMARY KEY,
		subscription  TEXT NOT NULL DEFAULT 'free',
		message_count INTEGER NOT NULL DEFAULT 0,
		last_used     TEXT NOT NULL,
		license_key   TEXT,
		created_at    INTEGER NOT NULL,
		updated_at    INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_last_used ON accounts(last_used);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) today() string {
	return s.now().Format(dayLayout)
}

// normalize lower-cases and trims an email key.
func normalize(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmptyEmail
	}
	return email, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectAccount = `
	SELECT email, subscription, message_count, last_used, license_key, created_at, updated_at
	FROM accounts WHERE email = ?`

func scanAccount(row *sql.Row) (*Account, error) {
	var (
		a                    Account
		sub                  string
		license              sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(&a.Email, &sub, &a.MessageCount, &a.LastUsed, &license, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account row: %w", err)
	}
	a.Subscription = Subscription(sub)
	a.LicenseKey = license.String
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	return &a, nil
}

// Get returns the account for email or ErrNotFound.
func (s *Store) Get(ctx context.Context, email string) (*Account, error) {
	email, err := normalize(email)
	if err != nil {
		return nil, err
	}
	return scanAccount(s.db.QueryRowContext(ctx, selectAccount, email))
}

// IsPremium reports whether email has a premium account. Unknown emails are
// not premium.
func (s *Store) IsPremium(ctx context.Context, email string) (bool, error) {
	a, err := s.Get(ctx, email)
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmptyEmail) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.IsPremium(), nil
}

// GetOrCreate returns the account for email, creating a free one if needed.
func (s *Store) GetOrCreate(ctx context.Context, email string) (*Account, error) {
	email, err := normalize(email)
	if err != nil {
		return nil, err
	}
	return s.getOrCreate(ctx, s.db, email)
}

func (s *Store) getOrCreate(ctx context.Context, q queryer, email string) (*Account, error) {
	now := s.now()
	_, err := q.ExecContext(ctx, `
		INSERT INTO accounts (email, subscription, message_count, last_used, created_at, updated_at)
		VALUES (?, ?, 0, ?, ?, ?)
		ON CONFLICT(email) DO NOTHING`,
		email, string(SubscriptionFree), now.Format(dayLayout), now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return scanAccount(q.QueryRowContext(ctx, selectAccount, email))
}

// =============================================================================
// MUTATIONS
// =============================================================================

// ConsumeMessage charges one message to email. In one transaction it creates
// the account if needed, resets the counter on a new day and, for free
// accounts, refuses with ErrLimitReached once message_count >= freeLimit.
// The returned account reflects the state after the charge. On
// ErrLimitReached it is still non-nil and carries the refused count.
func (s *Store) ConsumeMessage(ctx context.Context, email string, freeLimit int) (*Account, error) {
	email, err := normalize(email)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	a, err := s.getOrCreate(ctx, tx, email)
	if err != nil {
		return nil, err
	}

	today := s.today()
	now := s.now().Unix()
	if a.LastUsed != today {
		if _, err := tx.ExecContext(ctx,
			`UPDATE accounts SET message_count = 0, last_used = ?, updated_at = ? WHERE email = ?`,
			today, now, email); err != nil {
			return nil, fmt.Errorf("reset daily count: %w", err)
		}
		a.MessageCount = 0
		a.LastUsed = today
	}

	if !a.IsPremium() && a.MessageCount >= freeLimit {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return a, ErrLimitReached
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE accounts SET message_count = message_count + 1, updated_at = ? WHERE email = ?`,
		now, email); err != nil {
		return nil, fmt.Errorf("increment count: %w", err)
	}
	a.MessageCount++

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// MarkPremium upgrades email to premium with licenseKey and resets its
// counter, creating the account if needed.
func (s *Store) MarkPremium(ctx context.Context, email, licenseKey string) (*Account, error) {
	email, err := normalize(email)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.getOrCreate(ctx, tx, email); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET subscription = ?, license_key = ?, message_count = 0, updated_at = ?
		WHERE email = ?`,
		string(SubscriptionPremium), licenseKey, s.now().Unix(), email); err != nil {
		return nil, fmt.Errorf("mark premium: %w", err)
	}
	a, err := scanAccount(tx.QueryRowContext(ctx, selectAccount, email))
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return a, nil
}

// Stats returns aggregate counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN subscription = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN subscription = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(message_count), 0),
			COALESCE(SUM(CASE WHEN last_used = ? THEN 1 ELSE 0 END), 0)
		FROM accounts`,
		string(SubscriptionPremium), string(SubscriptionFree), s.today(),
	).Scan(&st.TotalUsers, &st.PremiumUsers, &st.FreeUsers, &st.TotalMessages, &st.UsersToday)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}
	return st, nil
}
