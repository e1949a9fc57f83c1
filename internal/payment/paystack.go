// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingReference is returned for an empty transaction reference.
	ErrMissingReference = errors.New("invalid payment reference")

	// ErrNotPaid is returned when Paystack does not report a successful charge.
	ErrNotPaid = errors.New("payment verification failed")

	// ErrNoSecret is returned when no secret key is configured.
	ErrNoSecret = errors.New("paystack secret key not configured")
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds Paystack client settings.
type Config struct {
	// BaseURL of the Paystack API (default: https://api.paystack.co)
	BaseURL string

	// SecretKey is sent as a bearer token.
	SecretKey string

	// Timeout for one verification call (default: 10s)
	Timeout time.Duration

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// DefaultBaseURL is the public Paystack API.
const DefaultBaseURL = "https://api.paystack.co"

// =============================================================================
// VERIFIER
// =============================================================================

// Verifier checks transaction references against Paystack.
type Verifier struct {
	baseURL    string
	secret     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewVerifier creates a verifier from cfg.
func NewVerifier(cfg *Config) *Verifier {
	if cfg == nil {
		cfg = &Config{}
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Verifier{baseURL: base, secret: cfg.SecretKey, httpClient: httpClient, logger: logger}
}

// verifyResponse is the subset of Paystack's verify payload we read.
type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Status    string `json:"status"`
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Customer  struct {
			Email string `json:"email"`
		} `json:"customer"`
	} `json:"data"`
}

// Verify confirms reference was paid and returns the customer's email.
// Anything short of a successful charge with an email is ErrNotPaid.
func (v *Verifier) Verify(ctx context.Context, reference string) (string, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return "", ErrMissingReference
	}
	if v.secret == "" {
		return "", ErrNoSecret
	}

	endpoint := v.baseURL + "/transaction/verify/" + url.PathEscape(reference)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.secret)
	req.Header.Set("Accept", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("paystack verify: %w", err)
	}
	defer resp.Body.Close()

	var body verifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		v.logger.Warn("paystack verify: unreadable response", "status", resp.StatusCode, "error", err)
		return "", ErrNotPaid
	}

	email := strings.TrimSpace(body.Data.Customer.Email)
	if resp.StatusCode != http.StatusOK || !body.Status || body.Data.Status != "success" || email == "" {
		v.logger.Info("paystack verify: not paid",
			"status", resp.StatusCode,
			"transaction_status", body.Data.Status,
			"message", body.Message)
		return "", ErrNotPaid
	}
	return email, nil
}

// =============================================================================
// LICENSE KEYS
// =============================================================================

// License derives the license key for email: the first 16 hex digits of
// sha256(email + "-" + salt), upper-cased.
func License(email, salt string) string {
	sum := sha256.Sum256([]byte(email + "-" + salt))
	return strings.ToUpper(hex.EncodeToString(sum[:])[:16])
}
