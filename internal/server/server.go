// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dailymind/dailymind-tui/internal/accounts"
	"github.com/dailymind/dailymind-tui/internal/config"
	"github.com/dailymind/dailymind-tui/internal/payment"
)

// ============================================================================
// CONSTANTS
// ============================================================================

// MaxRequestBodySize caps JSON request bodies.
const MaxRequestBodySize = 64 * 1024

// ============================================================================
// DEPENDENCIES
// ============================================================================

// Accounts is the account storage the handlers need.
type Accounts interface {
	ConsumeMessage(ctx context.Context, email string, freeLimit int) (*accounts.Account, error)
	IsPremium(ctx context.Context, email string) (bool, error)
	MarkPremium(ctx context.Context, email, licenseKey string) (*accounts.Account, error)
	Stats(ctx context.Context) (accounts.Stats, error)
}

// PaymentVerifier confirms a payment reference and returns the payer's email.
type PaymentVerifier interface {
	Verify(ctx context.Context, reference string) (string, error)
}

// Config holds the server's behavior settings.
type Config struct {
	FreeLimit     int
	PaymentURL    string
	LicenseSalt   string
	RatePerSecond float64
	RateBurst     int
}

// ConfigFrom maps the [server] config section.
func ConfigFrom(c config.ServerConfig) Config {
	return Config{
		FreeLimit:     c.FreeLimit,
		PaymentURL:    c.PaymentURL,
		LicenseSalt:   c.LicenseSalt,
		RatePerSecond: c.RatePerSecond,
		RateBurst:     c.RateBurst,
	}
}

// Options bundles what New needs.
type Options struct {
	Config    Config
	Accounts  Accounts
	Payments  PaymentVerifier
	Responder Responder
	Logger    *slog.Logger
}

// ============================================================================
// SERVER
// ============================================================================

// Server holds the routes and their dependencies.
type Server struct {
	cfg       Config
	accounts  Accounts
	payments  PaymentVerifier
	responder Responder
	logger    *slog.Logger
	router    chi.Router
}

// New creates a Server with its routes mounted.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	responder := opts.Responder
	if responder == nil {
		responder = NewEchoResponder(0)
	}
	s := &Server{
		cfg:       opts.Config,
		accounts:  opts.Accounts,
		payments:  opts.Payments,
		responder: responder,
		logger:    logger,
	}
	if s.cfg.FreeLimit <= 0 {
		s.cfg.FreeLimit = config.Default().Server.FreeLimit
	}
	s.setupRoutes()
	return s
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	if s.cfg.RatePerSecond > 0 {
		r.Use(RateLimitMiddleware(NewRateLimiter(s.cfg.RatePerSecond, s.cfg.RateBurst), s.logger))
	}

	r.Post("/chat-stream", s.handleChatStream)
	r.Post("/check-premium", s.handleCheckPremium)
	r.Get("/upgrade", s.handleUpgrade)
	r.Get("/payment-success", s.handlePaymentSuccess)
	r.Get("/admin/stats", s.handleAdminStats)

	s.router = r
}

// ============================================================================
// WIRE TYPES
// ============================================================================

type chatRequest struct {
	Text        string `json:"text"`
	Personality string `json:"personality"`
	Email       string `json:"email"`
	IsFree      bool   `json:"is_free"`
}

type premiumRequest struct {
	Email string `json:"email"`
}

type premiumResponse struct {
	Premium bool `json:"premium"`
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	text := strings.TrimSpace(req.Text)
	if email == "" {
		s.writeError(w, http.StatusBadRequest, "Email required")
		return
	}
	if text == "" {
		s.writeError(w, http.StatusBadRequest, "Message required")
		return
	}

	acct, err := s.accounts.ConsumeMessage(r.Context(), email, s.cfg.FreeLimit)
	if errors.Is(err, accounts.ErrLimitReached) {
		count := -1
		if acct != nil {
			count = acct.MessageCount
		}
		s.logger.Info("free limit reached", "count", count, "limit", s.cfg.FreeLimit)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, LimitMessage)
		return
	}
	if err != nil {
		s.logger.Error("consume message", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	prompt := Prompt{
		System: systemPrompt(acct.IsPremium(), req.Personality),
		Text:   text,
	}
	s.streamReply(w, r, prompt)
}

// streamReply writes the responder's fragments as they arrive, flushing
// after each one.
func (s *Server) streamReply(w http.ResponseWriter, r *http.Request, p Prompt) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	flush := func() {
		if flusher != nil {
			flusher.Flush()
		}
	}
	flush()

	fragments := 0
	err := s.responder.Respond(r.Context(), p, func(fragment string) error {
		if _, err := io.WriteString(w, fragment); err != nil {
			return err
		}
		fragments++
		flush()
		return nil
	})

	switch {
	case err == nil:
		s.logger.Debug("reply streamed", "responder", s.responder.Name(), "fragments", fragments)
	case r.Context().Err() != nil:
		s.logger.Info("client went away mid-reply", "fragments", fragments)
	default:
		s.logger.Error("responder failed", "responder", s.responder.Name(), "fragments", fragments, "error", err)
		io.WriteString(w, FallbackMessage)
		flush()
	}
}

func (s *Server) handleCheckPremium(w http.ResponseWriter, r *http.Request) {
	var req premiumRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	premium, err := s.accounts.IsPremium(r.Context(), req.Email)
	if err != nil {
		s.logger.Error("check premium", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, premiumResponse{Premium: premium})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.cfg.PaymentURL, http.StatusFound)
}

func (s *Server) handlePaymentSuccess(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.URL.Query().Get("reference"))
	if reference == "" {
		http.Error(w, "Invalid payment reference", http.StatusBadRequest)
		return
	}
	if s.payments == nil {
		http.Error(w, "Payment verification failed", http.StatusBadRequest)
		return
	}

	email, err := s.payments.Verify(r.Context(), reference)
	if err != nil {
		s.logger.Warn("payment verification failed", "error", err)
		http.Error(w, "Payment verification failed", http.StatusBadRequest)
		return
	}

	acct, err := s.accounts.MarkPremium(r.Context(), email, payment.License(email, s.cfg.LicenseSalt))
	if err != nil {
		s.logger.Error("mark premium", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	s.logger.Info("premium unlocked")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Payment confirmed. Premium is active for %s.\nLicense key: %s\nReturn to DailyMind and run /verify.\n",
		acct.Email, acct.LicenseKey)
}

func (s *Server) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.accounts.Stats(r.Context())
	if err != nil {
		s.logger.Error("admin stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

// ============================================================================
// HELPERS
// ============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes {"error": message}.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
