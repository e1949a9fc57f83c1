// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dailymind/dailymind-tui/internal/client"
	"github.com/dailymind/dailymind-tui/internal/identity"
	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/quota"
	"github.com/dailymind/dailymind-tui/internal/stream"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds the controller settings.
type Config struct {
	// FreeLimit is the free message allowance (default: 10)
	FreeLimit int

	// Personality sent with each message (default: first of Personalities)
	Personality string

	// Personalities the user may cycle through
	Personalities []string

	// IdleTimeout bounds each wait for the next reply chunk (default: 60s)
	IdleTimeout time.Duration

	// VerifyOnStart runs a premium check during Start when an email is known
	VerifyOnStart bool

	// UpgradeURL is where the upgrade affordance points
	UpgradeURL string
}

// DefaultPersonalities are offered when none are configured.
var DefaultPersonalities = []string{"Calm Mentor", "Motivator", "Friend", "Coach"}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		FreeLimit:     quota.DefaultLimit,
		Personality:   DefaultPersonalities[0],
		Personalities: append([]string(nil), DefaultPersonalities...),
		IdleTimeout:   60 * time.Second,
		VerifyOnStart: false,
		UpgradeURL:    "https://paystack.shop/pay/yzthx-tqho",
	}
}

// ChatStreamer dispatches a message and returns the open reply.
type ChatStreamer interface {
	ChatStream(ctx context.Context, req client.ChatRequest) (*client.StreamResponse, error)
}

// Status is a read-only snapshot for status lines and the status command.
type Status struct {
	Email         string
	Count         int
	Limit         int
	Remaining     int
	Premium       bool
	PremiumSource identity.PremiumSource
	Lock          quota.LockState
	LockReason    quota.Reason
	Phase         Phase
	Personality   string
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller is safe for concurrent use; overlapping sends are refused.
type Controller struct {
	ids     *identity.Manager
	chat    ChatStreamer
	surface Surface
	logger  *slog.Logger

	transcript *model.Transcript
	lock       quota.Lock

	mu            sync.Mutex
	quota         quota.State
	phase         Phase
	personality   string
	personalities []string
	idleTimeout   time.Duration
	verifyOnStart bool
	upgradeURL    string
}

// New builds a controller. surface may be nil until SetSurface is called.
func New(cfg Config, ids *identity.Manager, chat ChatStreamer, surface Surface, logger *slog.Logger) *Controller {
	defaults := DefaultConfig()
	if len(cfg.Personalities) == 0 {
		cfg.Personalities = defaults.Personalities
	}
	if cfg.Personality == "" {
		cfg.Personality = cfg.Personalities[0]
	}
	if cfg.IdleTimeout < 0 {
		cfg.IdleTimeout = 0
	}
	if surface == nil {
		surface = NopSurface{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Controller{
		ids:           ids,
		chat:          chat,
		surface:       surface,
		logger:        logger,
		transcript:    model.NewTranscript(),
		quota:         quota.NewState(0, cfg.FreeLimit),
		personality:   cfg.Personality,
		personalities: append([]string(nil), cfg.Personalities...),
		idleTimeout:   cfg.IdleTimeout,
		verifyOnStart: cfg.VerifyOnStart,
		upgradeURL:    cfg.UpgradeURL,
	}
}

// SetSurface replaces the UI. Call it before Start.
func (c *Controller) SetSurface(s Surface) {
	if s == nil {
		s = NopSurface{}
	}
	c.mu.Lock()
	c.surface = s
	c.mu.Unlock()
}

func (c *Controller) ui() Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface
}

// Transcript returns the session transcript.
func (c *Controller) Transcript() *model.Transcript {
	return c.transcript
}

// UpgradeURL returns the payment page the upgrade affordance opens.
func (c *Controller) UpgradeURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.upgradeURL
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start loads identity and counter from the store, opens the capture flow if
// no email is known, and locks straight away when the stored counter is
// already exhausted for a non-premium user.
func (c *Controller) Start(ctx context.Context) error {
	id, err := c.ids.Load()
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	count, err := c.ids.LoadCount()
	if err != nil {
		return fmt.Errorf("load message count: %w", err)
	}

	c.mu.Lock()
	c.quota = quota.NewState(count, c.quota.Limit)
	state := c.quota
	verify := c.verifyOnStart
	c.mu.Unlock()

	c.logger.Info("session started",
		"count", state.Count,
		"limit", state.Limit,
		"premium_hint", id.PremiumHint,
		"has_email", id.HasEmail())

	ui := c.ui()
	if !id.HasEmail() {
		ui.RequestEmail()
	}
	if quota.MayProceed(state, id.EffectivePremium()) == quota.Denied {
		c.engageLock(quota.ReasonLocal)
	} else {
		ui.SetInputEnabled(true)
	}

	if verify && id.HasEmail() {
		c.refreshEntitlement(ctx)
	}
	return nil
}

// refreshEntitlement is the quiet start-up check: it unlocks on a positive
// answer and re-gates on a negative one, logging failures only.
func (c *Controller) refreshEntitlement(ctx context.Context) {
	out, err := c.ids.Verify(ctx)
	if err != nil {
		c.logger.Warn("start-up premium check failed", "error", err)
		return
	}
	if out == identity.Confirmed {
		c.applyPremium()
		return
	}
	c.recheck()
}

// =============================================================================
// SEND
// =============================================================================

// Send runs one user message through the gate, the network and the stream
// consumer. It never returns an error: every failure ends up as a transcript
// notice and an Outcome.
func (c *Controller) Send(ctx context.Context, raw string) Outcome {
	text := strings.TrimSpace(raw)
	if text == "" {
		return OutcomeIgnored
	}

	c.mu.Lock()
	if c.phase == PhaseStreaming {
		c.mu.Unlock()
		return OutcomeBusy
	}

	email, err := c.ids.RequireEmail()
	if err != nil {
		c.mu.Unlock()
		c.appendNotice(NoticeEmailRequired)
		c.ui().RequestEmail()
		return OutcomeNeedEmail
	}

	premium := c.ids.EffectivePremium()
	if c.lock.IsLocked() || quota.MayProceed(c.quota, premium) == quota.Denied {
		c.mu.Unlock()
		c.engageLock(quota.ReasonLocal)
		return OutcomeLocked
	}

	c.phase = PhaseStreaming
	c.quota = c.quota.Increment()
	count := c.quota.Count
	personality := c.personality
	idle := c.idleTimeout
	ui := c.surface
	c.mu.Unlock()

	defer c.endSend()

	user := c.transcript.Append(model.RoleUser, model.KindMessage, text)
	ui.EntryAdded(user)
	ui.ClearInput()
	ui.SetInputEnabled(false)
	ui.ScrollToLatest()

	// Attempted, not answered: persisted before the request and never rolled back.
	if err := c.ids.SaveCount(count); err != nil {
		c.logger.Warn("persist message count", "error", err)
	}

	c.logger.Info("message dispatched", "count", count, "personality", personality, "is_free", !premium)
	resp, err := c.chat.ChatStream(ctx, client.ChatRequest{
		Text:        text,
		Personality: personality,
		Email:       &email,
		IsFree:      !premium,
	})
	if err != nil {
		if client.IsQuotaExceeded(err) {
			c.logger.Info("server declared quota exhausted", "local_count", count)
			c.engageLock(quota.ReasonServer)
			return OutcomeServerLocked
		}
		c.logger.Warn("chat request failed", "error", err)
		c.appendNotice(noticeFor(err))
		c.recheck()
		return OutcomeFailed
	}

	outcome := c.consume(ctx, resp, idle, ui)
	c.recheck()
	return outcome
}

// consume drives the reply body into a new assistant entry.
func (c *Controller) consume(ctx context.Context, resp *client.StreamResponse, idle time.Duration, ui Surface) Outcome {
	entry, err := c.transcript.BeginAssistant()
	if err != nil {
		resp.Body.Close()
		c.logger.Error("begin assistant entry", "error", err)
		c.appendNotice(NoticeInterrupted)
		return OutcomeFailed
	}
	ui.EntryAdded(entry)

	consumer := stream.NewConsumer(stream.Options{IdleTimeout: idle, Logger: c.logger})
	res, streamErr := consumer.Consume(ctx, resp.Body, resp.ContentType, func(fragment string) {
		if err := c.transcript.AppendTo(entry.ID, fragment); err != nil {
			c.logger.Error("append fragment", "error", err)
			return
		}
		ui.EntryAppended(entry.ID, fragment)
		ui.ScrollToLatest()
	})

	if err := c.transcript.Finalize(entry.ID); err != nil {
		c.logger.Error("finalize assistant entry", "error", err)
	}
	if final, ok := c.transcript.Get(entry.ID); ok {
		ui.EntryFinalized(final)
	}

	if streamErr != nil {
		c.logger.Warn("reply stream failed",
			"error", streamErr,
			"fragments", res.Fragments,
			"bytes", res.Bytes)
		c.appendNotice(noticeFor(streamErr))
		return OutcomeFailed
	}
	c.logger.Info("reply stream completed",
		"fragments", res.Fragments,
		"bytes", res.Bytes,
		"charset", res.Charset,
		"duration", res.Duration)
	return OutcomeSent
}

func (c *Controller) endSend() {
	c.mu.Lock()
	c.phase = PhaseIdle
	ui := c.surface
	c.mu.Unlock()
	if !c.lock.IsLocked() {
		ui.SetInputEnabled(true)
	}
}

// recheck re-evaluates the gate after a dispatch or a negative premium answer.
func (c *Controller) recheck() {
	c.mu.Lock()
	state := c.quota
	c.mu.Unlock()
	if quota.MayProceed(state, c.ids.EffectivePremium()) == quota.Denied {
		c.engageLock(quota.ReasonLocal)
	}
}

// engageLock performs the lock transition once: disable input, append the
// notice and the upgrade affordance. Later calls do nothing.
func (c *Controller) engageLock(reason quota.Reason) {
	if !c.lock.Engage(reason) {
		return
	}
	c.logger.Info("session locked", "reason", string(reason))

	ui := c.ui()
	ui.SetInputEnabled(false)
	notice := c.transcript.Append(model.RoleSystem, model.KindNotice, NoticeLocked)
	ui.EntryAdded(notice)
	upgrade := c.transcript.Append(model.RoleSystem, model.KindUpgrade, NoticeUpgrade)
	ui.EntryAdded(upgrade)
	ui.ScrollToLatest()
}

func (c *Controller) appendNotice(text string) {
	ui := c.ui()
	e := c.transcript.Append(model.RoleSystem, model.KindNotice, text)
	ui.EntryAdded(e)
	ui.ScrollToLatest()
}

// =============================================================================
// IDENTITY AND ENTITLEMENT
// =============================================================================

// SaveEmail completes the capture flow. The normalised address is returned;
// an invalid one yields identity.ErrInvalidEmail and changes nothing.
func (c *Controller) SaveEmail(raw string) (string, error) {
	email, err := c.ids.SaveEmail(raw)
	if err != nil {
		return "", err
	}
	c.appendNotice(NoticeEmailSaved)
	return email, nil
}

// VerifyPremium asks the server about the current email. Confirmation resets
// the counter, releases the lock and re-enables input. A negative answer or a
// failed check leaves a retryable notice; a failed check never revokes.
func (c *Controller) VerifyPremium(ctx context.Context) (identity.VerifyOutcome, error) {
	out, err := c.ids.Verify(ctx)
	switch {
	case errors.Is(err, identity.ErrMissingIdentity):
		c.appendNotice(NoticeEmailRequired)
		c.ui().RequestEmail()
		return out, err
	case err != nil:
		c.appendNotice(NoticeNotConfirmed)
		return out, err
	case out == identity.Confirmed:
		c.applyPremium()
		c.appendNotice(NoticePremiumUnlocked)
		return out, nil
	default:
		c.appendNotice(NoticeNotConfirmed)
		c.recheck()
		return out, nil
	}
}

func (c *Controller) applyPremium() {
	c.mu.Lock()
	c.quota = c.quota.Reset()
	streaming := c.phase == PhaseStreaming
	ui := c.surface
	c.mu.Unlock()

	if c.lock.Release() {
		c.logger.Info("session unlocked", "reason", "premium")
	}
	if !streaming {
		ui.SetInputEnabled(true)
	}
}

// =============================================================================
// SETTINGS
// =============================================================================

// Personality returns the personality sent with the next message.
func (c *Controller) Personality() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.personality
}

// Personalities returns the selectable personalities.
func (c *Controller) Personalities() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.personalities...)
}

// SetPersonality selects name, matching case-insensitively against the
// configured list.
func (c *Controller) SetPersonality(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, p := range c.personalities {
		if strings.EqualFold(p, strings.TrimSpace(name)) {
			c.personality = p
			return nil
		}
	}
	return fmt.Errorf("unknown personality %q", name)
}

// CyclePersonality moves to the next personality and returns it.
func (c *Controller) CyclePersonality() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.personalities {
		if p == c.personality {
			c.personality = c.personalities[(i+1)%len(c.personalities)]
			return c.personality
		}
	}
	c.personality = c.personalities[0]
	return c.personality
}

// ApplyConfig applies the live-reloadable subset of cfg: personality list,
// personality, idle timeout and upgrade URL. The quota limit is fixed for
// the session.
func (c *Controller) ApplyConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(cfg.Personalities) > 0 {
		c.personalities = append([]string(nil), cfg.Personalities...)
	}
	if cfg.Personality != "" {
		c.personality = cfg.Personality
	}
	if cfg.IdleTimeout >= 0 {
		c.idleTimeout = cfg.IdleTimeout
	}
	if cfg.UpgradeURL != "" {
		c.upgradeURL = cfg.UpgradeURL
	}
}

// Status returns a snapshot of identity, quota and lock.
func (c *Controller) Status() Status {
	id := c.ids.Current()
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Email:         id.Email,
		Count:         c.quota.Count,
		Limit:         c.quota.Limit,
		Remaining:     c.quota.Remaining(),
		Premium:       id.EffectivePremium(),
		PremiumSource: id.Source(),
		Lock:          c.lock.State(),
		LockReason:    c.lock.Reason(),
		Phase:         c.phase,
		Personality:   c.personality,
	}
}
