// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dailymind/dailymind-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete dailymind configuration.
type Config struct {
	// Chat service the client talks to
	Service ServiceConfig `toml:"service" json:"service"`

	// Session behaviour (quota, personality, identity policy)
	Session SessionConfig `toml:"session" json:"session"`

	// Local persistence
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui"`

	// Logging
	Log LogConfig `toml:"log" json:"log"`

	// Reference backend (dailymind-server)
	Server ServerConfig `toml:"server" json:"server"`
}

// ServiceConfig contains the chat service endpoints and timeouts.
type ServiceConfig struct {
	// BaseURL of the chat service
	BaseURL string `toml:"base_url" json:"base_url"`

	// ChatPath is the streaming chat endpoint
	ChatPath string `toml:"chat_path" json:"chat_path"`

	// PremiumPath is the entitlement check endpoint
	PremiumPath string `toml:"premium_path" json:"premium_path"`

	// UpgradeURL is opened by the upgrade affordance
	UpgradeURL string `toml:"upgrade_url" json:"upgrade_url"`

	// ConnectTimeoutSecs bounds dial, TLS and response headers
	ConnectTimeoutSecs int `toml:"connect_timeout_secs" json:"connect_timeout_secs"`

	// StreamIdleTimeoutSecs bounds each wait for the next reply chunk. 0 disables.
	StreamIdleTimeoutSecs int `toml:"stream_idle_timeout_secs" json:"stream_idle_timeout_secs"`
}

// SessionConfig contains quota and conversation settings.
type SessionConfig struct {
	FreeLimit     int      `toml:"free_limit" json:"free_limit"`
	Personality   string   `toml:"personality" json:"personality"`
	Personalities []string `toml:"personalities" json:"personalities"`

	// EmailPolicy: only "required" is supported
	EmailPolicy string `toml:"email_policy" json:"email_policy"`

	// VerifyOnStart runs a quiet premium check when a session starts
	VerifyOnStart bool `toml:"verify_on_start" json:"verify_on_start"`
}

// StorageConfig contains local persistence settings.
type StorageConfig struct {
	// PrefsBackend: "file", "sqlite" or "memory"
	PrefsBackend string `toml:"prefs_backend" json:"prefs_backend"`
	PrefsPath    string `toml:"prefs_path" json:"prefs_path"`

	// HistoryDir holds archived transcripts
	HistoryDir       string `toml:"history_dir" json:"history_dir"`
	MaxConversations int    `toml:"max_conversations" json:"max_conversations"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// Theme: "dark", "light", "auto" or "none"
	Theme          string `toml:"theme" json:"theme"`
	RenderMarkdown bool   `toml:"render_markdown" json:"render_markdown"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level: "debug", "info", "warn" or "error"
	Level string `toml:"level" json:"level"`

	// File receives client logs. Empty means discard in client mode.
	File string `toml:"file" json:"file"`
}

// ServerConfig contains reference backend settings.
type ServerConfig struct {
	Addr      string `toml:"addr" json:"addr"`
	DBPath    string `toml:"db_path" json:"db_path"`
	FreeLimit int    `toml:"free_limit" json:"free_limit"`

	// PaymentURL is where GET /upgrade redirects
	PaymentURL string `toml:"payment_url" json:"payment_url"`

	// SECURITY: never printed unredacted, see String
	PaystackSecret  string `toml:"paystack_secret" json:"paystack_secret"`
	PaystackBaseURL string `toml:"paystack_base_url" json:"paystack_base_url"`
	LicenseSalt     string `toml:"license_salt" json:"license_salt"`

	// Responder: "echo" or "ollama"
	Responder   string `toml:"responder" json:"responder"`
	OllamaURL   string `toml:"ollama_url" json:"ollama_url"`
	OllamaModel string `toml:"ollama_model" json:"ollama_model"`

	// Per-IP rate limit
	RatePerSecond float64 `toml:"rate_per_second" json:"rate_per_second"`
	RateBurst     int     `toml:"rate_burst" json:"rate_burst"`
}

// ConnectTimeout returns the connect timeout as a duration.
func (s ServiceConfig) ConnectTimeout() time.Duration {
	return time.Duration(s.ConnectTimeoutSecs) * time.Second
}

// StreamIdleTimeout returns the idle timeout as a duration.
func (s ServiceConfig) StreamIdleTimeout() time.Duration {
	return time.Duration(s.StreamIdleTimeoutSecs) * time.Second
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// EmailPolicyRequired is the only accepted session.email_policy.
const EmailPolicyRequired = "required"

// Default returns a Config with sensible default values. Path fields are
// left empty and resolved against ConfigDir by fillDefaults.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:               "http://127.0.0.1:5000",
			ChatPath:              "/chat-stream",
			PremiumPath:           "/check-premium",
			UpgradeURL:            "https://paystack.shop/pay/yzthx-tqho",
			ConnectTimeoutSecs:    15,
			StreamIdleTimeoutSecs: 60,
		},
		Session: SessionConfig{
			FreeLimit:     10,
			Personality:   "Calm Mentor",
			Personalities: []string{"Calm Mentor", "Motivator", "Friend", "Coach"},
			EmailPolicy:   EmailPolicyRequired,
			VerifyOnStart: false,
		},
		Storage: StorageConfig{
			PrefsBackend:     "file",
			MaxConversations: 100,
		},
		UI: UIConfig{
			Theme:          "dark",
			RenderMarkdown: true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:            ":5000",
			DBPath:          "dailymind.db",
			FreeLimit:       10,
			PaymentURL:      "https://paystack.shop/pay/yzthx-tqho",
			PaystackBaseURL: "https://api.paystack.co",
			LicenseSalt:     "DAILYMIND-2026-SECURE",
			Responder:       "echo",
			OllamaURL:       "http://127.0.0.1:11434",
			OllamaModel:     "llama3.2",
			RatePerSecond:   2,
			RateBurst:       10,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the dailymind configuration directory path.
func ConfigDir() (string, error) {
	if dir := os.Getenv("DAILYMIND_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".dailymind"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ActivePath returns the config file Load would read, or "" when neither
// file exists.
func ActivePath() string {
	for _, fn := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := fn()
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path := ActivePath(); path != "" {
		return LoadFromPath(path)
	}
	cfg := Default()
	if err := fillDefaults(cfg); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return fillDefaults(cfg)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. Keys absent from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults and resolves
// relative storage paths against ConfigDir.
func fillDefaults(cfg *Config) error {
	defaults := Default()

	// Service
	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = defaults.Service.BaseURL
	}
	cfg.Service.BaseURL = strings.TrimRight(cfg.Service.BaseURL, "/")
	if cfg.Service.ChatPath == "" {
		cfg.Service.ChatPath = defaults.Service.ChatPath
	}
	if cfg.Service.PremiumPath == "" {
		cfg.Service.PremiumPath = defaults.Service.PremiumPath
	}
	if cfg.Service.UpgradeURL == "" {
		cfg.Service.UpgradeURL = defaults.Service.UpgradeURL
	}
	if cfg.Service.ConnectTimeoutSecs == 0 {
		cfg.Service.ConnectTimeoutSecs = defaults.Service.ConnectTimeoutSecs
	}

	// Session
	if cfg.Session.FreeLimit == 0 {
		cfg.Session.FreeLimit = defaults.Session.FreeLimit
	}
	if len(cfg.Session.Personalities) == 0 {
		cfg.Session.Personalities = defaults.Session.Personalities
	}
	if cfg.Session.Personality == "" ||
		(cfg.Session.Personality == defaults.Session.Personality && !oneOf(cfg.Session.Personality, cfg.Session.Personalities...)) {
		cfg.Session.Personality = cfg.Session.Personalities[0]
	}
	if cfg.Session.EmailPolicy == "" {
		cfg.Session.EmailPolicy = defaults.Session.EmailPolicy
	}

	// Storage
	if cfg.Storage.PrefsBackend == "" {
		cfg.Storage.PrefsBackend = defaults.Storage.PrefsBackend
	}
	if dir, err := ConfigDir(); err == nil {
		if cfg.Storage.PrefsPath == "" {
			cfg.Storage.PrefsPath = filepath.Join(dir, defaultPrefsName(cfg.Storage.PrefsBackend))
		}
		if cfg.Storage.HistoryDir == "" {
			cfg.Storage.HistoryDir = filepath.Join(dir, "conversations")
		}
		if cfg.Log.File == "" {
			cfg.Log.File = filepath.Join(dir, "dailymind.log")
		}
	}

	// UI
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = defaults.UI.Theme
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}

	// Server
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.DBPath == "" {
		cfg.Server.DBPath = defaults.Server.DBPath
	}
	if cfg.Server.FreeLimit == 0 {
		cfg.Server.FreeLimit = defaults.Server.FreeLimit
	}
	if cfg.Server.PaymentURL == "" {
		cfg.Server.PaymentURL = defaults.Server.PaymentURL
	}
	if cfg.Server.PaystackBaseURL == "" {
		cfg.Server.PaystackBaseURL = defaults.Server.PaystackBaseURL
	}
	if cfg.Server.LicenseSalt == "" {
		cfg.Server.LicenseSalt = defaults.Server.LicenseSalt
	}
	if cfg.Server.Responder == "" {
		cfg.Server.Responder = defaults.Server.Responder
	}
	if cfg.Server.OllamaURL == "" {
		cfg.Server.OllamaURL = defaults.Server.OllamaURL
	}
	if cfg.Server.OllamaModel == "" {
		cfg.Server.OllamaModel = defaults.Server.OllamaModel
	}
	if cfg.Server.RatePerSecond == 0 {
		cfg.Server.RatePerSecond = defaults.Server.RatePerSecond
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = defaults.Server.RateBurst
	}

	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# dailymind configuration file\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

func checkHTTPURL(errs *ValidateErrors, field, raw string) {
	u, err := url.Parse(raw)
	if err != nil {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("invalid URL: %v", err)})
		return
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		*errs = append(*errs, ValidationError{Field: field, Message: fmt.Sprintf("'%s' must be an absolute http(s) URL", raw)})
	}
}

// Validate validates the configuration and returns any errors as
// ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Service
	checkHTTPURL(&errs, "service.base_url", c.Service.BaseURL)
	checkHTTPURL(&errs, "service.upgrade_url", c.Service.UpgradeURL)
	for field, p := range map[string]string{
		"service.chat_path":    c.Service.ChatPath,
		"service.premium_path": c.Service.PremiumPath,
	} {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf("'%s' must start with /", p)})
		}
	}
	if c.Service.ConnectTimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "service.connect_timeout_secs", Message: "must be positive"})
	}
	if c.Service.StreamIdleTimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "service.stream_idle_timeout_secs", Message: "cannot be negative"})
	}

	// Session
	if c.Session.FreeLimit <= 0 {
		errs = append(errs, ValidationError{Field: "session.free_limit", Message: "must be positive"})
	}
	if c.Session.EmailPolicy != EmailPolicyRequired {
		errs = append(errs, ValidationError{
			Field:   "session.email_policy",
			Message: fmt.Sprintf("invalid policy '%s', only 'required' is supported", c.Session.EmailPolicy),
		})
	}
	if len(c.Session.Personalities) == 0 {
		errs = append(errs, ValidationError{Field: "session.personalities", Message: "cannot be empty"})
	} else if !oneOf(c.Session.Personality, c.Session.Personalities...) {
		errs = append(errs, ValidationError{
			Field:   "session.personality",
			Message: fmt.Sprintf("'%s' is not in session.personalities", c.Session.Personality),
		})
	}

	// Storage
	if !oneOf(c.Storage.PrefsBackend, "file", "sqlite", "memory") {
		errs = append(errs, ValidationError{
			Field:   "storage.prefs_backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, memory", c.Storage.PrefsBackend),
		})
	}
	if c.Storage.MaxConversations < 0 {
		errs = append(errs, ValidationError{Field: "storage.max_conversations", Message: "cannot be negative"})
	}

	// UI
	if !oneOf(c.UI.Theme, "dark", "light", "auto", "none") {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto, none", c.UI.Theme),
		})
	}

	// Log
	if !oneOf(c.Log.Level, "debug", "info", "warn", "error") {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	// Server
	if c.Server.Addr == "" {
		errs = append(errs, ValidationError{Field: "server.addr", Message: "cannot be empty"})
	}
	if c.Server.FreeLimit <= 0 {
		errs = append(errs, ValidationError{Field: "server.free_limit", Message: "must be positive"})
	}
	checkHTTPURL(&errs, "server.payment_url", c.Server.PaymentURL)
	checkHTTPURL(&errs, "server.paystack_base_url", c.Server.PaystackBaseURL)
	if !oneOf(c.Server.Responder, "echo", "ollama") {
		errs = append(errs, ValidationError{
			Field:   "server.responder",
			Message: fmt.Sprintf("invalid responder '%s', must be one of: echo, ollama", c.Server.Responder),
		})
	}
	if strings.EqualFold(c.Server.Responder, "ollama") {
		checkHTTPURL(&errs, "server.ollama_url", c.Server.OllamaURL)
	}
	if c.Server.RatePerSecond <= 0 {
		errs = append(errs, ValidationError{Field: "server.rate_per_second", Message: "must be positive"})
	}
	if c.Server.RateBurst <= 0 {
		errs = append(errs, ValidationError{Field: "server.rate_burst", Message: "must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - DAILYMIND_BASE_URL: overrides service.base_url
//   - DAILYMIND_EMAIL_POLICY: overrides session.email_policy
//   - DAILYMIND_FREE_LIMIT: overrides session.free_limit
//   - DAILYMIND_PREFS_BACKEND: overrides storage.prefs_backend
//   - DAILYMIND_LOG_LEVEL: overrides log.level
//   - DAILYMIND_SERVER_ADDR: overrides server.addr
//   - DAILYMIND_DB_PATH: overrides server.db_path
//   - DAILYMIND_OLLAMA_URL: overrides server.ollama_url
//   - PAYSTACK_SECRET_KEY: overrides server.paystack_secret
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DAILYMIND_BASE_URL"); v != "" {
		c.Service.BaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("DAILYMIND_EMAIL_POLICY"); v != "" {
		c.Session.EmailPolicy = v
	}
	if v := os.Getenv("DAILYMIND_FREE_LIMIT"); v != "" {
		// A malformed value is surfaced by Validate.
		n, err := strconv.Atoi(v)
		if err != nil {
			n = -1
		}
		c.Session.FreeLimit = n
	}
	if v := os.Getenv("DAILYMIND_PREFS_BACKEND"); v != "" {
		c.SetPrefsBackend(v)
	}
	if v := os.Getenv("DAILYMIND_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DAILYMIND_SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DAILYMIND_DB_PATH"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("DAILYMIND_OLLAMA_URL"); v != "" {
		c.Server.OllamaURL = v
	}
	if v := os.Getenv("PAYSTACK_SECRET_KEY"); v != "" {
		c.Server.PaystackSecret = v
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func defaultPrefsName(backend string) string {
	if backend == "sqlite" {
		return "prefs.db"
	}
	return "prefs.json"
}

// SetPrefsBackend switches the preference backend. A prefs_path that was
// derived from the previous backend follows the switch.
func (c *Config) SetPrefsBackend(backend string) {
	if dir, err := ConfigDir(); err == nil &&
		c.Storage.PrefsPath == filepath.Join(dir, defaultPrefsName(c.Storage.PrefsBackend)) {
		c.Storage.PrefsPath = filepath.Join(dir, defaultPrefsName(backend))
	}
	c.Storage.PrefsBackend = backend
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Session.Personalities = append([]string(nil), c.Session.Personalities...)
	return &clone
}

// Redacted returns a copy with secrets masked.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Server.PaystackSecret != "" {
		safe.Server.PaystackSecret = "[REDACTED]"
	}
	return safe
}

// String returns an indented JSON rendering with secrets redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

// TOML renders the redacted config as TOML.
func (c *Config) TOML() (string, error) {
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(c.Redacted()); err != nil {
		return "", err
	}
	return b.String(), nil
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			_ = fillDefaults(cfg)
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
