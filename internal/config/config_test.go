// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// isolate points ConfigDir at a temp dir and clears overriding env vars.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DAILYMIND_HOME", dir)
	for _, k := range []string{
		"DAILYMIND_BASE_URL", "DAILYMIND_EMAIL_POLICY", "DAILYMIND_FREE_LIMIT",
		"DAILYMIND_PREFS_BACKEND", "DAILYMIND_LOG_LEVEL", "DAILYMIND_SERVER_ADDR",
		"DAILYMIND_DB_PATH", "DAILYMIND_OLLAMA_URL", "PAYSTACK_SECRET_KEY",
	} {
		t.Setenv(k, "")
	}
	return dir
}

// =============================================================================
// DEFAULTS
// =============================================================================

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	if cfg.Session.FreeLimit != 10 {
		t.Errorf("FreeLimit = %d, want 10", cfg.Session.FreeLimit)
	}
	if cfg.Session.EmailPolicy != EmailPolicyRequired {
		t.Errorf("EmailPolicy = %q", cfg.Session.EmailPolicy)
	}
	if cfg.Service.ChatPath != "/chat-stream" || cfg.Service.PremiumPath != "/check-premium" {
		t.Errorf("unexpected paths %q %q", cfg.Service.ChatPath, cfg.Service.PremiumPath)
	}
	if cfg.Service.ConnectTimeout() != 15*time.Second {
		t.Errorf("ConnectTimeout = %v", cfg.Service.ConnectTimeout())
	}
	if cfg.Service.StreamIdleTimeout() != time.Minute {
		t.Errorf("StreamIdleTimeout = %v", cfg.Service.StreamIdleTimeout())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoad_NoFileUsesDefaultsAndResolvesPaths(t *testing.T) {
	dir := isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "prefs.json"), cfg.Storage.PrefsPath)
	require.Equal(t, filepath.Join(dir, "conversations"), cfg.Storage.HistoryDir)
	require.Equal(t, filepath.Join(dir, "dailymind.log"), cfg.Log.File)
	require.Empty(t, ActivePath())
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoad_TOMLOverlaysDefaults(t *testing.T) {
	dir := isolate(t)
	body := `
[service]
base_url = "https://chat.example.com/"
stream_idle_timeout_secs = 0

[session]
personalities = ["Stoic", "Coach"]

[storage]
prefs_backend = "sqlite"

[ui]
render_markdown = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://chat.example.com", cfg.Service.BaseURL, "trailing slash trimmed")
	require.Zero(t, cfg.Service.StreamIdleTimeoutSecs, "explicit zero disables")
	require.Equal(t, 15, cfg.Service.ConnectTimeoutSecs, "absent key keeps default")
	require.Equal(t, "Stoic", cfg.Session.Personality, "falls back to first personality")
	require.Equal(t, filepath.Join(dir, "prefs.db"), cfg.Storage.PrefsPath)
	require.False(t, cfg.UI.RenderMarkdown)
	require.True(t, strings.HasSuffix(ActivePath(), "config.toml"))
}

func TestLoad_JSONFallback(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"),
		[]byte(`{"session":{"free_limit":3}}`), 0600))

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Session.FreeLimit)
	require.Equal(t, "Calm Mentor", cfg.Session.Personality)
}

func TestLoad_RejectsOptionalEmailPolicy(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"),
		[]byte("[session]\nemail_policy = \"optional\"\n"), 0600))

	_, err := Load()
	require.Error(t, err)
	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	require.Equal(t, "session.email_policy", verrs[0].Field)
}

func TestLoad_BadTOML(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[service\n"), 0600))
	_, err := Load()
	require.ErrorContains(t, err, "failed to decode TOML")
}

func TestApplyEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("DAILYMIND_BASE_URL", "http://10.0.0.2:9000/")
	t.Setenv("DAILYMIND_FREE_LIMIT", "5")
	t.Setenv("DAILYMIND_PREFS_BACKEND", "memory")
	t.Setenv("DAILYMIND_LOG_LEVEL", "debug")
	t.Setenv("PAYSTACK_SECRET_KEY", "sk_test_abc")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.2:9000", cfg.Service.BaseURL)
	require.Equal(t, 5, cfg.Session.FreeLimit)
	require.Equal(t, "memory", cfg.Storage.PrefsBackend)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "sk_test_abc", cfg.Server.PaystackSecret)
}

func TestConfig_SetPrefsBackendMovesDerivedPath(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "prefs.json"), cfg.Storage.PrefsPath)

	cfg.SetPrefsBackend("sqlite")
	require.Equal(t, filepath.Join(dir, "prefs.db"), cfg.Storage.PrefsPath)

	cfg.Storage.PrefsPath = "/custom/prefs"
	cfg.SetPrefsBackend("file")
	require.Equal(t, "/custom/prefs", cfg.Storage.PrefsPath)
}

func TestApplyEnvOverrides_MalformedLimit(t *testing.T) {
	isolate(t)
	t.Setenv("DAILYMIND_FREE_LIMIT", "ten")
	_, err := Load()
	require.ErrorContains(t, err, "session.free_limit")
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"relative base url", func(c *Config) { c.Service.BaseURL = "localhost:5000" }, "service.base_url"},
		{"chat path", func(c *Config) { c.Service.ChatPath = "chat" }, "service.chat_path"},
		{"connect timeout", func(c *Config) { c.Service.ConnectTimeoutSecs = 0 }, "service.connect_timeout_secs"},
		{"idle timeout", func(c *Config) { c.Service.StreamIdleTimeoutSecs = -1 }, "service.stream_idle_timeout_secs"},
		{"free limit", func(c *Config) { c.Session.FreeLimit = -2 }, "session.free_limit"},
		{"personality", func(c *Config) { c.Session.Personality = "Pirate" }, "session.personality"},
		{"backend", func(c *Config) { c.Storage.PrefsBackend = "redis" }, "storage.prefs_backend"},
		{"theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"responder", func(c *Config) { c.Server.Responder = "gpt" }, "server.responder"},
		{"rate", func(c *Config) { c.Server.RatePerSecond = 0 }, "server.rate_per_second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs), "want ValidateErrors, got %v", err)
			require.Len(t, verrs, 1)
			require.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_ValidatePersonalityCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Session.Personality = "coach"
	require.NoError(t, cfg.Validate())
}

// =============================================================================
// REDACTION
// =============================================================================

func TestConfig_StringRedactsSecret(t *testing.T) {
	cfg := Default()
	cfg.Server.PaystackSecret = "sk_live_supersecret"

	require.NotContains(t, cfg.String(), "supersecret")
	require.Contains(t, cfg.String(), "[REDACTED]")

	out, err := cfg.TOML()
	require.NoError(t, err)
	require.NotContains(t, out, "supersecret")
	require.Equal(t, "sk_live_supersecret", cfg.Server.PaystackSecret, "original untouched")
}

func TestConfig_CloneIsDeep(t *testing.T) {
	cfg := Default()
	clone := cfg.Clone()
	clone.Session.Personalities[0] = "Changed"
	require.Equal(t, "Calm Mentor", cfg.Session.Personalities[0])
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Session.Personality = "Coach"
	require.NoError(t, SaveTOML(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "Coach", loaded.Session.Personality)
}

// =============================================================================
// GLOBAL
// =============================================================================

// Run with: go test -race ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetGlobal(Default())
		}()
		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}
	wg.Wait()
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	cfg := Default()
	cfg.Session.FreeLimit = 42
	SetGlobal(cfg)
	require.Equal(t, 42, Global().Session.FreeLimit)

	require.NoError(t, ReloadGlobal())
	require.Equal(t, 10, Global().Session.FreeLimit)
}

// =============================================================================
// WATCH
// =============================================================================

func TestWatch_ReloadsOnWrite(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session]\npersonality = \"Friend\"\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Config, 4)
	require.NoError(t, Watch(ctx, path, func(cfg *Config, err error) {
		if err == nil {
			got <- cfg
		}
	}))

	require.NoError(t, os.WriteFile(path, []byte("[session]\npersonality = \"Coach\"\n"), 0600))

	select {
	case cfg := <-got:
		require.Equal(t, "Coach", cfg.Session.Personality)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}
