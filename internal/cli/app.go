// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dailymind/dailymind-tui/internal/client"
	"github.com/dailymind/dailymind-tui/internal/config"
	"github.com/dailymind/dailymind-tui/internal/identity"
	"github.com/dailymind/dailymind-tui/internal/logging"
	"github.com/dailymind/dailymind-tui/internal/model"
	"github.com/dailymind/dailymind-tui/internal/prefs"
	"github.com/dailymind/dailymind-tui/internal/session"
	"github.com/dailymind/dailymind-tui/internal/storage"
)

// =============================================================================
// GLOBAL OPTIONS
// =============================================================================

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath   string
	baseURL      string
	logLevel     string
	prefsBackend string
}

// loadConfig resolves the effective configuration: file, environment, then
// flags.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.baseURL != "" {
		cfg.Service.BaseURL = strings.TrimRight(o.baseURL, "/")
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.prefsBackend != "" {
		cfg.SetPrefsBackend(o.prefsBackend)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// watchPath returns the config file a live session should watch, or "".
func (o *globalOptions) watchPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.ActivePath()
}

// =============================================================================
// APP
// =============================================================================

// App is one wired client: config, logger, preference store, identity,
// HTTP client, controller and archive.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Store   prefs.Store
	IDs     *identity.Manager
	Client  *client.Client
	Ctrl    *session.Controller
	Archive *storage.ConversationStore

	logCloser io.Closer
}

// newApp wires an App from the resolved configuration. The controller starts
// with no surface; callers attach one before Start.
func newApp(opts *globalOptions) (*App, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	store, err := prefs.Open(cfg.Storage.PrefsBackend, cfg.Storage.PrefsPath)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("open preferences: %w", err)
	}

	archive, err := storage.NewConversationStore(cfg.Storage.HistoryDir, cfg.Storage.MaxConversations)
	if err != nil {
		prefs.Close(store)
		logCloser.Close()
		return nil, fmt.Errorf("open history: %w", err)
	}

	c := client.New(&client.Config{
		BaseURL:        cfg.Service.BaseURL,
		ChatPath:       cfg.Service.ChatPath,
		PremiumPath:    cfg.Service.PremiumPath,
		ConnectTimeout: cfg.Service.ConnectTimeout(),
		Logger:         logger,
	})
	ids := identity.NewManager(store, c, logger)
	ctrl := session.New(sessionConfig(cfg), ids, c, nil, logger)

	logger.Debug("client wired",
		"base_url", cfg.Service.BaseURL,
		"prefs_backend", cfg.Storage.PrefsBackend,
		"history_dir", cfg.Storage.HistoryDir)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		IDs:       ids,
		Client:    c,
		Ctrl:      ctrl,
		Archive:   archive,
		logCloser: logCloser,
	}, nil
}

// sessionConfig maps the file configuration onto the controller settings.
func sessionConfig(cfg *config.Config) session.Config {
	return session.Config{
		FreeLimit:     cfg.Session.FreeLimit,
		Personality:   cfg.Session.Personality,
		Personalities: cfg.Session.Personalities,
		IdleTimeout:   cfg.Service.StreamIdleTimeout(),
		VerifyOnStart: cfg.Session.VerifyOnStart,
		UpgradeURL:    cfg.Service.UpgradeURL,
	}
}

// archiveTranscript saves the session transcript. Empty sessions are skipped.
func (a *App) archiveTranscript() {
	conv := model.NewConversation(a.Ctrl.Personality(), a.Ctrl.Transcript().Entries())
	id, err := a.Archive.Save(conv)
	if err != nil {
		a.Logger.Warn("archive transcript", "error", err)
		return
	}
	if id != "" {
		a.Logger.Info("transcript archived", "id", id, "messages", conv.MessageCount())
	}
}

// historyFile is where the REPL keeps its line history.
func (a *App) historyFile() string {
	dir, err := config.ConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "chat_history")
}

// Close releases the store and the log file.
func (a *App) Close() error {
	return errors.Join(prefs.Close(a.Store), a.logCloser.Close())
}
