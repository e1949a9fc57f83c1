// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dailymind/dailymind-tui/internal/config"
	"github.com/dailymind/dailymind-tui/internal/logging"
	"github.com/dailymind/dailymind-tui/internal/ui/chat"
	"github.com/dailymind/dailymind-tui/internal/ui/styles"
)

// runTUI runs the full-screen chat until the user quits.
func runTUI(ctx context.Context, opts *globalOptions) error {
	app, err := newApp(opts)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx = logging.WithLogger(ctx, app.Logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := chat.New(chat.Options{
		Controller:     app.Ctrl,
		Theme:          styles.NewTheme(app.Config.UI.Theme),
		RenderMarkdown: app.Config.UI.RenderMarkdown,
		OpenURL:        openURL,
		Context:        ctx,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	app.Ctrl.SetSurface(chat.NewProgramSurface(p))

	// Surface calls block until the event loop is running, so Start must not
	// run on this goroutine.
	go func() {
		if err := app.Ctrl.Start(ctx); err != nil {
			app.Logger.Error("start session", "error", err)
			p.Send(chat.StatusMsg("could not load saved state: " + err.Error()))
		}
	}()

	if path := opts.watchPath(); path != "" {
		watchConfig(ctx, path, app, p)
	}

	_, err = p.Run()
	app.archiveTranscript()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("run chat: %w", err)
	}
	return nil
}

// watchConfig applies live-reloadable settings to the running session until
// ctx is done.
func watchConfig(ctx context.Context, path string, app *App, p *tea.Program) {
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			app.Logger.Warn("config reload failed", "path", path, "error", err)
			p.Send(chat.StatusMsg("config reload failed"))
			return
		}
		app.Ctrl.ApplyConfig(sessionConfig(cfg))
		app.Logger.Info("config reloaded", "path", path)
		p.Send(chat.StatusMsg("config reloaded"))
	})
	if err != nil {
		app.Logger.Warn("config watch disabled", "path", path, "error", err)
	}
}
