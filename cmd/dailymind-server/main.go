// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package main runs the DailyMind reference backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dailymind/dailymind-tui/internal/accounts"
	"github.com/dailymind/dailymind-tui/internal/config"
	"github.com/dailymind/dailymind-tui/internal/logging"
	"github.com/dailymind/dailymind-tui/internal/payment"
	"github.com/dailymind/dailymind-tui/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "dailymind-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to config file (default: ~/.dailymind/config.toml)")
	flag.Parse()

	// A missing .env is fine.
	_ = godotenv.Load()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewServer(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	store, err := accounts.Open(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("open accounts: %w", err)
	}
	defer store.Close()

	responder, err := server.NewResponder(cfg.Server.Responder, cfg.Server.OllamaURL, cfg.Server.OllamaModel, logger)
	if err != nil {
		return err
	}
	if cfg.Server.PaystackSecret == "" {
		logger.Warn("PAYSTACK_SECRET_KEY not set; /payment-success will reject every reference")
	}

	srv := server.New(server.Options{
		Config:   server.ConfigFrom(cfg.Server),
		Accounts: store,
		Payments: payment.NewVerifier(&payment.Config{
			BaseURL:   cfg.Server.PaystackBaseURL,
			SecretKey: cfg.Server.PaystackSecret,
			Logger:    logger,
		}),
		Responder: responder,
		Logger:    logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // replies stream
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", cfg.Server.Addr,
			"db", cfg.Server.DBPath,
			"responder", responder.Name(),
			"free_limit", cfg.Server.FreeLimit)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
