// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for dailymind.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, validation and live reload.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ServiceConfig: Chat service endpoints and timeouts
//   - SessionConfig: Free limit, personalities, email policy
//   - ServerConfig: Reference backend settings
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DAILYMIND_*, PAYSTACK_SECRET_KEY)
//   - ~/.dailymind/config.toml
//   - ~/.dailymind/config.json
//   - Built-in defaults
//
// DAILYMIND_HOME replaces ~/.dailymind.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	timeout := cfg.Service.ConnectTimeout()
package config
