// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the dailymind command line.
//
// With no subcommand, dailymind opens the full-screen chat when both stdin
// and stdout are terminals and falls back to the line REPL otherwise.
//
// Commands:
//
//	dailymind                 chat (TUI or REPL)
//	dailymind chat            line REPL with history and slash commands
//	dailymind verify          run the premium check once
//	dailymind status          show identity, quota and lock state
//	dailymind reset           forget the saved email, counter and premium flag
//	dailymind history         list, search or delete archived conversations
//	dailymind export <ref>    print an archived conversation as Markdown or JSON
//	dailymind config show     print the effective configuration
//	dailymind config path     print the config file location
//	dailymind config init     write a default config file
//	dailymind version         print the version
//
// Persistent flags --config, --base-url, --log-level and --prefs-backend
// override the config file and environment for a single invocation.
package cli
