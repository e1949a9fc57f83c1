// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the full-screen chat view for the TUI.
//
// The Model renders a session.Controller. The controller never touches the
// model directly: ProgramSurface turns every Surface call into a tea.Msg
// that Update applies on the Bubble Tea goroutine.
//
// # Keys
//
//   - Enter: send (or save the email in the capture modal)
//   - Tab: next personality
//   - Ctrl+E: open the email modal
//   - Ctrl+V: verify premium
//   - Ctrl+U: open the upgrade page
//   - PgUp/PgDn: scroll
//   - Ctrl+C: quit
package chat
