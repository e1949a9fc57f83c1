// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the dailymind TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. NewTheme builds the styles for one of the configured themes:

  - dark, light: force the background assumption
  - auto: ask the terminal via termenv
  - none: no color at all (also used when NO_COLOR is set)

# Usage

	theme := styles.NewTheme(cfg.UI.Theme)
	line := theme.UserLabel.Render("You") + " " + theme.UserText.Render(text)
*/
package styles
