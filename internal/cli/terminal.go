// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// IsTTY reports whether both in and out are terminals. The full-screen chat
// needs both.
func IsTTY(in io.Reader, out io.Writer) bool {
	return isTerminal(in) && isTerminal(out)
}

// =============================================================================
// COLOR DETECTION
// =============================================================================

// ColorsEnabled reports whether color should be written to out.
// NO_COLOR always wins; FORCE_COLOR enables color on non-terminals.
func ColorsEnabled(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return isTerminal(out)
}

// GetColorProfile returns the color profile to use for out.
func GetColorProfile(out io.Writer) termenv.Profile {
	if !ColorsEnabled(out) {
		return termenv.Ascii
	}
	if isTerminal(out) {
		return termenv.NewOutput(out.(*os.File)).EnvColorProfile()
	}
	return termenv.ANSI256
}
