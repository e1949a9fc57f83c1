// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme names accepted by NewTheme.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
	ThemeAuto  = "auto"
	ThemeNone  = "none"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Name is the resolved theme name
	Name string

	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	renderer *lipgloss.Renderer

	// ==========================================================================
	// HEADER AND STATUS
	// ==========================================================================

	Header       lipgloss.Style
	HeaderBrand  lipgloss.Style
	StatusBar    lipgloss.Style
	StatusKey    lipgloss.Style
	PremiumBadge lipgloss.Style
	QuotaOK      lipgloss.Style
	QuotaLow     lipgloss.Style
	LockBadge    lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantText  lipgloss.Style
	Notice         lipgloss.Style
	ErrorNotice    lipgloss.Style
	LockNotice     lipgloss.Style
	Upgrade        lipgloss.Style
	Timestamp      lipgloss.Style
	Cursor         lipgloss.Style

	// ==========================================================================
	// INPUT AND MODAL
	// ==========================================================================

	InputBorder   lipgloss.Style
	InputDisabled lipgloss.Style
	Modal         lipgloss.Style
	ModalTitle    lipgloss.Style
	ModalError    lipgloss.Style
	Hint          lipgloss.Style
}

// NewTheme creates a theme writing to stdout. Unknown names fall back to
// dark; NO_COLOR forces none.
func NewTheme(name string) *Theme {
	return NewThemeFor(os.Stdout, name)
}

// NewThemeFor creates a theme whose renderer targets w.
func NewThemeFor(w io.Writer, name string) *Theme {
	name = strings.ToLower(strings.TrimSpace(name))
	if os.Getenv("NO_COLOR") != "" {
		name = ThemeNone
	}

	r := lipgloss.NewRenderer(w)
	t := &Theme{renderer: r}

	switch name {
	case ThemeNone:
		r.SetColorProfile(termenv.Ascii)
		t.IsDark = true
	case ThemeLight:
		r.SetHasDarkBackground(false)
		t.IsDark = false
	case ThemeAuto:
		t.IsDark = r.HasDarkBackground()
	default:
		name = ThemeDark
		r.SetHasDarkBackground(true)
		t.IsDark = true
	}
	t.Name = name
	t.ColorProfile = r.ColorProfile()

	t.initStyles()
	return t
}

// Renderer returns the lipgloss renderer the styles were built with.
func (t *Theme) Renderer() *lipgloss.Renderer {
	return t.renderer
}

// Plain reports whether colors are disabled.
func (t *Theme) Plain() bool {
	return t.Name == ThemeNone
}

func (t *Theme) initStyles() {
	s := t.renderer.NewStyle

	// Header and status
	t.Header = s().
		Bold(true).
		Foreground(Cyan).
		Background(SurfaceDim).
		Padding(0, 1)
	t.HeaderBrand = s().Bold(true).Foreground(Purple)
	t.StatusBar = s().Foreground(TextSecondary).Background(SurfaceDim).Padding(0, 1)
	t.StatusKey = s().Bold(true).Foreground(TextPrimary)
	t.PremiumBadge = s().Bold(true).Foreground(TextInverse).Background(Emerald).Padding(0, 1)
	t.QuotaOK = s().Foreground(Emerald)
	t.QuotaLow = s().Foreground(Amber)
	t.LockBadge = s().Bold(true).Foreground(TextInverse).Background(Rose).Padding(0, 1)

	// Transcript
	t.UserLabel = s().Bold(true).Foreground(Cyan)
	t.UserText = s().Foreground(TextPrimary)
	t.AssistantLabel = s().Bold(true).Foreground(Purple)
	t.AssistantText = s().Foreground(TextPrimary)
	t.Notice = s().Italic(true).Foreground(TextSecondary)
	t.ErrorNotice = s().Foreground(Amber)
	t.LockNotice = s().Bold(true).Foreground(Rose)
	t.Upgrade = s().
		Bold(true).
		Foreground(Amber).
		Background(AmberDeep).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Amber).
		Padding(0, 2)
	t.Timestamp = s().Foreground(TextMuted)
	t.Cursor = s().Foreground(Purple).Blink(true)

	// Input and modal
	t.InputBorder = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(0, 1)
	t.InputDisabled = s().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Foreground(TextMuted).
		Padding(0, 1)
	t.Modal = s().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Cyan).
		Padding(1, 3)
	t.ModalTitle = s().Bold(true).Foreground(Cyan).MarginBottom(1)
	t.ModalError = s().Foreground(Rose)
	t.Hint = s().Foreground(TextMuted)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)
