// Package ui provides the LotiSmart desktop application.
//
// This file defines a compact Fyne theme with a selectable light/dark variant.

package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// LotiSmartTheme wraps the default Fyne theme with compact sizing overrides.
// With no fixed variant it follows the system setting.
type LotiSmartTheme struct {
	base    fyne.Theme
	variant *fyne.ThemeVariant
}

// NewLotiSmartTheme creates a theme that follows the system variant.
func NewLotiSmartTheme() *LotiSmartTheme {
	return &LotiSmartTheme{base: theme.DefaultTheme()}
}

// ThemeForName returns the theme for a config value: "light", "dark" or
// anything else for the system default.
func ThemeForName(name string) *LotiSmartTheme {
	t := NewLotiSmartTheme()
	switch name {
	case "light":
		t.SetVariant(theme.VariantLight)
	case "dark":
		t.SetVariant(theme.VariantDark)
	}
	return t
}

// SetVariant fixes the light/dark variant.
func (t *LotiSmartTheme) SetVariant(variant fyne.ThemeVariant) {
	t.variant = &variant
}

// Color delegates to the base theme with the fixed variant, if any.
func (t *LotiSmartTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	if t.variant != nil {
		variant = *t.variant
	}
	return t.base.Color(name, variant)
}

func (t *LotiSmartTheme) Font(style fyne.TextStyle) fyne.Resource {
	return t.base.Font(style)
}

func (t *LotiSmartTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return t.base.Icon(name)
}

// Size returns compact sizing overrides for a dense layout.
func (t *LotiSmartTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 12
	case theme.SizeNameCaptionText:
		return 9
	case theme.SizeNameHeadingText:
		return 20
	case theme.SizeNameSubHeadingText:
		return 15
	case theme.SizeNamePadding:
		return 3
	case theme.SizeNameInnerPadding:
		return 6
	case theme.SizeNameInlineIcon:
		return 16
	default:
		return t.base.Size(name)
	}
}
