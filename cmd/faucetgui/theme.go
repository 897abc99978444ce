package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

type appTheme struct {
	mode    string
	compact bool
}

func makeTheme(mode string, compact bool) fyne.Theme { return &appTheme{mode: mode, compact: compact} }

func (t *appTheme) base() fyne.Theme {
	if t.mode == "light" {
		return theme.LightTheme()
	}
	return theme.DarkTheme()
}

func (t *appTheme) Color(n fyne.ThemeColorName, v fyne.ThemeVariant) color.Color {
	isDark := t.mode == "dark"

	switch n {
	case theme.ColorNamePrimary:
		return color.NRGBA{131, 110, 249, 255}
	case theme.ColorNameForeground:
		if isDark {
			return color.NRGBA{240, 240, 240, 255}
		}
		return color.NRGBA{0, 0, 0, 255}
	case theme.ColorNamePlaceHolder, theme.ColorNameDisabled:
		if isDark {
			return color.NRGBA{200, 200, 200, 255}
		}
		return color.NRGBA{90, 90, 90, 255}
	}
	return t.base().Color(n, v)
}

func (t *appTheme) Font(style fyne.TextStyle) fyne.Resource { return t.base().Font(style) }
func (t *appTheme) Icon(n fyne.ThemeIconName) fyne.Resource { return t.base().Icon(n) }

func (t *appTheme) Size(n fyne.ThemeSizeName) float32 {
	base := t.base().Size(n)
	if t.compact {
		switch n {
		case theme.SizeNameText:
			return base * 0.95
		case theme.SizeNamePadding:
			return base * 0.85
		}
		return base
	}
	switch n {
	case theme.SizeNameText:
		return base * 1.05
	case theme.SizeNamePadding:
		return base * 1.10
	}
	return base
}
