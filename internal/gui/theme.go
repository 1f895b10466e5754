package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

var (
	colorWindow    = color.NRGBA{R: 0x35, G: 0x35, B: 0x35, A: 0xFF}
	colorBase      = color.NRGBA{R: 0x19, G: 0x19, B: 0x19, A: 0xFF}
	colorText      = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	colorHighlight = color.NRGBA{R: 0x37, G: 0x63, B: 0x63, A: 0xFF}
	colorLink      = color.NRGBA{R: 0x2A, G: 0x82, B: 0xDA, A: 0xFF}
	colorError     = color.NRGBA{R: 0xFF, G: 0x00, B: 0x00, A: 0xFF}
	colorSuccess   = color.NRGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
)

// darkTheme is the dark palette of the settings window. It ignores the
// system variant so the window looks the same everywhere.
type darkTheme struct{}

func (t *darkTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground, theme.ColorNameButton, theme.ColorNameOverlayBackground, theme.ColorNameMenuBackground:
		return colorWindow
	case theme.ColorNameInputBackground:
		return colorBase
	case theme.ColorNameForeground:
		return colorText
	case theme.ColorNamePrimary, theme.ColorNameFocus, theme.ColorNameSelection:
		return colorHighlight
	case theme.ColorNameHyperlink:
		return colorLink
	case theme.ColorNameError:
		return colorError
	case theme.ColorNameSuccess:
		return colorSuccess
	default:
		return theme.DefaultTheme().Color(name, theme.VariantDark)
	}
}

func (t *darkTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *darkTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameText:
		return 13
	default:
		return theme.DefaultTheme().Size(name)
	}
}
