// Package render writes model output, notices and code boxes to the
// terminal.
package render

import (
	"charm.land/lipgloss/v2"
)

// Color palette - ANSI 256 colors
var (
	ColorInfo    = lipgloss.Color("39")  // Blue
	ColorWarning = lipgloss.Color("214") // Prompts and provider failures
	ColorError   = lipgloss.Color("196")
	ColorSuccess = lipgloss.Color("42")
	ColorLabel   = lipgloss.Color("141") // Provider label (accent)

	ColorCode   = lipgloss.Color("51") // Cyan
	ColorCodeBg = lipgloss.Color("235")
	ColorBorder = lipgloss.Color("37")
)

var (
	InfoStyle    = lipgloss.NewStyle().Foreground(ColorInfo)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorLabel).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorInfo).
			Bold(true)

	// InlineCodeStyle highlights `code` spans outside fenced blocks.
	InlineCodeStyle = lipgloss.NewStyle().
			Foreground(ColorCode).
			Background(ColorCodeBg).
			Bold(true)

	// InlineCodeStyleBasic is used on terminals without truecolor under zsh.
	InlineCodeStyleBasic = lipgloss.NewStyle().
				Foreground(ColorCode)

	BorderStyle = lipgloss.NewStyle().Foreground(ColorBorder)
)
