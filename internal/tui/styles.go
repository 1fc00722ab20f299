package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Adaptive colors keep text readable on light terminals.
var (
	accent = lipgloss.AdaptiveColor{Light: "162", Dark: "212"}
	muted  = lipgloss.AdaptiveColor{Light: "244", Dark: "241"}
	text   = lipgloss.AdaptiveColor{Light: "235", Dark: "252"}
	good   = lipgloss.AdaptiveColor{Light: "28", Dark: "78"}
	bad    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	warn   = lipgloss.AdaptiveColor{Light: "166", Dark: "214"}
	link   = lipgloss.AdaptiveColor{Light: "25", Dark: "111"}
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(accent)
	subtitleStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)
	intentStyle   = lipgloss.NewStyle().Bold(true).Foreground(link)
	bodyStyle     = lipgloss.NewStyle().Foreground(text)
	listItemStyle = bodyStyle
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)

	successStyle = lipgloss.NewStyle().Foreground(good)
	errorStyle   = lipgloss.NewStyle().Foreground(bad)
	warnStyle    = lipgloss.NewStyle().Foreground(warn)
	dimStyle     = lipgloss.NewStyle().Foreground(muted)
	helpStyle    = dimStyle

	statusBarStyle = lipgloss.NewStyle().
			Foreground(muted).
			Background(lipgloss.AdaptiveColor{Light: "254", Dark: "236"}).
			Padding(0, 1)
)

// confidenceStyles colors an answer's confidence grade.
var confidenceStyles = map[string]lipgloss.Style{
	"high":   successStyle,
	"medium": warnStyle,
	"low":    errorStyle,
}
