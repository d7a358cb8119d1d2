package tui

import "github.com/charmbracelet/lipgloss"

var (
	Primary = lipgloss.Color("#FF6B35")
	Success = lipgloss.Color("#4CAF50")
	Warning = lipgloss.Color("#FFB74D")
	Error   = lipgloss.Color("#F44336")
	Text    = lipgloss.Color("#E0E0E0")
	Muted   = lipgloss.Color("#90A4AE")
	Track   = lipgloss.Color("#30363D")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(Text).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(Text)

	mutedStyle = lipgloss.NewStyle().
			Foreground(Muted)

	statusStyle = lipgloss.NewStyle().
			Foreground(Success)

	errorStyle = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	sliderFilledStyle = lipgloss.NewStyle().Foreground(Primary)
	sliderKnobStyle   = lipgloss.NewStyle().Foreground(Warning).Bold(true)
	sliderTrackStyle  = lipgloss.NewStyle().Foreground(Track)
)
