package report

import "github.com/charmbracelet/lipgloss"

type Theme struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	OK      lipgloss.Style
	Failed  lipgloss.Style
	Skipped lipgloss.Style
	Planned lipgloss.Style
	Pending lipgloss.Style
}

func DefaultTheme() Theme {
	success := lipgloss.Color("#22C55E")
	warning := lipgloss.Color("#EAB308")
	errorC := lipgloss.Color("#EF4444")
	muted := lipgloss.Color("#6B7280")
	secondary := lipgloss.Color("#06B6D4")

	return Theme{
		Title:   lipgloss.NewStyle().Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(muted),
		OK:      lipgloss.NewStyle().Foreground(success).Bold(true),
		Failed:  lipgloss.NewStyle().Foreground(errorC).Bold(true),
		Skipped: lipgloss.NewStyle().Foreground(muted),
		Planned: lipgloss.NewStyle().Foreground(secondary),
		Pending: lipgloss.NewStyle().Foreground(warning),
	}
}

// PlainTheme renders without any ANSI styling.
func PlainTheme() Theme {
	s := lipgloss.NewStyle()
	return Theme{Title: s, Muted: s, OK: s, Failed: s, Skipped: s, Planned: s, Pending: s}
}
