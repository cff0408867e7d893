package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the scanner's colors.
type Theme struct {
	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Border  string
}

// DefaultTheme is a green palette on the terminal's own background.
var DefaultTheme = Theme{
	Text:    "#E5E7EB",
	Muted:   "#9CA3AF",
	Accent:  "#22C55E",
	Success: "#16A34A",
	Warning: "#EAB308",
	Danger:  "#EF4444",
	Border:  "#4B5563",
}

// Styles contains pre-built Lipgloss styles for a theme.
type Styles struct {
	Title      lipgloss.Style
	Text       lipgloss.Style
	MutedText  lipgloss.Style
	Heading    lipgloss.Style
	ActiveTab  lipgloss.Style
	Tab        lipgloss.Style
	Card       lipgloss.Style
	DotFilled  lipgloss.Style
	DotEmpty   lipgloss.Style
	DangerText lipgloss.Style
	Notice     lipgloss.Style
	Help       lipgloss.Style
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),

		Text: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)),

		MutedText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)),

		Heading: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Text)).
			Bold(true).
			MarginTop(1),

		ActiveTab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true).
			Underline(true).
			Padding(0, 1),

		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),

		DotFilled: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)),

		DotEmpty: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Border)),

		DangerText: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),

		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Warning)),

		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			MarginTop(1),
	}
}
