package termview

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#8BC34A")
	colorMuted   = lipgloss.Color("#7A8599")
	colorBorder  = lipgloss.Color("#2A3850")
	colorError   = lipgloss.Color("#E53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
)

type styles struct {
	card    lipgloss.Style
	title   lipgloss.Style
	store   lipgloss.Style
	price   lipgloss.Style
	inStock lipgloss.Style
	noStock lipgloss.Style
	stars   lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	err     lipgloss.Style
}

func newStyles(width int) styles {
	return styles{
		card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(width),
		title:   lipgloss.NewStyle().Bold(true),
		store:   lipgloss.NewStyle().Foreground(colorMuted),
		price:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		inStock: lipgloss.NewStyle().Foreground(colorAccent),
		noStock: lipgloss.NewStyle().Foreground(colorError),
		stars:   lipgloss.NewStyle().Foreground(colorWarning),
		muted:   lipgloss.NewStyle().Foreground(colorMuted).Italic(true),
		header:  lipgloss.NewStyle().Bold(true).Underline(true),
		info:    lipgloss.NewStyle().Foreground(colorInfo),
		warning: lipgloss.NewStyle().Foreground(colorWarning),
		err:     lipgloss.NewStyle().Foreground(colorError).Bold(true),
	}
}
