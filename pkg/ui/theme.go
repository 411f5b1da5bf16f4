package ui

import "github.com/charmbracelet/lipgloss"

// Theme carries the shared styling for all TUI components. A renderer is
// threaded through so styles resolve against the right output profile in
// tests.
type Theme struct {
	Renderer *lipgloss.Renderer

	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor

	Selected  lipgloss.Style
	StatusBar lipgloss.Style
}

// DefaultTheme returns the standard steel-blue theme resolved against the
// given renderer.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	t := Theme{
		Renderer:  r,
		Primary:   lipgloss.AdaptiveColor{Light: "#4682B4", Dark: "#8BB8D8"},
		Secondary: lipgloss.AdaptiveColor{Light: "#B0C4DE", Dark: "#6272A4"},
		Muted:     lipgloss.AdaptiveColor{Light: "#999999", Dark: "#6272A4"},
		Highlight: lipgloss.AdaptiveColor{Light: "#2F4F4F", Dark: "#F1FA8C"},
		Error:     lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF5555"},
	}
	t.Selected = r.NewStyle().Bold(true).Foreground(t.Highlight).Reverse(true)
	t.StatusBar = r.NewStyle().Foreground(t.Muted)
	return t
}
