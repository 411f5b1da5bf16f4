package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const helpContent = `**Navigation**
  j/k       Move down/up
  g/G       Jump to top/bottom
  p         Jump to parent
  tab       Switch tree/detail focus

**Actions**
  enter     Toggle node, open its URL
  o         Open URL in browser
  c         Copy URL (or name) to clipboard
  e         Expand every node
  w         Collapse back to the root

**Reading the tree**
  ▶ (3)     Collapsed, 3 children hidden
  ▼         Expanded
  ↗         Node has a URL`

// RenderHelp renders the keybinding reference modal.
func RenderHelp(theme Theme, width int) string {
	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}

	r := theme.Renderer
	titleStyle := r.NewStyle().Bold(true).Foreground(theme.Primary)
	footerStyle := r.NewStyle().Foreground(theme.Muted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Muted).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(helpContent)
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Press ? or Esc to close"))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth).
		Render(b.String())
}
