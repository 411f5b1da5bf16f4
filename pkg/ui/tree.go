// Hierarchical tree view over the entity arena. The view walks only
// visible nodes, so collapsed subtrees cost nothing to render.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"treescope/pkg/hierarchy"
)

// TreeModel renders the entity hierarchy as an indented outline with
// expand/collapse indicators. The cursor moves over the flat list of
// visible nodes.
type TreeModel struct {
	tree   *hierarchy.Tree
	theme  Theme
	width  int
	height int

	cursor int
	offset int   // first visible row
	flat   []int // visible node indices, preorder
}

// NewTreeModel creates an empty tree view.
func NewTreeModel(theme Theme) TreeModel {
	return TreeModel{theme: theme}
}

// SetSize updates the viewport dimensions.
func (t *TreeModel) SetSize(width, height int) {
	t.width = width
	t.height = height
	t.clampScroll()
}

// SetTree attaches a hierarchy and resets the cursor to the root.
func (t *TreeModel) SetTree(tree *hierarchy.Tree) {
	t.tree = tree
	t.cursor = 0
	t.offset = 0
	t.rebuild()
}

// Tree returns the underlying hierarchy.
func (t *TreeModel) Tree() *hierarchy.Tree {
	return t.tree
}

func (t *TreeModel) rebuild() {
	if t.tree == nil {
		t.flat = nil
		return
	}
	t.flat = t.tree.VisibleNodes()
	if t.cursor >= len(t.flat) {
		t.cursor = len(t.flat) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
	t.clampScroll()
}

// SelectedNode returns the arena index under the cursor, or -1.
func (t *TreeModel) SelectedNode() int {
	if t.cursor < 0 || t.cursor >= len(t.flat) {
		return -1
	}
	return t.flat[t.cursor]
}

// MoveDown moves the cursor to the next visible node.
func (t *TreeModel) MoveDown() {
	if t.cursor < len(t.flat)-1 {
		t.cursor++
		t.clampScroll()
	}
}

// MoveUp moves the cursor to the previous visible node.
func (t *TreeModel) MoveUp() {
	if t.cursor > 0 {
		t.cursor--
		t.clampScroll()
	}
}

// JumpToTop moves the cursor to the root.
func (t *TreeModel) JumpToTop() {
	t.cursor = 0
	t.clampScroll()
}

// JumpToBottom moves the cursor to the last visible node.
func (t *TreeModel) JumpToBottom() {
	if len(t.flat) > 0 {
		t.cursor = len(t.flat) - 1
		t.clampScroll()
	}
}

// JumpToParent moves the cursor to the selected node's parent.
func (t *TreeModel) JumpToParent() {
	i := t.SelectedNode()
	if i < 0 {
		return
	}
	parent := t.tree.Node(i).Parent
	if parent == hierarchy.NoParent {
		return
	}
	for row, idx := range t.flat {
		if idx == parent {
			t.cursor = row
			t.clampScroll()
			return
		}
	}
}

// Toggle flips the selected node's collapsed state. It returns the arena
// index of the toggled node, or -1 when nothing changed.
func (t *TreeModel) Toggle() int {
	i := t.SelectedNode()
	if i < 0 || !t.tree.Toggle(i) {
		return -1
	}
	t.rebuild()
	return i
}

// ExpandAll reveals every node.
func (t *TreeModel) ExpandAll() {
	if t.tree == nil {
		return
	}
	t.tree.ExpandAll()
	t.rebuild()
}

// CollapseAll hides everything below the root again.
func (t *TreeModel) CollapseAll() {
	if t.tree == nil {
		return
	}
	t.tree.CollapseBelowRoot()
	t.rebuild()
}

// VisibleCount returns the number of rows the tree currently shows.
func (t *TreeModel) VisibleCount() int {
	return len(t.flat)
}

func (t *TreeModel) clampScroll() {
	if t.height <= 0 {
		return
	}
	if t.cursor < t.offset {
		t.offset = t.cursor
	}
	if t.cursor >= t.offset+t.height {
		t.offset = t.cursor - t.height + 1
	}
	if t.offset < 0 {
		t.offset = 0
	}
}

// View renders the visible window of the tree.
func (t *TreeModel) View() string {
	if t.tree == nil || len(t.flat) == 0 {
		return t.theme.StatusBar.Render("No entities to display.")
	}

	end := len(t.flat)
	if t.height > 0 && t.offset+t.height < end {
		end = t.offset + t.height
	}

	var sb strings.Builder
	for row := t.offset; row < end; row++ {
		line := t.renderNode(t.flat[row])
		if row == t.cursor {
			line = t.theme.Selected.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}

func (t *TreeModel) renderNode(i int) string {
	n := t.tree.Node(i)
	r := t.theme.Renderer
	var sb strings.Builder

	sb.WriteString(t.prefix(i))

	indicator := "•"
	if n.HasChildren() {
		if n.Collapsed {
			indicator = "▶"
		} else {
			indicator = "▼"
		}
	}
	sb.WriteString(r.NewStyle().Foreground(t.theme.Secondary).Render(indicator))
	sb.WriteString(" ")

	name := n.Name
	maxLen := t.width - lipgloss.Width(sb.String()) - 4
	if maxLen >= 8 {
		name = truncate(name, maxLen)
	}
	sb.WriteString(name)

	if n.URL != "" {
		sb.WriteString(" ")
		sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render("↗"))
	}
	if n.Collapsed {
		hidden := len(n.Children)
		sb.WriteString(" ")
		sb.WriteString(r.NewStyle().Foreground(t.theme.Muted).Render(fmt.Sprintf("(%d)", hidden)))
	}
	return sb.String()
}

// prefix builds the branch characters for one row.
func (t *TreeModel) prefix(i int) string {
	n := t.tree.Node(i)
	if n.Depth == 0 {
		return ""
	}

	ancestors := t.tree.Ancestors(i)
	var parts []string
	// One guide column per ancestor below the root: a vertical line keeps
	// running while that ancestor still has siblings below it.
	for _, a := range ancestors[1:] {
		if t.hasSiblingsBelow(a) {
			parts = append(parts, "│   ")
		} else {
			parts = append(parts, "    ")
		}
	}
	if t.isLastChild(i) {
		parts = append(parts, "└── ")
	} else {
		parts = append(parts, "├── ")
	}
	return t.theme.StatusBar.Render(strings.Join(parts, ""))
}

func (t *TreeModel) isLastChild(i int) bool {
	parent := t.tree.Node(i).Parent
	if parent == hierarchy.NoParent {
		return true
	}
	siblings := t.tree.Node(parent).Children
	return len(siblings) > 0 && siblings[len(siblings)-1] == i
}

func (t *TreeModel) hasSiblingsBelow(i int) bool {
	return !t.isLastChild(i)
}

func truncate(s string, maxLen int) string {
	if runewidth.StringWidth(s) <= maxLen {
		return s
	}
	return runewidth.Truncate(s, maxLen-1, "…")
}
