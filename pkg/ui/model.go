package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"treescope/pkg/analysis"
	"treescope/pkg/hierarchy"
	"treescope/pkg/model"
)

// SplitViewThreshold is the terminal width at which the detail pane sits
// beside the tree instead of replacing it.
const SplitViewThreshold = 100

type state int

const (
	stateLoading state = iota
	stateError
	stateBrowse
)

type focus int

const (
	focusTree focus = iota
	focusDetail
)

// DocLoadedMsg delivers the fetched document to the UI.
type DocLoadedMsg struct {
	Root *model.Entity
}

// DocErrorMsg delivers a load failure. The UI shows it as a generic error
// message; there is no retry.
type DocErrorMsg struct {
	Err error
}

type flashMsg struct {
	text string
}

// LoadCmd runs the document loader off the UI goroutine.
func LoadCmd(load func() (*model.Entity, error)) tea.Cmd {
	return func() tea.Msg {
		root, err := load()
		if err != nil {
			return DocErrorMsg{Err: err}
		}
		return DocLoadedMsg{Root: root}
	}
}

// Model is the top-level bubbletea model: spinner while loading, an error
// state, and the browsable tree with a detail pane.
type Model struct {
	title string
	load  func() (*model.Entity, error)
	theme Theme

	state   state
	loadErr error

	tree     TreeModel
	summary  analysis.Summary
	spinner  spinner.Model
	viewport viewport.Model
	renderer *glamour.TermRenderer

	focused     focus
	isSplitView bool
	showDetails bool
	showHelp    bool
	ready       bool
	width       int
	height      int

	flash string
}

// NewModel creates the UI around a document loader. Loading starts on Init.
func NewModel(title string, load func() (*model.Entity, error), theme Theme) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Renderer.NewStyle().Foreground(theme.Primary)

	return Model{
		title:   title,
		load:    load,
		theme:   theme,
		state:   stateLoading,
		tree:    NewTreeModel(theme),
		spinner: sp,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, LoadCmd(m.load))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case DocLoadedMsg:
		tree := hierarchy.Build(msg.Root)
		tree.CollapseBelowRoot()
		m.tree.SetTree(tree)
		m.summary = analysis.Summarize(tree)
		m.state = stateBrowse
		m.updateViewportContent()

	case DocErrorMsg:
		m.state = stateError
		m.loadErr = msg.Err

	case flashMsg:
		m.flash = msg.text

	case spinner.TickMsg:
		if m.state == stateLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.KeyMsg:
		m.flash = ""
		if m.showHelp {
			switch msg.String() {
			case "?", "esc", "q", "ctrl+c":
				m.showHelp = false
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			if m.showDetails && !m.isSplitView {
				m.showDetails = false
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.showDetails && !m.isSplitView {
				m.showDetails = false
				return m, nil
			}
		case "?":
			m.showHelp = true
			return m, nil
		}
		if m.state != stateBrowse {
			break
		}
		if m.focused == focusDetail {
			switch msg.String() {
			case "tab":
				m.focused = focusTree
			default:
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			}
			break
		}
		switch msg.String() {
		case "tab":
			if m.isSplitView {
				m.focused = focusDetail
			}
		case "j", "down":
			m.tree.MoveDown()
			m.updateViewportContent()
		case "k", "up":
			m.tree.MoveUp()
			m.updateViewportContent()
		case "g", "home":
			m.tree.JumpToTop()
			m.updateViewportContent()
		case "G", "end":
			m.tree.JumpToBottom()
			m.updateViewportContent()
		case "p":
			m.tree.JumpToParent()
			m.updateViewportContent()
		case "enter", " ":
			cmds = append(cmds, m.activate())
		case "o":
			if n := m.selected(); n != nil && n.URL != "" {
				cmds = append(cmds, openURLCmd(n.URL))
			}
		case "c":
			if n := m.selected(); n != nil {
				cmds = append(cmds, copyCmd(n))
			}
		case "e":
			m.tree.ExpandAll()
		case "w":
			m.tree.CollapseAll()
			m.updateViewportContent()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.isSplitView = msg.Width > SplitViewThreshold
		m.ready = true

		headerHeight := 1
		footerHeight := 1
		availableHeight := msg.Height - headerHeight - footerHeight

		if m.isSplitView {
			treeWidth := int(float64(msg.Width) * 0.5)
			detailWidth := msg.Width - treeWidth - 4
			m.tree.SetSize(treeWidth, availableHeight)
			m.viewport = viewport.New(detailWidth, availableHeight-2)
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(m.viewport.Width),
			)
		} else {
			m.tree.SetSize(msg.Width, availableHeight)
			m.viewport = viewport.New(msg.Width, availableHeight-2)
			m.renderer, _ = glamour.NewTermRenderer(
				glamour.WithAutoStyle(),
				glamour.WithWordWrap(m.viewport.Width),
			)
		}
		m.updateViewportContent()
	}

	return m, tea.Batch(cmds...)
}

// activate is the click equivalent: toggle the node, and open its URL when
// it has one.
func (m *Model) activate() tea.Cmd {
	n := m.selected()
	if n == nil {
		return nil
	}
	if m.tree.Toggle() < 0 && !m.isSplitView {
		// Leaves have nothing to toggle; show details instead.
		m.showDetails = true
	}
	m.updateViewportContent()
	if n.URL != "" {
		return openURLCmd(n.URL)
	}
	return nil
}

func (m *Model) selected() *hierarchy.Node {
	i := m.tree.SelectedNode()
	if i < 0 {
		return nil
	}
	return m.tree.Tree().Node(i)
}

func copyCmd(n *hierarchy.Node) tea.Cmd {
	text := n.URL
	if text == "" {
		text = n.Name
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(text); err != nil {
			return flashMsg{text: "copy failed: " + err.Error()}
		}
		return flashMsg{text: "copied " + text}
	}
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		if err := OpenURL(url); err != nil {
			return flashMsg{text: "open failed: " + err.Error()}
		}
		return flashMsg{text: "opened " + url}
	}
}

func (m *Model) updateViewportContent() {
	n := m.selected()
	if n == nil || m.renderer == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString("# " + n.Name + "\n\n")
	if n.Description != "" {
		sb.WriteString(n.Description + "\n\n")
	}
	if n.URL != "" {
		sb.WriteString(fmt.Sprintf("[%s](%s)\n", n.URL, n.URL))
	}
	rendered, err := m.renderer.Render(sb.String())
	if err != nil {
		rendered = sb.String()
	}
	m.viewport.SetContent(rendered)
	m.viewport.GotoTop()
}

func (m Model) View() string {
	if !m.ready {
		return ""
	}

	switch m.state {
	case stateLoading:
		return fmt.Sprintf("\n  %s Loading %s...\n", m.spinner.View(), m.title)

	case stateError:
		errStyle := m.theme.Renderer.NewStyle().Foreground(m.theme.Error)
		return fmt.Sprintf("\n  %s\n\n  %s\n",
			errStyle.Render("Failed to load tree:"),
			m.loadErr)
	}

	if m.showHelp {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			RenderHelp(m.theme, m.width))
	}

	header := m.renderHeader()
	footer := m.renderFooter()

	if m.showDetails && !m.isSplitView {
		return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
	}

	body := m.tree.View()
	if m.isSplitView {
		detail := m.theme.Renderer.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(m.theme.Secondary).
			Render(m.viewport.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, detail)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader() string {
	titleStyle := m.theme.Renderer.NewStyle().Bold(true).Foreground(m.theme.Primary)
	stats := fmt.Sprintf("%d entities · depth %d · %d shown",
		m.summary.Nodes, m.summary.MaxDepth, m.tree.VisibleCount())
	return titleStyle.Render(m.title) + "  " + m.theme.StatusBar.Render(stats)
}

func (m Model) renderFooter() string {
	if m.flash != "" {
		return m.theme.StatusBar.Render(m.flash)
	}
	return m.theme.StatusBar.Render(
		"enter toggle · o open url · c copy · e expand all · w collapse · ? help · q quit")
}
