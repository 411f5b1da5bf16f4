// Package hierarchy holds the mutable in-memory tree derived from an input
// document. Nodes live in a flat arena addressed by index, each carrying a
// parent index, ordered child indices, and a collapsed flag. Identities are
// assigned once by a counter owned by the tree and never change for the
// lifetime of the session, which is what keeps animated re-renders stable.
package hierarchy

import (
	"treescope/pkg/model"
)

// NoParent marks the root's parent index.
const NoParent = -1

// Node is one arena entry. X/Y are the most recently computed layout
// coordinates; PrevX/PrevY hold the coordinates from the previous layout
// pass and anchor the animations of entering and exiting elements.
type Node struct {
	ID       int   // synthetic identity, stable for the session
	Parent   int   // arena index of the parent, NoParent for the root
	Children []int // arena indices of children, in document order
	Depth    int   // 0 = root

	Name        string
	Description string
	URL         string

	// Collapsed hides the node's descendants. The original recipe swapped
	// children between two container fields; a flag keeps the same
	// observable behavior without the aliasing.
	Collapsed bool

	X, Y         float64
	PrevX, PrevY float64
}

// HasChildren reports whether the node has any children, hidden or not.
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Tooltip returns the node's hover text, falling back to the name when the
// description is absent.
func (n *Node) Tooltip() string {
	if n.Description != "" {
		return n.Description
	}
	return n.Name
}

// Tree is the arena of nodes plus the identity counter. Index 0 is always
// the root when the tree is non-empty.
type Tree struct {
	nodes  []Node
	nextID int
}

// Build derives a hierarchy from an entity document. Identities are handed
// out depth-first in document order, so a given dataset always produces the
// same IDs within a session. A nil root yields an empty tree.
func Build(root *model.Entity) *Tree {
	t := &Tree{}
	if root == nil {
		return t
	}
	t.add(root, NoParent, 0)
	return t
}

func (t *Tree) add(e *model.Entity, parent, depth int) int {
	idx := len(t.nodes)
	t.nodes = append(t.nodes, Node{
		ID:          t.nextID,
		Parent:      parent,
		Depth:       depth,
		Name:        e.Name,
		Description: e.Description,
		URL:         e.URL,
	})
	t.nextID++
	for _, child := range e.Children {
		if child == nil {
			continue
		}
		ci := t.add(child, idx, depth+1)
		t.nodes[idx].Children = append(t.nodes[idx].Children, ci)
	}
	return idx
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Node returns the arena entry at index i. The pointer stays valid for the
// tree's lifetime; the arena never reallocates after Build.
func (t *Tree) Node(i int) *Node {
	return &t.nodes[i]
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return &t.nodes[0]
}

// CollapseBelowRoot collapses every node below the root that has children.
// The root itself stays expanded. This is the initial-load state: only the
// root's immediate children are visible.
func (t *Tree) CollapseBelowRoot() {
	for i := 1; i < len(t.nodes); i++ {
		if len(t.nodes[i].Children) > 0 {
			t.nodes[i].Collapsed = true
		}
	}
}

// ExpandAll reveals every node in the tree.
func (t *Tree) ExpandAll() {
	for i := range t.nodes {
		t.nodes[i].Collapsed = false
	}
}

// Toggle flips the clicked node between hidden and visible children. The
// swap is non-recursive: descendants keep whatever collapsed state they had,
// exactly as the clicked node's children were left behind when it collapsed.
// Toggling a leaf is a no-op; Toggle reports whether anything changed.
func (t *Tree) Toggle(i int) bool {
	if i < 0 || i >= len(t.nodes) {
		return false
	}
	if len(t.nodes[i].Children) == 0 {
		return false
	}
	t.nodes[i].Collapsed = !t.nodes[i].Collapsed
	return true
}

// HasHiddenChildren reports whether node i currently hides its children.
// This drives the marker fill in every renderer.
func (t *Tree) HasHiddenChildren(i int) bool {
	return t.nodes[i].Collapsed && len(t.nodes[i].Children) > 0
}

// VisibleChildren returns the child indices of node i when they are shown,
// nil when the node is collapsed.
func (t *Tree) VisibleChildren(i int) []int {
	if t.nodes[i].Collapsed {
		return nil
	}
	return t.nodes[i].Children
}

// HiddenChildren returns the child indices of node i when they are hidden,
// nil when the node is expanded. At most one of VisibleChildren and
// HiddenChildren is non-empty for any node.
func (t *Tree) HiddenChildren(i int) []int {
	if !t.nodes[i].Collapsed {
		return nil
	}
	return t.nodes[i].Children
}

// VisibleNodes returns the indices of all currently visible nodes in
// depth-first preorder. A node is visible when every ancestor is expanded;
// the root is always visible.
func (t *Tree) VisibleNodes() []int {
	if len(t.nodes) == 0 {
		return nil
	}
	var out []int
	t.appendVisible(0, &out)
	return out
}

func (t *Tree) appendVisible(i int, out *[]int) {
	*out = append(*out, i)
	if t.nodes[i].Collapsed {
		return
	}
	for _, c := range t.nodes[i].Children {
		t.appendVisible(c, out)
	}
}

// Link is a visible parent→child connection. Links are keyed by the child's
// identity when joined against on-screen elements.
type Link struct {
	Parent int // arena index
	Child  int // arena index
}

// VisibleLinks returns the connections between currently visible nodes, in
// the same preorder as VisibleNodes.
func (t *Tree) VisibleLinks() []Link {
	var out []Link
	for _, i := range t.VisibleNodes() {
		if i == 0 {
			continue
		}
		out = append(out, Link{Parent: t.nodes[i].Parent, Child: i})
	}
	return out
}

// IsVisible reports whether node i is currently visible.
func (t *Tree) IsVisible(i int) bool {
	if i < 0 || i >= len(t.nodes) {
		return false
	}
	for p := t.nodes[i].Parent; p != NoParent; p = t.nodes[p].Parent {
		if t.nodes[p].Collapsed {
			return false
		}
	}
	return true
}

// Ancestors returns the arena indices from the root down to node i's parent.
func (t *Tree) Ancestors(i int) []int {
	var rev []int
	for p := t.nodes[i].Parent; p != NoParent; p = t.nodes[p].Parent {
		rev = append(rev, p)
	}
	out := make([]int, len(rev))
	for k, p := range rev {
		out[len(rev)-1-k] = p
	}
	return out
}

// CommitPositions copies every node's current coordinates into its previous
// coordinates. Called at the end of a layout pass so the next pass animates
// from where things actually were.
func (t *Tree) CommitPositions() {
	for i := range t.nodes {
		t.nodes[i].PrevX = t.nodes[i].X
		t.nodes[i].PrevY = t.nodes[i].Y
	}
}
