package hierarchy

import (
	"testing"

	"pgregory.net/rapid"

	"treescope/pkg/model"
)

// genEntity draws a random entity tree of bounded size and depth.
func genEntity(t *rapid.T) *model.Entity {
	return genEntityAt(t, 0)
}

func genEntityAt(t *rapid.T, depth int) *model.Entity {
	e := &model.Entity{
		Name:        rapid.StringMatching(`[A-Za-z][A-Za-z0-9 ]{0,11}`).Draw(t, "name"),
		Description: rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "desc"),
	}
	if depth >= 4 {
		return e
	}
	n := rapid.IntRange(0, 3).Draw(t, "children")
	for i := 0; i < n; i++ {
		e.Children = append(e.Children, genEntityAt(t, depth+1))
	}
	return e
}

// After the initial collapse, every node below the root hides all of its
// children and shows none, while the root stays expanded.
func TestPropInitialCollapseHidesEverythingBelowRoot(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := Build(genEntity(rt))
		tree.CollapseBelowRoot()

		if tree.Root().Collapsed {
			rt.Fatal("root collapsed after initial load")
		}
		for i := 1; i < tree.Len(); i++ {
			n := tree.Node(i)
			if len(tree.HiddenChildren(i)) != len(n.Children) {
				rt.Fatalf("node %d: hidden count %d != child count %d",
					i, len(tree.HiddenChildren(i)), len(n.Children))
			}
			if len(n.Children) > 0 && len(tree.VisibleChildren(i)) != 0 {
				rt.Fatalf("node %d still shows children after initial collapse", i)
			}
		}
	})
}

// Toggling any node twice restores the exact visible set.
func TestPropDoubleToggleRoundTrips(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := Build(genEntity(rt))
		tree.CollapseBelowRoot()
		if tree.Len() == 0 {
			return
		}
		target := rapid.IntRange(0, tree.Len()-1).Draw(rt, "target")

		before := append([]int(nil), tree.VisibleNodes()...)
		first := tree.Toggle(target)
		second := tree.Toggle(target)
		if first != second {
			rt.Fatalf("toggle changed (%v) then refused to change back (%v)", first, second)
		}

		after := tree.VisibleNodes()
		if len(before) != len(after) {
			rt.Fatalf("visible set size changed: %d -> %d", len(before), len(after))
		}
		for i := range before {
			if before[i] != after[i] {
				rt.Fatalf("visible set changed at %d: %v vs %v", i, before, after)
			}
		}
	})
}

// Identities never change, no matter what sequence of toggles runs.
func TestPropIdentitiesAreStableAcrossToggles(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := Build(genEntity(rt))
		tree.CollapseBelowRoot()
		if tree.Len() == 0 {
			return
		}

		ids := make([]int, tree.Len())
		for i := range ids {
			ids[i] = tree.Node(i).ID
		}

		steps := rapid.IntRange(0, 16).Draw(rt, "steps")
		for s := 0; s < steps; s++ {
			tree.Toggle(rapid.IntRange(0, tree.Len()-1).Draw(rt, "i"))
		}

		for i := range ids {
			if tree.Node(i).ID != ids[i] {
				rt.Fatalf("node %d changed identity %d -> %d", i, ids[i], tree.Node(i).ID)
			}
		}
	})
}

// At most one of the hidden and visible child sets is non-empty, and their
// union is always the node's full child list.
func TestPropHiddenVisibleAreMutuallyExclusive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		tree := Build(genEntity(rt))
		tree.CollapseBelowRoot()
		steps := rapid.IntRange(0, 12).Draw(rt, "steps")
		for s := 0; s < steps && tree.Len() > 0; s++ {
			tree.Toggle(rapid.IntRange(0, tree.Len()-1).Draw(rt, "i"))
		}

		for i := 0; i < tree.Len(); i++ {
			hidden, visible := tree.HiddenChildren(i), tree.VisibleChildren(i)
			if len(hidden) > 0 && len(visible) > 0 {
				rt.Fatalf("node %d has both hidden and visible children", i)
			}
			if len(hidden)+len(visible) != len(tree.Node(i).Children) {
				rt.Fatalf("node %d: hidden+visible != children", i)
			}
		}
	})
}
