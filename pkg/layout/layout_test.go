package layout

import (
	"strings"
	"testing"

	"pgregory.net/rapid"

	"treescope/pkg/hierarchy"
	"treescope/pkg/model"
)

func buildSample() *hierarchy.Tree {
	return hierarchy.Build(&model.Entity{
		Name: "Root",
		Children: []*model.Entity{
			{Name: "A"},
			{Name: "B", Children: []*model.Entity{{Name: "C"}, {Name: "D"}}},
		},
	})
}

func TestAreaAppliesMarginsAndFloors(t *testing.T) {
	cfg := DefaultConfig()

	w, h := cfg.Area(800, 600)
	if w != 800-cfg.Margin.Left-cfg.Margin.Right {
		t.Errorf("inner width: got %v", w)
	}
	if h != 600-cfg.Margin.Top-cfg.Margin.Bottom {
		t.Errorf("inner height: got %v", h)
	}

	// A degenerate container still yields the minimum area.
	w, h = cfg.Area(10, 5)
	if w != cfg.MinWidth || h != cfg.MinHeight {
		t.Errorf("expected floors (%v,%v), got (%v,%v)", cfg.MinWidth, cfg.MinHeight, w, h)
	}
}

func TestComputeDepthAxisIsUniform(t *testing.T) {
	tree := buildSample()
	cfg := DefaultConfig()
	w, h := cfg.Area(1200, 800)
	Compute(tree, w, h, cfg)

	for _, i := range tree.VisibleNodes() {
		n := tree.Node(i)
		want := Clamp(float64(n.Depth)*cfg.LevelSpacing, cfg.NodeRadius, w)
		if n.X != want {
			t.Errorf("node %q: X=%v, want depth*spacing=%v", n.Name, n.X, want)
		}
	}
}

func TestComputeParentsCenteredOverChildren(t *testing.T) {
	tree := buildSample()
	cfg := DefaultConfig()
	w, h := cfg.Area(1200, 800)
	Compute(tree, w, h, cfg)

	b := tree.Node(2)
	c, d := tree.Node(3), tree.Node(4)
	mid := (c.Y + d.Y) / 2
	if diff := b.Y - mid; diff > 0.01 || diff < -0.01 {
		t.Errorf("B should be centered over C and D: B.Y=%v mid=%v", b.Y, mid)
	}
	if c.Y >= d.Y {
		t.Errorf("siblings should keep document order on the breadth axis: C.Y=%v D.Y=%v", c.Y, d.Y)
	}
}

func TestComputeSingleNodeCenters(t *testing.T) {
	tree := hierarchy.Build(&model.Entity{Name: "Solo"})
	cfg := DefaultConfig()
	Compute(tree, 600, 400, cfg)
	if got := tree.Node(0).Y; got != 200 {
		t.Errorf("single node should sit at the vertical center, got %v", got)
	}
}

// Every computed coordinate stays within [radius, dim-radius], for any tree
// shape, any area, any collapsed state.
func TestPropCoordinatesAlwaysClamped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		depth := rapid.IntRange(1, 6).Draw(rt, "depth")
		fanout := rapid.IntRange(1, 3).Draw(rt, "fanout")
		root := &model.Entity{Name: "r"}
		frontier := []*model.Entity{root}
		for d := 0; d < depth; d++ {
			var next []*model.Entity
			for _, e := range frontier {
				for f := 0; f < fanout; f++ {
					child := &model.Entity{Name: "n"}
					e.Children = append(e.Children, child)
					next = append(next, child)
				}
			}
			frontier = next
		}

		tree := hierarchy.Build(root)
		if rapid.Bool().Draw(rt, "collapse") {
			tree.CollapseBelowRoot()
		}

		cfg := DefaultConfig()
		w, h := cfg.Area(
			float64(rapid.IntRange(0, 2000).Draw(rt, "w")),
			float64(rapid.IntRange(0, 2000).Draw(rt, "h")),
		)
		Compute(tree, w, h, cfg)

		for _, i := range tree.VisibleNodes() {
			n := tree.Node(i)
			if n.X < cfg.NodeRadius || n.X > w-cfg.NodeRadius {
				rt.Fatalf("node %d X=%v escapes [%v,%v]", i, n.X, cfg.NodeRadius, w-cfg.NodeRadius)
			}
			if n.Y < cfg.NodeRadius || n.Y > h-cfg.NodeRadius {
				rt.Fatalf("node %d Y=%v escapes [%v,%v]", i, n.Y, cfg.NodeRadius, h-cfg.NodeRadius)
			}
		}
	})
}

func TestWrapLabelGreedyPacking(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name   string
		text   string
		budget float64
		want   []string
	}{
		{
			name:   "short label stays on one line",
			text:   "Shell Co",
			budget: cfg.LabelBudgetPx,
			want:   []string{"Shell Co"},
		},
		{
			name:   "empty label yields nothing",
			text:   "   ",
			budget: cfg.LabelBudgetPx,
			want:   nil,
		},
		{
			name:   "words pack greedily",
			text:   "Offshore Holding Company Records",
			budget: TextWidthPx("Offshore Holding", cfg.FontSizePx) + 1,
			want:   []string{"Offshore Holding", "Company Records"},
		},
		{
			name:   "oversized word gets its own line",
			text:   "a Antidisestablishmentarianism b",
			budget: TextWidthPx("a b", cfg.FontSizePx),
			want:   []string{"a", "Antidisestablishmentarianism", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WrapLabel(tt.text, tt.budget, cfg.FontSizePx)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapLabelPreservesEveryWord(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`([a-zA-Z]{1,12} ){0,10}[a-zA-Z]{1,12}`).Draw(rt, "text")
		budget := float64(rapid.IntRange(10, 300).Draw(rt, "budget"))
		lines := WrapLabel(text, budget, 12)
		if strings.Join(lines, " ") != strings.Join(strings.Fields(text), " ") {
			rt.Fatalf("wrapping lost or reordered words: %q -> %v", text, lines)
		}
	})
}

func TestLineOffset(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LineOffsetPx(0) != 0 {
		t.Error("first line should have zero offset")
	}
	want := 2 * cfg.FontSizePx * cfg.LabelLineHeight
	if got := cfg.LineOffsetPx(2); got != want {
		t.Errorf("line 2 offset: got %v, want %v", got, want)
	}
}
