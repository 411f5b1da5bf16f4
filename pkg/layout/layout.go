// Package layout computes screen positions for the visible portion of a
// hierarchy. The depth axis runs horizontally with uniform per-level
// spacing; the breadth axis is a tidy layout that centers parents over
// their visible children. Every coordinate is clamped into the drawing
// area so nodes can never render outside it.
package layout

import (
	"treescope/pkg/hierarchy"
)

// Margin is the fixed border kept clear on each side of the container.
type Margin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Config carries every layout constant in one place so renderers and the
// preview viewer agree on geometry.
type Config struct {
	LevelSpacing float64 // horizontal distance between depth levels
	NodeRadius   float64 // marker radius, also the clamping inset
	Margin       Margin
	MinWidth     float64 // floor for the inner drawing area
	MinHeight    float64

	LabelBudgetPx   float64 // wrap labels beyond this pixel width
	FontSizePx      float64
	LabelLineHeight float64 // line spacing as a multiple of font size
}

// DefaultConfig returns the geometry used by every surface unless a config
// file overrides it.
func DefaultConfig() Config {
	return Config{
		LevelSpacing: 180,
		NodeRadius:   10,
		Margin:       Margin{Top: 20, Right: 90, Bottom: 30, Left: 90},
		MinWidth:     300,
		MinHeight:    200,

		LabelBudgetPx:   150,
		FontSizePx:      12,
		LabelLineHeight: 1.2,
	}
}

// Area converts a container size into the usable inner drawing area:
// container minus margins, floored at the configured minimums so a tiny or
// collapsed container cannot produce a degenerate layout.
func (c Config) Area(containerW, containerH float64) (w, h float64) {
	w = containerW - c.Margin.Left - c.Margin.Right
	h = containerH - c.Margin.Top - c.Margin.Bottom
	if w < c.MinWidth {
		w = c.MinWidth
	}
	if h < c.MinHeight {
		h = c.MinHeight
	}
	return w, h
}

// Clamp restricts v to [radius, limit-radius].
func Clamp(v, radius, limit float64) float64 {
	if v < radius {
		return radius
	}
	if max := limit - radius; v > max {
		return max
	}
	return v
}

// Compute assigns X/Y to every visible node of the tree within an inner
// drawing area of w×h. X is always depth × LevelSpacing (then clamped);
// Y comes from a tidy walk: visible leaves are spaced evenly and every
// parent is centered over its visible children.
func Compute(t *hierarchy.Tree, w, h float64, cfg Config) {
	visible := t.VisibleNodes()
	if len(visible) == 0 {
		return
	}

	// First walk, post-order: breadth positions in abstract leaf units.
	units := make(map[int]float64, len(visible))
	nextLeaf := 0.0
	var walk func(i int)
	walk = func(i int) {
		children := t.VisibleChildren(i)
		if len(children) == 0 {
			units[i] = nextLeaf
			nextLeaf++
			return
		}
		for _, c := range children {
			walk(c)
		}
		units[i] = (units[children[0]] + units[children[len(children)-1]]) / 2
	}
	walk(visible[0])

	// Second walk: scale leaf units onto the breadth axis and fix the depth
	// axis to its uniform spacing, clamping both into the area.
	maxUnit := nextLeaf - 1
	for _, i := range visible {
		n := t.Node(i)
		y := h / 2
		if maxUnit > 0 {
			y = cfg.NodeRadius + units[i]/maxUnit*(h-2*cfg.NodeRadius)
		}
		n.X = Clamp(float64(n.Depth)*cfg.LevelSpacing, cfg.NodeRadius, w)
		n.Y = Clamp(y, cfg.NodeRadius, h)
	}
}
