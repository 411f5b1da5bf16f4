package diagram

import (
	"sort"
	"time"

	"treescope/pkg/anim"
	"treescope/pkg/layout"
)

// NodeView is one node as it should appear at a given instant.
type NodeView struct {
	ID          int
	Name        string
	Description string
	URL         string
	Label       []string // wrapped lines
	X, Y        float64
	Radius      float64
	Opacity     float64
	HasHidden   bool // drives the marker fill
	IsLeaf      bool
}

// LinkView is one parent-child connector at a given instant.
type LinkView struct {
	Child          int
	X1, Y1, X2, Y2 float64
	Opacity        float64
}

// Snapshot is everything a renderer needs to draw one moment of the
// diagram.
type Snapshot struct {
	Nodes []NodeView
	Links []LinkView

	AreaW, AreaH     float64
	ScrollX, ScrollY float64
}

// Snapshot interpolates every on-screen element at the given instant.
// Elements with no in-flight transition sit at their committed positions.
// Nodes are ordered by identity so output is deterministic.
func (d *Diagram) Snapshot(now time.Time) Snapshot {
	t := d.Tree
	snap := Snapshot{
		AreaW:   d.areaW,
		AreaH:   d.areaH,
		ScrollX: d.scrollX,
		ScrollY: d.scrollY,
	}

	ids := make([]int, 0, len(d.shownNodes))
	for i := range d.shownNodes {
		ids = append(ids, i)
	}
	sort.Ints(ids)

	for _, i := range ids {
		n := t.Node(i)
		st, ok := d.sched.StateAt(anim.NodeKey(i), now)
		if !ok {
			st = anim.State{
				P0:      anim.Point{X: n.PrevX, Y: n.PrevY},
				Radius:  d.Cfg.NodeRadius,
				Opacity: 1,
			}
		}
		snap.Nodes = append(snap.Nodes, NodeView{
			ID:          i,
			Name:        n.Name,
			Description: n.Description,
			URL:         n.URL,
			Label:       layout.WrapLabel(n.Name, d.Cfg.LabelBudgetPx, d.Cfg.FontSizePx),
			X:           st.P0.X,
			Y:           st.P0.Y,
			Radius:      st.Radius,
			Opacity:     st.Opacity,
			HasHidden:   t.HasHiddenChildren(i),
			IsLeaf:      !n.HasChildren(),
		})
	}

	children := make([]int, 0, len(d.shownLinks))
	for c := range d.shownLinks {
		children = append(children, c)
	}
	sort.Ints(children)

	for _, c := range children {
		parent := d.shownLinks[c]
		st, ok := d.sched.StateAt(anim.LinkKey(c), now)
		if !ok {
			p, ch := t.Node(parent), t.Node(c)
			st = anim.State{
				P0:      anim.Point{X: p.PrevX, Y: p.PrevY},
				P1:      anim.Point{X: ch.PrevX, Y: ch.PrevY},
				Opacity: 1,
			}
		}
		snap.Links = append(snap.Links, LinkView{
			Child:   c,
			X1:      st.P0.X,
			Y1:      st.P0.Y,
			X2:      st.P1.X,
			Y2:      st.P1.Y,
			Opacity: st.Opacity,
		})
	}
	return snap
}

// Settled returns the diagram at rest: every transition complete and every
// exit removed. The static exporters draw from this.
func (d *Diagram) Settled(now time.Time) Snapshot {
	end := now.Add(d.duration)
	d.sched.Advance(end)
	return d.Snapshot(end)
}
