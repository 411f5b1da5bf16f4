// Package diagram drives the collapsible tree rendition. It owns the
// hierarchy, the layout configuration and the transition scheduler, and
// turns every expand/collapse interaction into a Frame of entering,
// updating and exiting elements whose animations all originate at the
// interaction's source node. Renderers (TUI, SVG, PNG, the browser viewer)
// consume Frames and Snapshots; the diagram itself never draws.
package diagram

import (
	"time"

	"treescope/pkg/anim"
	"treescope/pkg/hierarchy"
	"treescope/pkg/layout"
	"treescope/pkg/model"
)

// DefaultDuration is the fixed length of every enter, update and exit
// transition.
const DefaultDuration = 750 * time.Millisecond

// Phase tells a renderer which join set an element change came from.
type Phase int

const (
	PhaseEnter Phase = iota
	PhaseUpdate
	PhaseExit
)

// NodeChange is one node's animation endpoints for a single update pass.
type NodeChange struct {
	ID    int
	Phase Phase
	From  anim.State
	To    anim.State
}

// LinkChange is one link's animation endpoints. Links carry the identity
// of their child endpoint.
type LinkChange struct {
	Child  int
	Parent int
	Phase  Phase
	From   anim.State
	To     anim.State
}

// Frame is the complete result of one update pass.
type Frame struct {
	Source int
	Nodes  []NodeChange
	Links  []LinkChange

	// Scroll target after this pass, already clamped non-negative.
	ScrollX float64
	ScrollY float64
}

// Diagram owns one session's tree state. It is not goroutine-safe; the
// preview server wraps it with its own lock.
type Diagram struct {
	Tree *hierarchy.Tree
	Cfg  layout.Config

	sched    *anim.Scheduler
	duration time.Duration

	containerW float64
	containerH float64
	areaW      float64
	areaH      float64
	scrollX    float64
	scrollY    float64

	// shown tracks nodes and links currently on screen, including elements
	// still playing their exit. Removal happens when the exit completes.
	shownNodes map[int]bool
	shownLinks map[int]int // child -> parent
}

// New builds a diagram for the entity document inside a container of the
// given pixel size. Everything below the root starts collapsed and the
// root's previous position is set to the breadth-axis center of the
// drawing area, so the initial render grows out of the left center edge.
func New(root *model.Entity, containerW, containerH float64, cfg layout.Config) *Diagram {
	t := hierarchy.Build(root)
	t.CollapseBelowRoot()

	d := &Diagram{
		Tree:       t,
		Cfg:        cfg,
		sched:      anim.NewScheduler(),
		duration:   DefaultDuration,
		shownNodes: make(map[int]bool),
		shownLinks: make(map[int]int),
	}
	d.Resize(containerW, containerH)

	if t.Len() > 0 {
		r := t.Root()
		r.PrevX = 0
		r.PrevY = d.areaH / 2
	}
	return d
}

// SetDuration overrides the transition duration; zero makes every update
// land instantly.
func (d *Diagram) SetDuration(dur time.Duration) {
	d.duration = dur
}

// Duration returns the transition duration updates are scheduled with.
func (d *Diagram) Duration() time.Duration {
	return d.duration
}

// Resize records a new container size and recomputes the inner drawing
// area. Node identities are untouched; the next update lays out against
// the new dimensions.
func (d *Diagram) Resize(containerW, containerH float64) {
	d.containerW = containerW
	d.containerH = containerH
	d.areaW, d.areaH = d.Cfg.Area(containerW, containerH)
}

// Area returns the current inner drawing area.
func (d *Diagram) Area() (w, h float64) {
	return d.areaW, d.areaH
}

// Scroll returns the current scroll offsets.
func (d *Diagram) Scroll() (x, y float64) {
	return d.scrollX, d.scrollY
}

// Scheduler exposes the transition scheduler for frame ticks.
func (d *Diagram) Scheduler() *anim.Scheduler {
	return d.sched
}

// Update re-lays out the visible hierarchy and schedules transitions for
// every element that entered, moved or left, all anchored on the source
// node: entering elements start at the source's previous position, exiting
// elements shrink toward the source's new position. Call it with the root
// for the initial render and with the clicked node after a toggle.
func (d *Diagram) Update(source int, now time.Time) Frame {
	t := d.Tree
	if t.Len() == 0 {
		return Frame{Source: source}
	}
	if source < 0 || source >= t.Len() {
		source = 0
	}

	src := t.Node(source)
	srcPrev := anim.Point{X: src.PrevX, Y: src.PrevY}

	layout.Compute(t, d.areaW, d.areaH, d.Cfg)
	srcNew := anim.Point{X: src.X, Y: src.Y}

	frame := Frame{Source: source}
	visible := t.VisibleNodes()
	visibleSet := make(map[int]bool, len(visible))

	for _, i := range visible {
		visibleSet[i] = true
		n := t.Node(i)
		final := anim.State{
			P0:      anim.Point{X: n.X, Y: n.Y},
			Radius:  d.Cfg.NodeRadius,
			Opacity: 1,
		}

		var change NodeChange
		if d.shownNodes[i] {
			change = NodeChange{
				ID:    i,
				Phase: PhaseUpdate,
				From: anim.State{
					P0:      anim.Point{X: n.PrevX, Y: n.PrevY},
					Radius:  d.Cfg.NodeRadius,
					Opacity: 1,
				},
				To: final,
			}
		} else {
			change = NodeChange{
				ID:    i,
				Phase: PhaseEnter,
				From:  anim.State{P0: srcPrev, Radius: 0, Opacity: 0},
				To:    final,
			}
			d.shownNodes[i] = true
		}
		frame.Nodes = append(frame.Nodes, change)
		d.sched.Start(anim.NodeKey(i), change.From, change.To, now, d.duration, nil)
	}

	// Exiting nodes collapse toward the source's new position and are
	// dropped from the screen when the transition completes. A cancelled
	// exit (the node re-entered before finishing) never removes anything.
	for i := range d.shownNodes {
		if visibleSet[i] {
			continue
		}
		n := t.Node(i)
		change := NodeChange{
			ID:    i,
			Phase: PhaseExit,
			From: anim.State{
				P0:      anim.Point{X: n.PrevX, Y: n.PrevY},
				Radius:  d.Cfg.NodeRadius,
				Opacity: 1,
			},
			To: anim.State{P0: srcNew, Radius: 0, Opacity: 0},
		}
		frame.Nodes = append(frame.Nodes, change)
		id := i
		d.sched.Start(anim.NodeKey(id), change.From, change.To, now, d.duration, func() {
			delete(d.shownNodes, id)
		})
	}

	// Links mirror the node join, keyed by their child endpoint. Entering
	// and exiting links are degenerate zero-length segments at the source.
	links := t.VisibleLinks()
	linkSet := make(map[int]int, len(links))
	for _, l := range links {
		linkSet[l.Child] = l.Parent
		p, c := t.Node(l.Parent), t.Node(l.Child)
		final := anim.State{
			P0:      anim.Point{X: p.X, Y: p.Y},
			P1:      anim.Point{X: c.X, Y: c.Y},
			Opacity: 1,
		}

		var change LinkChange
		if _, ok := d.shownLinks[l.Child]; ok {
			change = LinkChange{
				Child:  l.Child,
				Parent: l.Parent,
				Phase:  PhaseUpdate,
				From: anim.State{
					P0:      anim.Point{X: p.PrevX, Y: p.PrevY},
					P1:      anim.Point{X: c.PrevX, Y: c.PrevY},
					Opacity: 1,
				},
				To: final,
			}
		} else {
			change = LinkChange{
				Child:  l.Child,
				Parent: l.Parent,
				Phase:  PhaseEnter,
				From:   anim.State{P0: srcPrev, P1: srcPrev, Opacity: 0},
				To:     final,
			}
			d.shownLinks[l.Child] = l.Parent
		}
		frame.Links = append(frame.Links, change)
		d.sched.Start(anim.LinkKey(l.Child), change.From, change.To, now, d.duration, nil)
	}

	for child, parent := range d.shownLinks {
		if _, ok := linkSet[child]; ok {
			continue
		}
		p, c := t.Node(parent), t.Node(child)
		change := LinkChange{
			Child:  child,
			Parent: parent,
			Phase:  PhaseExit,
			From: anim.State{
				P0:      anim.Point{X: p.PrevX, Y: p.PrevY},
				P1:      anim.Point{X: c.PrevX, Y: c.PrevY},
				Opacity: 1,
			},
			To: anim.State{P0: srcNew, P1: srcNew, Opacity: 0},
		}
		frame.Links = append(frame.Links, change)
		id := child
		d.sched.Start(anim.LinkKey(id), change.From, change.To, now, d.duration, func() {
			delete(d.shownLinks, id)
		})
	}

	// Persist positions so the next pass animates from where this one
	// landed.
	t.CommitPositions()

	frame.ScrollX, frame.ScrollY = d.scrollTarget(source)
	d.scrollX, d.scrollY = frame.ScrollX, frame.ScrollY
	return frame
}

// Click toggles the node's children, re-runs the update with the clicked
// node as the source, and returns the node's navigation URL, empty when it
// has none. A click on a leaf still recenters on it.
func (d *Diagram) Click(i int, now time.Time) (Frame, string) {
	if i < 0 || i >= d.Tree.Len() {
		return Frame{Source: i}, ""
	}
	d.Tree.Toggle(i)
	frame := d.Update(i, now)
	return frame, d.Tree.Node(i).URL
}

// scrollTarget centers the source node in the container viewport, clamped
// so offsets never go negative.
func (d *Diagram) scrollTarget(source int) (x, y float64) {
	n := d.Tree.Node(source)
	x = n.X + d.Cfg.Margin.Left - d.containerW/2
	y = n.Y + d.Cfg.Margin.Top - d.containerH/2
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	return x, y
}

// Advance moves the scheduler clock forward, firing exit removals that
// finished by now.
func (d *Diagram) Advance(now time.Time) {
	d.sched.Advance(now)
}

// Animating reports whether any transition is still in flight.
func (d *Diagram) Animating() bool {
	return d.sched.Active() > 0
}
