// Package anim models animated transitions as explicit, cancellable timed
// interpolation tasks keyed by element identity. Starting a transition on a
// key first cancels any in-flight transition for that key, so a rapid
// sequence of clicks can never leave two animations fighting over the same
// element. The scheduler is driven by explicit clock values and is not
// goroutine-safe; callers that share it across goroutines hold their own
// lock, the same way the preview server guards its diagram.
package anim

import (
	"time"
)

// Kind separates the identity spaces of the joined element sets. Node
// markers and their incoming links share the child node's numeric identity
// but are distinct on-screen elements.
type Kind int

const (
	KindNode Kind = iota
	KindLink
)

// Key identifies one animated element.
type Key struct {
	Kind Kind
	ID   int
}

// NodeKey returns the key for a node marker and its label.
func NodeKey(id int) Key { return Key{Kind: KindNode, ID: id} }

// LinkKey returns the key for the link into the node with the given
// identity. Links are keyed by their child endpoint.
func LinkKey(id int) Key { return Key{Kind: KindLink, ID: id} }

// Point is a screen position.
type Point struct {
	X, Y float64
}

// State is the interpolated visual state of an element. Node elements use
// P0 as the marker center; link elements use P0 and P1 as their endpoints.
type State struct {
	P0, P1  Point
	Radius  float64
	Opacity float64
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func (a State) interpolate(b State, t float64) State {
	return State{
		P0:      Point{X: lerp(a.P0.X, b.P0.X, t), Y: lerp(a.P0.Y, b.P0.Y, t)},
		P1:      Point{X: lerp(a.P1.X, b.P1.X, t), Y: lerp(a.P1.Y, b.P1.Y, t)},
		Radius:  lerp(a.Radius, b.Radius, t),
		Opacity: lerp(a.Opacity, b.Opacity, t),
	}
}

// easeCubicInOut matches the easing the original diagram transitions used.
func easeCubicInOut(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return 1 + u*u*u/2
}

type task struct {
	from, to State
	start    time.Time
	duration time.Duration
	onDone   func()
}

func (tk *task) at(now time.Time) (State, bool) {
	if tk.duration <= 0 {
		return tk.to, true
	}
	elapsed := now.Sub(tk.start)
	if elapsed <= 0 {
		return tk.from, false
	}
	if elapsed >= tk.duration {
		return tk.to, true
	}
	t := easeCubicInOut(float64(elapsed) / float64(tk.duration))
	return tk.from.interpolate(tk.to, t), false
}

// Scheduler owns all in-flight transitions.
type Scheduler struct {
	tasks map[Key]*task
}

// NewScheduler returns an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{tasks: make(map[Key]*task)}
}

// Start begins a transition for key, replacing (and thereby cancelling) any
// transition already running on that key. The cancelled task's completion
// callback is dropped, not fired: an interrupted exit must not remove an
// element that a newer transition is bringing back. onDone may be nil.
func (s *Scheduler) Start(key Key, from, to State, start time.Time, d time.Duration, onDone func()) {
	s.tasks[key] = &task{from: from, to: to, start: start, duration: d, onDone: onDone}
}

// Cancel drops the in-flight transition for key without firing its
// completion callback.
func (s *Scheduler) Cancel(key Key) {
	delete(s.tasks, key)
}

// StateAt returns the interpolated state of key at the given instant. The
// second result is false when no transition is running for the key.
func (s *Scheduler) StateAt(key Key, now time.Time) (State, bool) {
	tk, ok := s.tasks[key]
	if !ok {
		return State{}, false
	}
	st, _ := tk.at(now)
	return st, true
}

// Advance fires and removes every transition that has finished by now,
// returning the completed keys. Call it from the frame tick.
func (s *Scheduler) Advance(now time.Time) []Key {
	var done []Key
	for key, tk := range s.tasks {
		if _, finished := tk.at(now); finished {
			done = append(done, key)
		}
	}
	for _, key := range done {
		tk := s.tasks[key]
		delete(s.tasks, key)
		if tk.onDone != nil {
			tk.onDone()
		}
	}
	return done
}

// Active returns the number of in-flight transitions.
func (s *Scheduler) Active() int {
	return len(s.tasks)
}
