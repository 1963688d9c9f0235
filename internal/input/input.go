// Package input turns mouse and touch events into a single stream of
// press, move and release events in display coordinates.
package input

import (
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"

	"github.com/example/cropmask/internal/geometry"
)

// Kind is the phase of a unified pointer event.
type Kind int

const (
	Press Kind = iota
	Move
	Release
)

func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	}
	return "unknown"
}

// Event is a pointer sample relative to the drawing surface. Touch is only
// used by hosts to decide whether to suppress scrolling, and by tools to
// widen the snap radius.
type Event struct {
	Kind  Kind
	Point geometry.Point
	Touch bool
}

// Surface locates the drawing surface inside the window. Scale converts
// window pixels into display units.
type Surface struct {
	OriginX, OriginY float64
	Scale            float64
}

func (s Surface) toDisplay(x, y float32) geometry.Point {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	return geometry.Point{
		X: (float64(x) - s.OriginX) / scale,
		Y: (float64(y) - s.OriginY) / scale,
	}
}

// Unifier converts raw window events. It tracks whether a mouse button is
// held and which touch sequence owns the gesture, so it is stateful and
// must be used from one goroutine.
type Unifier struct {
	Surface Surface

	// Hover forwards button-less mouse motion as Move events.
	Hover bool

	buttonDown bool
	touchDown  bool
	sequence   touch.Sequence
}

// FromMouse converts e. The boolean is false for events that do not map
// to a gesture, such as wheel steps or presses of other buttons.
func (u *Unifier) FromMouse(e mouse.Event) (Event, bool) {
	p := u.Surface.toDisplay(e.X, e.Y)
	switch e.Direction {
	case mouse.DirPress:
		if e.Button != mouse.ButtonLeft || u.buttonDown {
			return Event{}, false
		}
		u.buttonDown = true
		return Event{Kind: Press, Point: p}, true
	case mouse.DirRelease:
		if e.Button != mouse.ButtonLeft || !u.buttonDown {
			return Event{}, false
		}
		u.buttonDown = false
		return Event{Kind: Release, Point: p}, true
	case mouse.DirNone:
		if !u.buttonDown && !u.Hover {
			return Event{}, false
		}
		return Event{Kind: Move, Point: p}, true
	}
	return Event{}, false
}

// FromTouch converts e. Only the first active touch sequence is followed;
// additional fingers are ignored until it lifts.
func (u *Unifier) FromTouch(e touch.Event) (Event, bool) {
	p := u.Surface.toDisplay(e.X, e.Y)
	switch e.Type {
	case touch.TypeBegin:
		if u.touchDown {
			return Event{}, false
		}
		u.touchDown = true
		u.sequence = e.Sequence
		return Event{Kind: Press, Point: p, Touch: true}, true
	case touch.TypeMove:
		if !u.touchDown || e.Sequence != u.sequence {
			return Event{}, false
		}
		return Event{Kind: Move, Point: p, Touch: true}, true
	case touch.TypeEnd:
		if !u.touchDown || e.Sequence != u.sequence {
			return Event{}, false
		}
		u.touchDown = false
		return Event{Kind: Release, Point: p, Touch: true}, true
	}
	return Event{}, false
}

// Active reports whether a gesture is in progress.
func (u *Unifier) Active() bool { return u.buttonDown || u.touchDown }
