package input

import "github.com/example/cropmask/internal/geometry"

// Default gesture distances in display units.
const (
	// DefaultTapThreshold is how far a press may travel and still count as a tap.
	DefaultTapThreshold = 6.0
	// DefaultSnapRadius is the mouse hit radius for grabbing a vertex.
	DefaultSnapRadius = 10.0
	// DefaultTouchSnapRadius is the wider hit radius used for touch input.
	DefaultTouchSnapRadius = 24.0
)

// GestureKind classifies a completed or in-progress press.
type GestureKind int

const (
	// None means no press is being tracked.
	None GestureKind = iota
	// Tap is a press that has stayed within the tap threshold.
	Tap
	// Drag is a press that has moved past the tap threshold.
	Drag
)

// Gesture describes the press currently tracked.
type Gesture struct {
	Kind    GestureKind
	Start   geometry.Point
	Current geometry.Point
}

// Tracker decides between taps and drags. A press that never strays
// further than Threshold from where it started is a tap.
type Tracker struct {
	Threshold float64

	down    bool
	dragged bool
	start   geometry.Point
}

// Classify feeds ev and reports the gesture so far. On Release the result
// is final and the tracker resets.
func (t *Tracker) Classify(ev Event) Gesture {
	threshold := t.Threshold
	if threshold <= 0 {
		threshold = DefaultTapThreshold
	}
	switch ev.Kind {
	case Press:
		t.down, t.dragged, t.start = true, false, ev.Point
		return Gesture{Kind: Tap, Start: ev.Point, Current: ev.Point}
	case Move:
		if !t.down {
			return Gesture{Kind: None, Current: ev.Point}
		}
		if ev.Point.Dist(t.start) >= threshold {
			t.dragged = true
		}
	case Release:
		if !t.down {
			return Gesture{Kind: None, Current: ev.Point}
		}
		if ev.Point.Dist(t.start) >= threshold {
			t.dragged = true
		}
		t.down = false
	}
	g := Gesture{Kind: Tap, Start: t.start, Current: ev.Point}
	if t.dragged {
		g.Kind = Drag
	}
	return g
}

// SnapRadii holds the vertex grab tolerance per input kind.
type SnapRadii struct {
	Pointer float64
	Touch   float64
}

// DefaultSnapRadii returns the stock radii.
func DefaultSnapRadii() SnapRadii {
	return SnapRadii{Pointer: DefaultSnapRadius, Touch: DefaultTouchSnapRadius}
}

// For returns the radius to use for an event.
func (r SnapRadii) For(touch bool) float64 {
	if touch {
		return r.Touch
	}
	return r.Pointer
}

// HitVertex returns the index of the vertex nearest p within radius, or
// -1 if none is close enough.
func HitVertex(points []geometry.Point, p geometry.Point, radius float64) int {
	best, bestDist := -1, radius
	for i, v := range points {
		if d := v.Dist(p); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
