package tools

import (
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
)

type polygonState int

const (
	polyIdle polygonState = iota
	polyPressed
	polyOnVertex
	polyDragging
)

// PolygonTool places vertices on tap, drags them on press-and-move and
// closes the shape when the first vertex is tapped again.
type PolygonTool struct {
	cfg     Config
	tracker input.Tracker
	state   polygonState
	vertex  int
	origin  geometry.Point
}

// NewPolygon returns an idle polygon tool.
func NewPolygon(cfg Config) *PolygonTool {
	return &PolygonTool{cfg: cfg, tracker: input.Tracker{Threshold: cfg.TapThreshold}, vertex: -1}
}

func (t *PolygonTool) Name() Name { return Polygon }

func (t *PolygonTool) Cancel() {
	t.state = polyIdle
	t.vertex = -1
}

func (t *PolygonTool) Draft() Draft {
	return Draft{ActiveVertex: t.vertex}
}

func (t *PolygonTool) Handle(g *geometry.Geometry, ev input.Event) Result {
	if g.Polygon == nil {
		g.Polygon = &geometry.Polygon{}
	}
	poly := g.Polygon
	if poly.Closed {
		t.Cancel()
		return Result{}
	}
	gesture := t.tracker.Classify(ev)

	switch ev.Kind {
	case input.Press:
		if idx := input.HitVertex(poly.Points, ev.Point, t.cfg.Snap.For(ev.Touch)); idx >= 0 {
			t.state = polyOnVertex
			t.vertex = idx
			t.origin = poly.Points[idx]
			return Result{Changed: true}
		}
		t.state = polyPressed
		return Result{}

	case input.Move:
		switch t.state {
		case polyOnVertex:
			if gesture.Kind != input.Drag {
				return Result{}
			}
			t.state = polyDragging
			fallthrough
		case polyDragging:
			poly.Points[t.vertex] = ev.Point
			return Result{Changed: true}
		}
		return Result{}

	case input.Release:
		state, vertex := t.state, t.vertex
		t.Cancel()
		switch state {
		case polyDragging:
			poly.Points[vertex] = ev.Point
			return Result{Changed: true, Committed: ev.Point != t.origin}
		case polyOnVertex:
			if gesture.Kind == input.Drag {
				poly.Points[vertex] = ev.Point
				return Result{Changed: true, Committed: ev.Point != t.origin}
			}
			if vertex == 0 && len(poly.Points) >= 3 {
				poly.Closed = true
				return Result{Changed: true, Committed: true}
			}
			return Result{Changed: true}
		case polyPressed:
			if gesture.Kind != input.Tap {
				return Result{}
			}
			poly.Points = append(poly.Points, gesture.Start)
			return Result{Changed: true, Committed: true}
		}
	}
	return Result{}
}
