package tools

import (
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
)

// MarqueeTool drags out a rectangle, or a square when Square is set, and
// commits it as a closed four point polygon.
type MarqueeTool struct {
	cfg     Config
	square  bool
	drawing bool
	rect    geometry.Rect
}

// NewMarquee returns an idle marquee tool.
func NewMarquee(cfg Config, square bool) *MarqueeTool {
	return &MarqueeTool{cfg: cfg, square: square}
}

func (t *MarqueeTool) Name() Name {
	if t.square {
		return Square
	}
	return Rect
}

func (t *MarqueeTool) Cancel() { t.drawing = false }

// current returns the in-progress shape with any square constraint applied.
func (t *MarqueeTool) current() geometry.Rect {
	if t.square {
		return t.rect.Square()
	}
	return t.rect
}

func (t *MarqueeTool) Draft() Draft {
	if !t.drawing {
		return Draft{ActiveVertex: -1}
	}
	r := t.current().Normalize()
	return Draft{Marquee: &r, ActiveVertex: -1}
}

func (t *MarqueeTool) Handle(g *geometry.Geometry, ev input.Event) Result {
	switch ev.Kind {
	case input.Press:
		if !g.Empty() {
			return Result{}
		}
		t.drawing = true
		t.rect = geometry.Rect{A: ev.Point, B: ev.Point}
		return Result{Changed: true}
	case input.Move:
		if !t.drawing {
			return Result{}
		}
		t.rect.B = ev.Point
		return Result{Changed: true}
	case input.Release:
		if !t.drawing {
			return Result{}
		}
		t.drawing = false
		t.rect.B = ev.Point
		r := t.current()
		w, h := r.Size()
		if w <= t.cfg.MinMarquee || h <= t.cfg.MinMarquee {
			return degenerate("marquee %gx%g", w, h)
		}
		g.Polygon = r.Polygon()
		return Result{Changed: true, Committed: true}
	}
	return Result{}
}
