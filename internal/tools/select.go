package tools

import (
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
)

// SelectTool drags a selection rectangle over the mask. Unlike the
// marquee it may replace an existing selection.
type SelectTool struct {
	cfg      Config
	dragging bool
	rect     geometry.Rect
}

// NewSelect returns an idle selection tool.
func NewSelect(cfg Config) *SelectTool { return &SelectTool{cfg: cfg} }

func (t *SelectTool) Name() Name { return Select }

func (t *SelectTool) Cancel() { t.dragging = false }

func (t *SelectTool) Draft() Draft {
	if !t.dragging {
		return Draft{ActiveVertex: -1}
	}
	r := t.rect.Normalize()
	return Draft{Marquee: &r, ActiveVertex: -1}
}

func (t *SelectTool) Handle(g *geometry.Geometry, ev input.Event) Result {
	switch ev.Kind {
	case input.Press:
		t.dragging = true
		t.rect = geometry.Rect{A: ev.Point, B: ev.Point}
		return Result{Changed: true}
	case input.Move:
		if !t.dragging {
			return Result{}
		}
		t.rect.B = ev.Point
		return Result{Changed: true}
	case input.Release:
		if !t.dragging {
			return Result{}
		}
		t.dragging = false
		t.rect.B = ev.Point
		w, h := t.rect.Size()
		if w <= t.cfg.MinSelection || h <= t.cfg.MinSelection {
			return degenerate("selection %gx%g", w, h)
		}
		g.Selection = t.rect.Polygon()
		return Result{Changed: true, Committed: true}
	}
	return Result{}
}
