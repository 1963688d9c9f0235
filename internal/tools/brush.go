package tools

import (
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
)

// BrushTool captures freehand pencil or eraser strokes.
type BrushTool struct {
	cfg       Config
	tool      geometry.StrokeTool
	capturing bool
	stroke    geometry.Stroke
}

// NewBrush returns an idle brush that records strokes of kind tool.
func NewBrush(cfg Config, tool geometry.StrokeTool) *BrushTool {
	return &BrushTool{cfg: cfg, tool: tool}
}

func (t *BrushTool) Name() Name {
	if t.tool == geometry.Erase {
		return Eraser
	}
	return Pencil
}

// SetBrushSize changes the width of subsequent strokes.
func (t *BrushTool) SetBrushSize(size float64) {
	if size > 0 {
		t.cfg.BrushSize = size
	}
}

func (t *BrushTool) Cancel() { t.capturing = false }

func (t *BrushTool) Draft() Draft {
	if !t.capturing {
		return Draft{ActiveVertex: -1}
	}
	s := t.stroke.Clone()
	return Draft{Stroke: &s, ActiveVertex: -1}
}

func (t *BrushTool) add(p geometry.Point) bool {
	if n := len(t.stroke.Points); n > 0 && t.stroke.Points[n-1] == p {
		return false
	}
	t.stroke.Points = append(t.stroke.Points, p)
	return true
}

func (t *BrushTool) Handle(g *geometry.Geometry, ev input.Event) Result {
	switch ev.Kind {
	case input.Press:
		t.capturing = true
		t.stroke = geometry.Stroke{Points: []geometry.Point{ev.Point}, Tool: t.tool, BrushSize: t.cfg.BrushSize}
		return Result{Changed: true}
	case input.Move:
		if !t.capturing {
			return Result{}
		}
		return Result{Changed: t.add(ev.Point)}
	case input.Release:
		if !t.capturing {
			return Result{}
		}
		t.capturing = false
		t.add(ev.Point)
		if len(t.stroke.Points) < 2 {
			return degenerate("stroke with %d point", len(t.stroke.Points))
		}
		s := t.stroke.Clone()
		g.Strokes = append(g.Strokes, s)
		return Result{Changed: true, Committed: true, Stroke: &s}
	}
	return Result{}
}
