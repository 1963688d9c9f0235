// Package tools implements the per-tool pointer state machines. A tool
// consumes unified input events and mutates the geometry owned by the
// editor; it never draws.
package tools

import (
	"fmt"
	"strings"

	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
)

// ErrDegenerateGeometry is attached to results for gestures that were
// discarded because they were too small to commit.
var ErrDegenerateGeometry = geometry.ErrDegenerate

// Name identifies a tool.
type Name int

const (
	Polygon Name = iota
	Rect
	Square
	Pencil
	Eraser
	Select
)

var names = map[Name]string{
	Polygon: "polygon",
	Rect:    "rect",
	Square:  "square",
	Pencil:  "pencil",
	Eraser:  "eraser",
	Select:  "select",
}

func (n Name) String() string {
	if s, ok := names[n]; ok {
		return s
	}
	return fmt.Sprintf("Name(%d)", int(n))
}

// ParseName accepts the names printed by String.
func ParseName(s string) (Name, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for n, v := range names {
		if v == s {
			return n, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// Config holds the thresholds shared by all tools.
type Config struct {
	Snap         input.SnapRadii
	TapThreshold float64
	BrushSize    float64
	MinMarquee   float64
	MinSelection float64
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		Snap:         input.DefaultSnapRadii(),
		TapThreshold: input.DefaultTapThreshold,
		BrushSize:    12,
		MinMarquee:   1,
		MinSelection: 5,
	}
}

// Result reports what an event did.
type Result struct {
	// Changed means the overlay needs redrawing.
	Changed bool
	// Committed means the geometry reached a new permanent state and
	// should be snapshotted.
	Committed bool
	// Stroke is set when a freehand stroke was committed.
	Stroke *geometry.Stroke
	// Err explains silent discards.
	Err error
}

// Draft is in-progress state the overlay shows but history never sees.
type Draft struct {
	Marquee      *geometry.Rect
	Stroke       *geometry.Stroke
	ActiveVertex int
}

// Tool is a pointer state machine.
type Tool interface {
	Name() Name
	Handle(g *geometry.Geometry, ev input.Event) Result
	Draft() Draft
	// Cancel abandons any gesture in progress.
	Cancel()
}

// New returns a fresh state machine for name.
func New(name Name, cfg Config) Tool {
	switch name {
	case Rect:
		return NewMarquee(cfg, false)
	case Square:
		return NewMarquee(cfg, true)
	case Pencil:
		return NewBrush(cfg, geometry.Paint)
	case Eraser:
		return NewBrush(cfg, geometry.Erase)
	case Select:
		return NewSelect(cfg)
	default:
		return NewPolygon(cfg)
	}
}

func degenerate(format string, args ...any) Result {
	return Result{Changed: true, Err: fmt.Errorf("%w: "+format, append([]any{ErrDegenerateGeometry}, args...)...)}
}
