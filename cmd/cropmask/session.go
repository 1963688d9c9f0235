package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/cropmask/internal/editor"
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
	"github.com/example/cropmask/internal/tools"
)

// parsePoints reads "x,y x,y ..." into points.
func parsePoints(s string) ([]geometry.Point, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ";", " "))
	if len(fields) == 0 {
		return nil, fmt.Errorf("no points in %q", s)
	}
	pts := make([]geometry.Point, 0, len(fields))
	for _, f := range fields {
		p, err := parsePoint(f)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

func parsePoint(s string) (geometry.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return geometry.Point{}, fmt.Errorf("invalid point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return geometry.Point{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return geometry.Pt(x, y), nil
}

// parseRect reads "x0,y0,x1,y1".
func parseRect(s string) (geometry.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Rect{}, fmt.Errorf("invalid rectangle %q: want x0,y0,x1,y1", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geometry.Rect{}, fmt.Errorf("invalid rectangle %q: %w", s, err)
		}
		v[i] = f
	}
	return geometry.Rect{A: geometry.Pt(v[0], v[1]), B: geometry.Pt(v[2], v[3])}, nil
}

// stroke is one -erase or -paint flag occurrence.
type stroke struct {
	tool   tools.Name
	points []geometry.Point
}

// strokeList keeps -erase and -paint flags in command line order.
type strokeList struct {
	tool tools.Name
	all  *[]stroke
}

func (s strokeList) String() string { return "" }

func (s strokeList) Set(v string) error {
	pts, err := parsePoints(v)
	if err != nil {
		return err
	}
	if len(pts) < 2 {
		return fmt.Errorf("stroke %q needs at least two points", v)
	}
	*s.all = append(*s.all, stroke{tool: s.tool, points: pts})
	return nil
}

// session drives an editor headlessly, feeding it the same pointer events
// a window would.
type session struct {
	ed     *editor.Editor
	source bool
}

func (r *root) openSession(ctx context.Context, o *outputFlags, v editor.Variant, sourceCoords bool) (*session, error) {
	c, err := o.layout()
	if err != nil {
		return nil, err
	}
	ed := editor.New(
		editor.WithVariant(v),
		editor.WithConfig(r.config),
		editor.WithTheme(r.activeTheme),
		editor.WithLogger(r.log),
		editor.WithContainer(c),
	)
	if err := ed.LoadImage(ctx, o.input); err != nil {
		return nil, err
	}
	return &session{ed: ed, source: sourceCoords}, nil
}

func (s *session) point(p geometry.Point) geometry.Point {
	if s.source {
		return s.ed.Transform().ToDisplay(p)
	}
	return p
}

func (s *session) send(kind input.Kind, p geometry.Point) {
	s.ed.HandleEvent(input.Event{Kind: kind, Point: s.point(p)})
}

func (s *session) tap(p geometry.Point) {
	s.send(input.Press, p)
	s.send(input.Release, p)
}

func (s *session) drag(pts []geometry.Point) {
	s.send(input.Press, pts[0])
	for _, p := range pts[1 : len(pts)-1] {
		s.send(input.Move, p)
	}
	s.send(input.Release, pts[len(pts)-1])
}

// polygon places every vertex and closes on the first one. A tap that
// lands within snap range of an earlier vertex grabs it instead of adding
// a new one, so each tap is checked against the vertex count.
func (s *session) polygon(pts []geometry.Point) error {
	if err := s.ed.SetTool(tools.Polygon); err != nil {
		return err
	}
	if n := len(pts); n > 1 && pts[n-1] == pts[0] {
		pts = pts[:n-1]
	}
	for i, p := range pts {
		s.tap(p)
		poly := s.ed.Geometry().Polygon
		if poly == nil || len(poly.Points) != i+1 || poly.Closed {
			return fmt.Errorf("vertex %d (%g,%g) is within snap range of an earlier vertex: %w", i, p.X, p.Y, geometry.ErrDegenerate)
		}
	}
	s.tap(pts[0])
	if poly := s.ed.Geometry().Polygon; poly == nil || !poly.Closed {
		return fmt.Errorf("polygon did not close: %w", geometry.ErrDegenerate)
	}
	return nil
}

func (s *session) marquee(tool tools.Name, r geometry.Rect) error {
	if err := s.ed.SetTool(tool); err != nil {
		return err
	}
	s.drag([]geometry.Point{r.A, r.B, r.B})
	return nil
}

func (s *session) strokes(list []stroke, brush float64) error {
	s.ed.SetBrushSize(brush)
	for _, st := range list {
		if err := s.ed.SetTool(st.tool); err != nil {
			return err
		}
		s.drag(st.points)
	}
	return nil
}
