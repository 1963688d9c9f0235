// Package geometry holds the editable shapes shared by the crop and mask
// tools. All coordinates are display coordinates unless a caller maps them.
package geometry

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerate marks geometry too small or incomplete to commit or
// export: a zero area marquee, an open polygon, a one point stroke.
var ErrDegenerate = errors.New("degenerate geometry")

// Point is a position in display coordinates.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return math.Hypot(p.X-q.X, p.Y-q.Y) }

// Scale multiplies both coordinates by s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s} }

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.X, p.Y) }

// Polygon is an ordered vertex list. Closed is only set once the
// polygon tool snaps back onto the first vertex.
type Polygon struct {
	Points []Point
	Closed bool
}

// Clone deep copies the polygon. A nil polygon clones to nil.
func (p *Polygon) Clone() *Polygon {
	if p == nil {
		return nil
	}
	return &Polygon{Points: append([]Point(nil), p.Points...), Closed: p.Closed}
}

// Valid reports whether the polygon can be exported.
func (p *Polygon) Valid() bool {
	return p != nil && p.Closed && len(p.Points) >= 3
}

// Bounds returns the axis aligned bounding box of the vertices.
func (p *Polygon) Bounds() (min, max Point) {
	if p == nil || len(p.Points) == 0 {
		return Point{}, Point{}
	}
	min, max = p.Points[0], p.Points[0]
	for _, pt := range p.Points[1:] {
		min.X = math.Min(min.X, pt.X)
		min.Y = math.Min(min.Y, pt.Y)
		max.X = math.Max(max.X, pt.X)
		max.Y = math.Max(max.Y, pt.Y)
	}
	return min, max
}

// Contains reports whether pt is inside the polygon using the even-odd
// crossing rule.
func (p *Polygon) Contains(pt Point) bool {
	if p == nil || len(p.Points) < 3 {
		return false
	}
	inside := false
	n := len(p.Points)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p.Points[i], p.Points[j]
		if (a.Y > pt.Y) != (b.Y > pt.Y) &&
			pt.X < (b.X-a.X)*(pt.Y-a.Y)/(b.Y-a.Y)+a.X {
			inside = !inside
		}
	}
	return inside
}

// Rect is a marquee described by its drag origin A and current corner B.
type Rect struct {
	A, B Point
}

// Normalize returns the rectangle with A as the minimum corner.
func (r Rect) Normalize() Rect {
	return Rect{
		A: Point{math.Min(r.A.X, r.B.X), math.Min(r.A.Y, r.B.Y)},
		B: Point{math.Max(r.A.X, r.B.X), math.Max(r.A.Y, r.B.Y)},
	}
}

// Square forces equal sides using the larger of |dx| and |dy|. Each axis
// keeps the direction it was dragged in; a zero delta counts as positive.
func (r Rect) Square() Rect {
	dx, dy := r.B.X-r.A.X, r.B.Y-r.A.Y
	side := math.Max(math.Abs(dx), math.Abs(dy))
	return Rect{A: r.A, B: Point{r.A.X + math.Copysign(side, sign(dx)), r.A.Y + math.Copysign(side, sign(dy))}}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// Size returns the normalized width and height.
func (r Rect) Size() (w, h float64) {
	n := r.Normalize()
	return n.B.X - n.A.X, n.B.Y - n.A.Y
}

// Polygon converts the normalized rectangle into a closed four point
// polygon, clockwise from the minimum corner.
func (r Rect) Polygon() *Polygon {
	n := r.Normalize()
	return &Polygon{
		Points: []Point{n.A, {n.B.X, n.A.Y}, n.B, {n.A.X, n.B.Y}},
		Closed: true,
	}
}

// Box is an axis aligned rectangle given by origin and size.
type Box struct {
	X, Y, Width, Height float64
}

// StrokeTool selects what a committed stroke does to the base buffer.
type StrokeTool int

const (
	// Paint marks the image without altering pixels.
	Paint StrokeTool = iota
	// Erase clears alpha along the stroke.
	Erase
)

func (t StrokeTool) String() string {
	switch t {
	case Paint:
		return "paint"
	case Erase:
		return "erase"
	}
	return fmt.Sprintf("StrokeTool(%d)", int(t))
}

// Stroke is a freehand path. BrushSize is measured in display pixels.
type Stroke struct {
	Points    []Point
	Tool      StrokeTool
	BrushSize float64
}

// Clone deep copies the stroke.
func (s Stroke) Clone() Stroke {
	s.Points = append([]Point(nil), s.Points...)
	return s
}

// Geometry is everything the user has drawn. Only one of Polygon or
// Strokes/Selection is normally populated, depending on the editor
// variant.
type Geometry struct {
	Polygon   *Polygon
	Strokes   []Stroke
	Selection *Polygon
}

// Clone returns a deep copy sharing no slices with g.
func (g Geometry) Clone() Geometry {
	out := Geometry{
		Polygon:   g.Polygon.Clone(),
		Selection: g.Selection.Clone(),
	}
	if g.Strokes != nil {
		out.Strokes = make([]Stroke, len(g.Strokes))
		for i, s := range g.Strokes {
			out.Strokes[i] = s.Clone()
		}
	}
	return out
}

// Empty reports whether nothing has been drawn.
func (g Geometry) Empty() bool {
	return (g.Polygon == nil || len(g.Polygon.Points) == 0) && len(g.Strokes) == 0 && g.Selection == nil
}

// Map returns a copy of g with fn applied to every point. Brush sizes are
// multiplied by scale so strokes keep their footprint on the image.
func (g Geometry) Map(fn func(Point) Point, scale float64) Geometry {
	out := g.Clone()
	mapPoly := func(p *Polygon) {
		if p == nil {
			return
		}
		for i := range p.Points {
			p.Points[i] = fn(p.Points[i])
		}
	}
	mapPoly(out.Polygon)
	mapPoly(out.Selection)
	for i := range out.Strokes {
		for j := range out.Strokes[i].Points {
			out.Strokes[i].Points[j] = fn(out.Strokes[i].Points[j])
		}
		out.Strokes[i].BrushSize *= scale
	}
	return out
}
