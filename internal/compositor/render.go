package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/gogpu/gg"

	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/theme"
	"github.com/example/cropmask/internal/tools"
	"github.com/example/cropmask/internal/viewport"
)

const (
	checkerSize   = 8.0
	lineWidth     = 2.0
	vertexRadius  = 5.0
	touchVertex   = 10.0
	outlineWidth  = 1.5
	dashOn        = 6.0
	dashOff       = 4.0
	activeEnlarge = 1.3
)

// Scene is everything Render needs. It is read only.
type Scene struct {
	Transform viewport.Transform
	Base      *image.NRGBA
	Geometry  geometry.Geometry
	Draft     tools.Draft
	Touch     bool
	Theme     *theme.Theme
}

// Render draws scene into a new buffer at internal raster resolution.
func Render(scene Scene) (*image.RGBA, error) {
	t := scene.Transform
	th := scene.Theme
	if th == nil {
		th = theme.Default()
	}
	out := image.NewRGBA(image.Rect(0, 0, t.InternalWidth, t.InternalHeight))
	draw.Draw(out, out.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)

	imgRect := image.Rect(0, 0, int(math.Round(t.ScaledWidth)), int(math.Round(t.ScaledHeight))).
		Add(image.Pt(int(math.Round(t.OffsetX)), int(math.Round(t.OffsetY))))
	drawChecker(out, imgRect, int(math.Ceil(checkerSize*t.DevicePixelScale)), th.CheckerLight, th.CheckerDark)
	if scene.Base != nil {
		draw.Draw(out, imgRect, scene.Base, scene.Base.Bounds().Min, draw.Over)
	}

	layer, err := renderGeometry(scene, th)
	if err != nil {
		return nil, err
	}
	draw.Draw(out, out.Bounds(), layer, image.Point{}, draw.Over)
	return out, nil
}

func drawChecker(dst draw.Image, r image.Rectangle, cell int, light, dark color.Color) {
	if cell < 1 {
		cell = 1
	}
	lu, du := image.NewUniform(light), image.NewUniform(dark)
	for y := r.Min.Y; y < r.Max.Y; y += cell {
		for x := r.Min.X; x < r.Max.X; x += cell {
			src := lu
			if ((x-r.Min.X)/cell+(y-r.Min.Y)/cell)%2 == 1 {
				src = du
			}
			draw.Draw(dst, image.Rect(x, y, x+cell, y+cell).Intersect(r), src, image.Point{}, draw.Src)
		}
	}
}

type painter struct {
	dc  *gg.Context
	t   viewport.Transform
	err error
}

func (p *painter) path(points []geometry.Point, closed bool) {
	for i, pt := range points {
		r := p.t.ToRaster(pt)
		if i == 0 {
			p.dc.MoveTo(r.X, r.Y)
		} else {
			p.dc.LineTo(r.X, r.Y)
		}
	}
	if closed {
		p.dc.ClosePath()
	}
}

func (p *painter) stroke(points []geometry.Point, closed bool, c color.Color, s gg.Stroke) {
	if p.err != nil || len(points) < 2 {
		return
	}
	p.dc.SetColor(c)
	p.dc.SetStroke(s)
	p.path(points, closed)
	p.err = p.dc.Stroke()
}

func (p *painter) fill(points []geometry.Point, c color.Color) {
	if p.err != nil || len(points) < 3 {
		return
	}
	p.dc.SetColor(c)
	p.path(points, true)
	p.err = p.dc.Fill()
}

func (p *painter) circle(center geometry.Point, radius float64, fill, outline color.Color) {
	if p.err != nil {
		return
	}
	r := p.t.ToRaster(center)
	p.dc.SetColor(fill)
	p.dc.DrawCircle(r.X, r.Y, radius)
	if p.err = p.dc.Fill(); p.err != nil {
		return
	}
	p.dc.SetColor(outline)
	p.dc.SetStroke(gg.DefaultStroke().WithWidth(outlineWidth * p.t.DevicePixelScale))
	p.dc.DrawCircle(r.X, r.Y, radius)
	p.err = p.dc.Stroke()
}

func (p *painter) freehand(s geometry.Stroke, th *theme.Theme) {
	tint := th.PaintTint
	if s.Tool == geometry.Erase {
		tint = th.EraseTint
	}
	p.stroke(s.Points, false, tint, gg.RoundStroke().WithWidth(s.BrushSize*p.t.DevicePixelScale))
}

func renderGeometry(scene Scene, th *theme.Theme) (image.Image, error) {
	t := scene.Transform
	dc := gg.NewContext(t.InternalWidth, t.InternalHeight)
	defer dc.Close()
	p := &painter{dc: dc, t: t}
	dps := t.DevicePixelScale
	solid := gg.RoundStroke().WithWidth(lineWidth * dps)
	dashed := gg.DefaultStroke().WithWidth(lineWidth * dps).WithDashPattern(dashOn*dps, dashOff*dps)
	g := scene.Geometry

	for _, s := range g.Strokes {
		p.freehand(s, th)
	}
	if s := scene.Draft.Stroke; s != nil {
		p.freehand(*s, th)
	}
	if poly := g.Polygon; poly != nil {
		if poly.Closed {
			p.fill(poly.Points, th.PolygonFill)
		}
		p.stroke(poly.Points, poly.Closed, th.PolygonStroke, solid)
	}
	if sel := g.Selection; sel != nil {
		p.stroke(sel.Points, true, th.MarqueeStroke, dashed)
	}
	if m := scene.Draft.Marquee; m != nil {
		p.stroke(m.Polygon().Points, true, th.MarqueeStroke, dashed)
	}
	if poly := g.Polygon; poly != nil {
		radius := vertexRadius
		if scene.Touch {
			radius = touchVertex
		}
		for i, v := range poly.Points {
			if i == scene.Draft.ActiveVertex {
				p.circle(v, radius*activeEnlarge*dps, th.VertexActive, th.VertexOutline)
				continue
			}
			p.circle(v, radius*dps, th.VertexFill, th.VertexOutline)
		}
	}
	if p.err != nil {
		return nil, fmt.Errorf("render overlay: %w", p.err)
	}
	return dc.Image(), nil
}
