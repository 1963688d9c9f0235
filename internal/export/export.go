// Package export produces the final cropped or masked image at source
// resolution.
package export

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"

	"github.com/example/cropmask/internal/compositor"
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/viewport"
)

// Result is handed to the caller once per export. CropRect is in display
// coordinates and nil for mask exports that keep the full canvas.
type Result struct {
	Image    *image.NRGBA
	CropRect *geometry.Box
}

// Polygon clips src to poly and returns the bounding box of the clip.
func Polygon(src image.Image, t viewport.Transform, poly *geometry.Polygon) (Result, error) {
	if !poly.Valid() {
		return Result{}, fmt.Errorf("export polygon: %w", geometry.ErrDegenerate)
	}
	pts := make([]geometry.Point, len(poly.Points))
	for i, p := range poly.Points {
		pts[i] = t.ToSource(p)
	}
	box := sourceBounds(pts, src.Bounds())
	if box.Empty() {
		return Result{}, fmt.Errorf("export polygon: outside image: %w", geometry.ErrDegenerate)
	}
	return Result{
		Image:    clip(src, pts, box),
		CropRect: displayBox(t, box.Sub(src.Bounds().Min)),
	}, nil
}

// displayBox re-expresses a source pixel rectangle in display coordinates.
func displayBox(t viewport.Transform, r image.Rectangle) *geometry.Box {
	min := t.ToDisplay(geometry.Pt(float64(r.Min.X), float64(r.Min.Y)))
	max := t.ToDisplay(geometry.Pt(float64(r.Max.X), float64(r.Max.Y)))
	return &geometry.Box{X: min.X, Y: min.Y, Width: max.X - min.X, Height: max.Y - min.Y}
}

// Mask replays strokes over a full resolution copy of src. With no
// strokes the copy is returned unchanged.
func Mask(src image.Image, t viewport.Transform, strokes []geometry.Stroke) (Result, error) {
	out := imaging.Clone(src)
	m := t.SourceMapping()
	for i, s := range strokes {
		if err := compositor.Apply(out, s, m); err != nil {
			return Result{}, fmt.Errorf("export mask stroke %d: %w", i, err)
		}
	}
	return Result{Image: out}, nil
}

// sourceBounds is the integer bbox of pts clamped to the image.
func sourceBounds(pts []geometry.Point, r image.Rectangle) image.Rectangle {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	return box.Add(r.Min).Intersect(r)
}

// clip copies the pixels of src inside the polygon into a transparent
// buffer the size of box.
func clip(src image.Image, pts []geometry.Point, box image.Rectangle) *image.NRGBA {
	w, h := box.Dx(), box.Dy()
	origin := src.Bounds().Min
	ox := float32(box.Min.X - origin.X)
	oy := float32(box.Min.Y - origin.Y)

	z := vector.NewRasterizer(w, h)
	z.DrawOp = draw.Src
	for i, p := range pts {
		x, y := float32(p.X)-ox, float32(p.Y)-oy
		if i == 0 {
			z.MoveTo(x, y)
		} else {
			z.LineTo(x, y)
		}
	}
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.DrawMask(out, out.Bounds(), src, box.Min, mask, image.Point{}, draw.Src)
	return out
}
