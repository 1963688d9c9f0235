// Package compositor draws the editor surfaces. The base buffer holds the
// image with committed erase strokes applied; the overlay is rebuilt from
// scratch every frame by Render.
package compositor

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gogpu/gg"
	xdraw "golang.org/x/image/draw"

	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/viewport"
)

// NewBase scales src into a buffer the size of the scaled image, without
// the centering offset.
func NewBase(src image.Image, t viewport.Transform) *image.NRGBA {
	w := int(math.Max(math.Round(t.ScaledWidth), 1))
	h := int(math.Max(math.Round(t.ScaledHeight), 1))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Commit returns a copy of buf with s applied. Points are mapped through
// m, which must target buf's pixel grid. buf is left untouched.
func Commit(buf *image.NRGBA, s geometry.Stroke, m viewport.Mapping) (*image.NRGBA, error) {
	out := imaging.Clone(buf)
	if err := Apply(out, s, m); err != nil {
		return nil, err
	}
	return out, nil
}

// Apply draws s onto dst in place. Erase strokes clear alpha under a
// round capped, round joined path; paint strokes leave pixels alone and
// are only shown in the overlay.
func Apply(dst *image.NRGBA, s geometry.Stroke, m viewport.Mapping) error {
	if s.Tool != geometry.Erase || len(s.Points) < 2 {
		return nil
	}
	mask, err := strokeMask(dst.Bounds(), s, m)
	if err != nil {
		return err
	}
	draw.DrawMask(dst, dst.Bounds(), image.Transparent, image.Point{}, mask, mask.Bounds().Min, draw.Src)
	return nil
}

// strokeMask renders the stroke footprint as an opaque-on-transparent
// image covering bounds.
func strokeMask(bounds image.Rectangle, s geometry.Stroke, m viewport.Mapping) (image.Image, error) {
	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	defer dc.Close()
	dc.SetRGBA(1, 1, 1, 1)
	dc.SetStroke(gg.RoundStroke().WithWidth(math.Max(s.BrushSize*m.Scale, 1)))
	for i, p := range s.Points {
		q := m.Apply(p)
		x, y := q.X-float64(bounds.Min.X), q.Y-float64(bounds.Min.Y)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("rasterize stroke: %w", err)
	}
	return dc.Image(), nil
}
