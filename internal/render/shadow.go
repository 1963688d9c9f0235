// Package render draws window chrome around the editor surface.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/imaging"
)

// ShadowOptions configures the drop shadow cast by the surface.
type ShadowOptions struct {
	Radius  int
	Offset  image.Point
	Opacity float64
}

// DefaultShadowOptions returns a soft shadow sized for scale device
// pixels per display unit.
func DefaultShadowOptions(scale float64) ShadowOptions {
	if scale <= 0 {
		scale = 1
	}
	px := func(v float64) int { return int(math.Round(v * scale)) }
	return ShadowOptions{
		Radius:  px(10),
		Offset:  image.Pt(px(4), px(6)),
		Opacity: 0.45,
	}
}

// Shadow is a pre-blurred shadow for one surface size.
type Shadow struct {
	Image *image.NRGBA
	size  image.Point
	opts  ShadowOptions
	pad   int
}

// NewShadow blurs a shadow for a surface of the given size. It returns
// nil when opts casts no shadow.
func NewShadow(size image.Point, opts ShadowOptions) *Shadow {
	if opts.Opacity <= 0 || size.X <= 0 || size.Y <= 0 {
		return nil
	}
	radius := max(opts.Radius, 0)
	pad := 2 * radius
	mask := image.NewNRGBA(image.Rect(0, 0, size.X+2*pad, size.Y+2*pad))
	a := uint8(math.Min(opts.Opacity, 1)*255 + 0.5)
	body := image.Rect(pad, pad, pad+size.X, pad+size.Y)
	draw.Draw(mask, body, image.NewUniform(color.NRGBA{A: a}), image.Point{}, draw.Src)
	if radius > 0 {
		mask = imaging.Blur(mask, float64(radius)/2)
	}
	return &Shadow{Image: mask, size: size, opts: opts, pad: pad}
}

// Fits reports whether s was built for size and opts.
func (s *Shadow) Fits(size image.Point, opts ShadowOptions) bool {
	return s != nil && s.size == size && s.opts == opts
}

// Draw composites the shadow under a surface placed at surface.
func (s *Shadow) Draw(dst draw.Image, surface image.Rectangle) {
	if s == nil {
		return
	}
	at := surface.Min.Add(s.opts.Offset).Sub(image.Pt(s.pad, s.pad))
	draw.Draw(dst, s.Image.Bounds().Add(at), s.Image, image.Point{}, draw.Over)
}
