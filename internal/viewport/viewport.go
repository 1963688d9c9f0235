// Package viewport maps between a source image's pixel grid, the backing
// raster of the drawing surface and the display coordinates pointer events
// arrive in.
package viewport

import (
	"errors"
	"fmt"
	"math"

	"github.com/example/cropmask/internal/geometry"
)

var (
	// ErrDegenerateSource is returned for images with a zero dimension.
	ErrDegenerateSource = errors.New("source image has zero width or height")
	// ErrContainerMissing is a warning: the returned Transform uses the
	// fallback display size and is still usable.
	ErrContainerMissing = errors.New("container size unavailable, using fallback")
)

// Container describes the layout box the surface is placed in.
type Container struct {
	Width, Height    float64
	DevicePixelRatio float64
	Mobile           bool
}

// Params tunes Compute. The zero value is not useful; start from
// DefaultParams.
type Params struct {
	DesktopInset   float64
	MobileInset    float64
	MinPixelScale  float64
	MinMobileWidth float64
	FallbackWidth  float64
	FallbackHeight float64
}

// DefaultParams returns the stock layout parameters.
func DefaultParams() Params {
	return Params{
		DesktopInset:   32,
		MobileInset:    16,
		MinPixelScale:  1.5,
		MinMobileWidth: 280,
		FallbackWidth:  800,
		FallbackHeight: 600,
	}
}

// Transform is an immutable snapshot of the current mapping.
type Transform struct {
	SourceWidth, SourceHeight     int
	DisplayWidth, DisplayHeight   float64
	InternalWidth, InternalHeight int
	DevicePixelScale              float64
	ImageScale                    float64
	ScaledWidth, ScaledHeight     float64
	OffsetX, OffsetY              float64
}

// Compute derives the Transform for a source image placed in c. When the
// container has no size the fallback is used and ErrContainerMissing is
// returned alongside a valid Transform.
func Compute(sourceW, sourceH int, c Container, p Params) (Transform, error) {
	if sourceW <= 0 || sourceH <= 0 {
		return Transform{}, fmt.Errorf("%w: %dx%d", ErrDegenerateSource, sourceW, sourceH)
	}
	var warn error
	cw, ch := c.Width, c.Height
	if cw <= 0 || ch <= 0 {
		cw, ch = p.FallbackWidth, p.FallbackHeight
		warn = ErrContainerMissing
	}
	inset := p.DesktopInset
	if c.Mobile {
		inset = p.MobileInset
	}
	availW := math.Max(cw-2*inset, 1)
	availH := math.Max(ch-2*inset, 1)

	sw, sh := float64(sourceW), float64(sourceH)
	s := math.Min(math.Min(availW/sw, availH/sh), 1)
	dw := math.Max(math.Round(sw*s), 1)
	dh := math.Max(math.Round(sh*s), 1)
	if c.Mobile && dw < p.MinMobileWidth {
		target := math.Min(math.Min(p.MinMobileWidth, availW), sw)
		if target > dw {
			dh = math.Max(math.Round(target*sh/sw), 1)
			dw = target
		}
	}

	dps := math.Max(c.DevicePixelRatio, p.MinPixelScale)
	if dps <= 0 {
		dps = 1
	}
	iw := int(math.Max(math.Round(dw*dps), 1))
	ih := int(math.Max(math.Round(dh*dps), 1))

	t := Transform{
		SourceWidth:      sourceW,
		SourceHeight:     sourceH,
		DisplayWidth:     dw,
		DisplayHeight:    dh,
		InternalWidth:    iw,
		InternalHeight:   ih,
		DevicePixelScale: dps,
	}
	t.ImageScale, t.ScaledWidth, t.ScaledHeight, t.OffsetX, t.OffsetY = Fit(sourceW, sourceH, iw, ih)
	return t, warn
}

// Fit scales a source into a raster preserving aspect ratio and centres
// it.
func Fit(sourceW, sourceH, rasterW, rasterH int) (scale, scaledW, scaledH, offX, offY float64) {
	sw, sh := float64(sourceW), float64(sourceH)
	scale = math.Min(float64(rasterW)/sw, float64(rasterH)/sh)
	scaledW, scaledH = sw*scale, sh*scale
	offX = (float64(rasterW) - scaledW) / 2
	offY = (float64(rasterH) - scaledH) / 2
	return
}

// Valid reports whether the transform came from a successful Compute.
func (t Transform) Valid() bool {
	return t.SourceWidth > 0 && t.SourceHeight > 0 && t.ImageScale > 0
}

// ToDisplay maps a source pixel position to display coordinates.
func (t Transform) ToDisplay(src geometry.Point) geometry.Point {
	return geometry.Point{
		X: (src.X*t.ImageScale + t.OffsetX) / t.DevicePixelScale,
		Y: (src.Y*t.ImageScale + t.OffsetY) / t.DevicePixelScale,
	}
}

// ToSource maps display coordinates to source pixels.
func (t Transform) ToSource(d geometry.Point) geometry.Point {
	return geometry.Point{
		X: (d.X*t.DevicePixelScale - t.OffsetX) / t.ImageScale,
		Y: (d.Y*t.DevicePixelScale - t.OffsetY) / t.ImageScale,
	}
}

// ToRaster maps display coordinates onto the internal raster.
func (t Transform) ToRaster(d geometry.Point) geometry.Point {
	return d.Scale(t.DevicePixelScale)
}

// FromRaster maps an internal raster position back to display coordinates.
func (t Transform) FromRaster(r geometry.Point) geometry.Point {
	return r.Scale(1 / t.DevicePixelScale)
}

// Mapping is an affine map from display coordinates into some pixel
// buffer: buf = display*Scale - Offset.
type Mapping struct {
	Scale            float64
	OffsetX, OffsetY float64
}

// Apply maps p.
func (m Mapping) Apply(p geometry.Point) geometry.Point {
	return geometry.Point{X: p.X*m.Scale - m.OffsetX, Y: p.Y*m.Scale - m.OffsetY}
}

// BufferMapping targets the scaled base buffer, which holds the image
// without the centering offset.
func (t Transform) BufferMapping() Mapping {
	return Mapping{Scale: t.DevicePixelScale, OffsetX: t.OffsetX, OffsetY: t.OffsetY}
}

// SourceMapping targets the full resolution source. It is BufferMapping
// scaled by source/scaled size.
func (t Transform) SourceMapping() Mapping {
	r := 1 / t.ImageScale
	return Mapping{Scale: t.DevicePixelScale * r, OffsetX: t.OffsetX * r, OffsetY: t.OffsetY * r}
}

// Rescale returns a function converting display points of old into the
// display space of t, so placed geometry stays on the same image pixels.
func Rescale(old, t Transform) (func(geometry.Point) geometry.Point, float64) {
	ratio := t.DisplayWidth / old.DisplayWidth
	return func(p geometry.Point) geometry.Point {
		return t.ToDisplay(old.ToSource(p))
	}, ratio
}

