package render

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestShadowDarkensBelowSurface(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	surface := image.Rect(20, 20, 60, 60)
	opts := ShadowOptions{Radius: 4, Offset: image.Pt(4, 4), Opacity: 0.5}
	s := NewShadow(surface.Size(), opts)
	if s == nil {
		t.Fatal("expected a shadow")
	}
	s.Draw(dst, surface)

	if got := dst.RGBAAt(50, 50); got.R >= 255 {
		t.Fatalf("expected shadow under the surface, got %v", got)
	}
	if got := dst.RGBAAt(62, 62); got.R >= 255 {
		t.Fatalf("expected shadow past the bottom right edge, got %v", got)
	}
	if got := dst.RGBAAt(5, 5); got != (color.RGBA{255, 255, 255, 255}) {
		t.Fatalf("shadow leaked to the far corner: %v", got)
	}
}

func TestShadowDisabled(t *testing.T) {
	if s := NewShadow(image.Pt(10, 10), ShadowOptions{Radius: 4}); s != nil {
		t.Fatalf("zero opacity should cast no shadow")
	}
	var s *Shadow
	s.Draw(image.NewRGBA(image.Rect(0, 0, 1, 1)), image.Rect(0, 0, 1, 1))
}

func TestShadowFits(t *testing.T) {
	opts := DefaultShadowOptions(2)
	if opts.Radius != 20 || opts.Offset != image.Pt(8, 12) {
		t.Fatalf("unexpected scaled options %+v", opts)
	}
	s := NewShadow(image.Pt(30, 20), opts)
	if !s.Fits(image.Pt(30, 20), opts) {
		t.Fatalf("shadow should fit the size it was built for")
	}
	if s.Fits(image.Pt(31, 20), opts) {
		t.Fatalf("shadow should not fit another size")
	}
	var none *Shadow
	if none.Fits(image.Pt(30, 20), opts) {
		t.Fatalf("nil shadow fits nothing")
	}
}
