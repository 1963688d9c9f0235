package viewport

import (
	"errors"
	"math"
	"testing"

	"github.com/example/cropmask/internal/geometry"
)

func TestComputeExactFit(t *testing.T) {
	p := Params{MinPixelScale: 1}
	tr, err := Compute(800, 600, Container{Width: 400, Height: 300, DevicePixelRatio: 1}, p)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if tr.ImageScale != 0.5 {
		t.Fatalf("ImageScale = %v, want 0.5", tr.ImageScale)
	}
	if tr.ScaledWidth != 400 || tr.ScaledHeight != 300 {
		t.Fatalf("scaled = %vx%v, want 400x300", tr.ScaledWidth, tr.ScaledHeight)
	}
	if tr.OffsetX != 0 || tr.OffsetY != 0 {
		t.Fatalf("unexpected letterbox offsets %v,%v", tr.OffsetX, tr.OffsetY)
	}
}

func TestFitExact(t *testing.T) {
	s, w, h, ox, oy := Fit(800, 600, 400, 300)
	if s != 0.5 || w != 400 || h != 300 || ox != 0 || oy != 0 {
		t.Fatalf("Fit = %v %v %v %v %v", s, w, h, ox, oy)
	}
}

func TestComputeContainment(t *testing.T) {
	sizes := [][2]int{{800, 600}, {600, 800}, {1, 1000}, {4000, 30}, {333, 333}}
	containers := []Container{
		{Width: 400, Height: 300, DevicePixelRatio: 1},
		{Width: 1920, Height: 1080, DevicePixelRatio: 2},
		{Width: 360, Height: 640, DevicePixelRatio: 3, Mobile: true},
		{Width: 90, Height: 90, DevicePixelRatio: 1, Mobile: true},
	}
	for _, s := range sizes {
		for _, c := range containers {
			tr, err := Compute(s[0], s[1], c, DefaultParams())
			if err != nil {
				t.Fatalf("Compute(%v, %+v): %v", s, c, err)
			}
			if tr.ImageScale <= 0 {
				t.Errorf("%v in %+v: non-positive scale %v", s, c, tr.ImageScale)
			}
			if tr.ScaledWidth > float64(tr.InternalWidth)+1e-9 || tr.ScaledHeight > float64(tr.InternalHeight)+1e-9 {
				t.Errorf("%v in %+v: scaled %vx%v exceeds internal %dx%d", s, c, tr.ScaledWidth, tr.ScaledHeight, tr.InternalWidth, tr.InternalHeight)
			}
			if tr.DisplayWidth > float64(s[0]) || tr.DisplayHeight > float64(s[1]) {
				t.Errorf("%v in %+v: display %vx%v exceeds natural size", s, c, tr.DisplayWidth, tr.DisplayHeight)
			}
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tr, err := Compute(1234, 777, Container{Width: 900, Height: 700, DevicePixelRatio: 1.25}, DefaultParams())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for _, p := range []geometry.Point{{X: 0, Y: 0}, {X: 1234, Y: 777}, {X: 10.5, Y: 700.25}, {X: 617, Y: 388.5}} {
		back := tr.ToSource(tr.ToDisplay(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Errorf("round trip %v -> %v", p, back)
		}
	}
}

func TestComputeDegenerateSource(t *testing.T) {
	if _, err := Compute(0, 10, Container{Width: 10, Height: 10}, DefaultParams()); !errors.Is(err, ErrDegenerateSource) {
		t.Fatalf("expected ErrDegenerateSource, got %v", err)
	}
}

func TestComputeMissingContainer(t *testing.T) {
	tr, err := Compute(2000, 1500, Container{}, DefaultParams())
	if !errors.Is(err, ErrContainerMissing) {
		t.Fatalf("expected container warning, got %v", err)
	}
	if !tr.Valid() {
		t.Fatalf("fallback transform should be valid: %+v", tr)
	}
	if tr.DisplayWidth > 800 || tr.DisplayHeight > 600 {
		t.Fatalf("fallback display too large: %vx%v", tr.DisplayWidth, tr.DisplayHeight)
	}
}

func TestMinPixelScaleFloor(t *testing.T) {
	tr, _ := Compute(100, 100, Container{Width: 500, Height: 500, DevicePixelRatio: 1}, DefaultParams())
	if tr.DevicePixelScale != 1.5 {
		t.Fatalf("DevicePixelScale = %v, want 1.5", tr.DevicePixelScale)
	}
	if tr.InternalWidth != 150 {
		t.Fatalf("InternalWidth = %d, want 150", tr.InternalWidth)
	}
}

func TestMobileMinimumWidth(t *testing.T) {
	p := DefaultParams()
	tr, _ := Compute(1000, 4000, Container{Width: 400, Height: 600, DevicePixelRatio: 2, Mobile: true}, p)
	if tr.DisplayWidth != 280 {
		t.Fatalf("DisplayWidth = %v, want mobile minimum 280", tr.DisplayWidth)
	}
	if tr.DisplayHeight != 1120 {
		t.Fatalf("DisplayHeight = %v, want aspect preserved 1120", tr.DisplayHeight)
	}
}

func TestSourceMappingMatchesToSource(t *testing.T) {
	tr, _ := Compute(640, 480, Container{Width: 500, Height: 500, DevicePixelRatio: 2}, DefaultParams())
	p := geometry.Pt(123, 45)
	a := tr.SourceMapping().Apply(p)
	b := tr.ToSource(p)
	if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 {
		t.Fatalf("SourceMapping %v != ToSource %v", a, b)
	}
}

func TestRescaleKeepsImagePixel(t *testing.T) {
	old, _ := Compute(1000, 500, Container{Width: 600, Height: 600, DevicePixelRatio: 1}, DefaultParams())
	nw, _ := Compute(1000, 500, Container{Width: 900, Height: 600, DevicePixelRatio: 1}, DefaultParams())
	fn, _ := Rescale(old, nw)
	p := geometry.Pt(100, 50)
	a := old.ToSource(p)
	b := nw.ToSource(fn(p))
	if math.Abs(a.X-b.X) > 1e-9 || math.Abs(a.Y-b.Y) > 1e-9 {
		t.Fatalf("rescaled point moved on image: %v vs %v", a, b)
	}
}
