package editor

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/example/cropmask/internal/config"
	"github.com/example/cropmask/internal/export"
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
	"github.com/example/cropmask/internal/loader"
	"github.com/example/cropmask/internal/tools"
	"github.com/example/cropmask/internal/viewport"
)

func solid(w, h int) *loader.Source {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA{90, 120, 150, 255}), image.Point{}, draw.Src)
	return &loader.Source{Handle: "mem", Format: "png", Image: img}
}

// exactConfig lays a 200x200 source out at half scale in a 100x100 box
// with no inset or pixel scale floor.
func exactConfig() *config.Config {
	c := config.New()
	c.View.DesktopInset = 0
	c.View.MinPixelScale = 1
	return c
}

var box = viewport.Container{Width: 100, Height: 100, DevicePixelRatio: 1}

func staticLoader(src *loader.Source) func(context.Context, string) (*loader.Source, error) {
	return func(context.Context, string) (*loader.Source, error) { return src, nil }
}

func newLoaded(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	base := []Option{WithConfig(exactConfig()), WithContainer(box), withLoader(staticLoader(solid(200, 200)))}
	e := New(append(base, opts...)...)
	if err := e.LoadImage(context.Background(), "mem"); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	return e
}

func tap(e *Editor, x, y float64) {
	p := geometry.Pt(x, y)
	e.HandleEvent(input.Event{Kind: input.Press, Point: p})
	e.HandleEvent(input.Event{Kind: input.Release, Point: p})
}

func drag(e *Editor, pts ...geometry.Point) {
	e.HandleEvent(input.Event{Kind: input.Press, Point: pts[0]})
	for _, p := range pts[1 : len(pts)-1] {
		e.HandleEvent(input.Event{Kind: input.Move, Point: p})
	}
	e.HandleEvent(input.Event{Kind: input.Release, Point: pts[len(pts)-1]})
}

func square(e *Editor) {
	for _, p := range [][2]float64{{10, 10}, {90, 10}, {90, 90}, {10, 90}, {10, 10}} {
		tap(e, p[0], p[1])
	}
}

func TestInputDroppedUntilReady(t *testing.T) {
	release := make(chan struct{})
	e := New(WithConfig(exactConfig()), WithContainer(box), withLoader(func(context.Context, string) (*loader.Source, error) {
		<-release
		return solid(200, 200), nil
	}))
	done := e.Load(context.Background(), "slow")

	if e.HandleEvent(input.Event{Kind: input.Press, Point: geometry.Pt(10, 10)}) {
		t.Fatalf("event accepted before load")
	}
	if _, err := e.Render(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Render before load: %v", err)
	}
	if _, _, err := e.Export(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Export before load: %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("load: %v", err)
	}
	if !e.Geometry().Empty() {
		t.Fatalf("dropped input leaked into geometry")
	}
	tap(e, 10, 10)
	if g := e.Geometry(); g.Polygon == nil || len(g.Polygon.Points) != 1 {
		t.Fatalf("tap after load not applied: %+v", g.Polygon)
	}
}

func TestLastLoadWins(t *testing.T) {
	release := make(chan struct{})
	var readyCalls int
	e := New(WithConfig(exactConfig()), WithContainer(box),
		OnReady(func(viewport.Transform) { readyCalls++ }),
		withLoader(func(_ context.Context, handle string) (*loader.Source, error) {
			if handle == "slow" {
				<-release
				return solid(400, 400), nil
			}
			return solid(200, 100), nil
		}))

	first := e.Load(context.Background(), "slow")
	if err := <-e.Load(context.Background(), "fast"); err != nil {
		t.Fatalf("second load: %v", err)
	}
	close(release)
	if err := <-first; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("first load: expected ErrSuperseded, got %v", err)
	}
	if tr := e.Transform(); tr.SourceWidth != 200 || tr.SourceHeight != 100 {
		t.Fatalf("stale load installed: %dx%d", tr.SourceWidth, tr.SourceHeight)
	}
	if readyCalls != 1 {
		t.Fatalf("OnReady fired %d times", readyCalls)
	}
}

func TestLoadErrorLeavesEditorInert(t *testing.T) {
	boom := errors.New("decode failed")
	e := New(withLoader(func(context.Context, string) (*loader.Source, error) {
		return nil, &loader.LoadError{Handle: "bad", Err: boom}
	}))
	err := e.LoadImage(context.Background(), "bad")
	var le *loader.LoadError
	if !errors.As(err, &le) || !errors.Is(err, boom) {
		t.Fatalf("expected LoadError wrapping cause, got %v", err)
	}
	if e.Status().Ready || e.HandleEvent(input.Event{Kind: input.Press}) {
		t.Fatalf("editor accepted input after failed load")
	}
}

func TestLoadImageHonoursContext(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	e := New(withLoader(func(context.Context, string) (*loader.Source, error) {
		<-block
		return solid(1, 1), nil
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := e.LoadImage(ctx, "slow"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline, got %v", err)
	}
}

func TestBasicPolygonExport(t *testing.T) {
	var got []bool
	e := newLoaded(t, OnComplete(func(_ export.Result, edited bool) { got = append(got, edited) }))
	if e.CanExport() {
		t.Fatalf("exportable with no polygon")
	}
	if _, _, err := e.Export(); !errors.Is(err, ErrNotExportable) {
		t.Fatalf("expected ErrNotExportable, got %v", err)
	}
	square(e)
	if !e.CanExport() {
		t.Fatalf("closed polygon not exportable: %+v", e.Geometry().Polygon)
	}

	for i := 0; i < 2; i++ {
		res, edited, err := e.Export()
		if err != nil {
			t.Fatalf("Export %d: %v", i, err)
		}
		if b := res.Image.Bounds(); b.Dx() != 160 || b.Dy() != 160 {
			t.Fatalf("export size %v", b)
		}
		want := geometry.Box{X: 10, Y: 10, Width: 80, Height: 80}
		if res.CropRect == nil || *res.CropRect != want {
			t.Fatalf("CropRect %+v", res.CropRect)
		}
		if !edited {
			t.Fatalf("crop reported as pass-through")
		}
	}
	if len(got) != 2 {
		t.Fatalf("OnComplete called %d times", len(got))
	}
}

func TestUndoRedo(t *testing.T) {
	e := newLoaded(t)
	if e.Undo() || e.Redo() {
		t.Fatalf("undo/redo at boundaries changed state")
	}
	tap(e, 10, 10)
	tap(e, 50, 10)
	tap(e, 50, 50)
	if n := len(e.Geometry().Polygon.Points); n != 3 {
		t.Fatalf("got %d vertices", n)
	}
	if !e.Undo() {
		t.Fatalf("undo failed")
	}
	if n := len(e.Geometry().Polygon.Points); n != 2 {
		t.Fatalf("after undo %d vertices", n)
	}
	if !e.Redo() || len(e.Geometry().Polygon.Points) != 3 {
		t.Fatalf("redo did not restore vertex")
	}

	e.Undo()
	tap(e, 20, 60)
	if e.CanRedo() {
		t.Fatalf("new commit kept redo entries")
	}

	e.Reset()
	if !e.Geometry().Empty() || e.CanUndo() {
		t.Fatalf("reset left state behind")
	}
}

func TestAdvancedMaskExport(t *testing.T) {
	var edits []bool
	e := newLoaded(t, WithVariant(Advanced), OnComplete(func(_ export.Result, edited bool) { edits = append(edits, edited) }))
	if err := e.SetTool(tools.Eraser); err != nil {
		t.Fatalf("SetTool: %v", err)
	}
	drag(e, geometry.Pt(10, 50), geometry.Pt(50, 50), geometry.Pt(90, 50))
	if n := len(e.Geometry().Strokes); n != 1 {
		t.Fatalf("got %d strokes", n)
	}

	frame, err := e.Render()
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if frame.Bounds() != image.Rect(0, 0, 100, 100) {
		t.Fatalf("frame bounds %v", frame.Bounds())
	}

	res, edited, err := e.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !edited || res.CropRect != nil {
		t.Fatalf("edited=%v crop=%v", edited, res.CropRect)
	}
	if a := res.Image.NRGBAAt(100, 100).A; a != 0 {
		t.Fatalf("erased pixel alpha %d", a)
	}
	if a := res.Image.NRGBAAt(100, 10).A; a != 255 {
		t.Fatalf("untouched pixel alpha %d", a)
	}
	if !e.Geometry().Empty() || e.CanUndo() {
		t.Fatalf("mask export kept geometry")
	}

	res, edited, err = e.Export()
	if err != nil {
		t.Fatalf("identity Export: %v", err)
	}
	if edited {
		t.Fatalf("identity export reported an edit")
	}
	if a := res.Image.NRGBAAt(100, 100).A; a != 255 {
		t.Fatalf("erase survived the export reset")
	}
	if len(edits) != 2 || !edits[0] || edits[1] {
		t.Fatalf("OnComplete edits = %v", edits)
	}
}

func TestAdvancedUndoRebuildsBase(t *testing.T) {
	e := newLoaded(t, WithVariant(Advanced))
	e.SetTool(tools.Eraser)
	drag(e, geometry.Pt(10, 50), geometry.Pt(90, 50))
	before := e.base
	if a := before.NRGBAAt(50, 50).A; a != 0 {
		t.Fatalf("commit did not erase base, alpha %d", a)
	}
	e.Undo()
	if a := e.base.NRGBAAt(50, 50).A; a != 255 {
		t.Fatalf("undo left erase in base, alpha %d", a)
	}
	e.Redo()
	if a := e.base.NRGBAAt(50, 50).A; a != 0 {
		t.Fatalf("redo did not replay erase, alpha %d", a)
	}
}

func TestSelectionExportKeepsCanvas(t *testing.T) {
	e := newLoaded(t, WithVariant(Advanced))
	e.SetTool(tools.Eraser)
	drag(e, geometry.Pt(10, 50), geometry.Pt(50, 50), geometry.Pt(90, 50))
	e.SetTool(tools.Select)
	drag(e, geometry.Pt(20, 20), geometry.Pt(60, 70))
	if e.Geometry().Selection == nil {
		t.Fatalf("marquee did not commit a selection")
	}
	res, edited, err := e.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if b := res.Image.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("selection export size %v, want full 200x200 source", b)
	}
	if !edited || res.CropRect != nil {
		t.Fatalf("selection export edited=%v crop=%v", edited, res.CropRect)
	}
	if a := res.Image.NRGBAAt(100, 100).A; a != 0 {
		t.Fatalf("erased pixel alpha %d", a)
	}
	if g := e.Geometry(); g.Selection != nil || len(g.Strokes) != 0 {
		t.Fatalf("export kept selection %v strokes %d", g.Selection, len(g.Strokes))
	}
}

func TestSelectionOnlyExportIsFullSize(t *testing.T) {
	e := newLoaded(t, WithVariant(Advanced))
	e.SetTool(tools.Select)
	drag(e, geometry.Pt(20, 20), geometry.Pt(60, 70))
	res, _, err := e.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if b := res.Image.Bounds(); b != image.Rect(0, 0, 200, 200) || res.CropRect != nil {
		t.Fatalf("bounds %v crop %v", b, res.CropRect)
	}
}

func TestSetToolRespectsVariant(t *testing.T) {
	e := New()
	if err := e.SetTool(tools.Eraser); !errors.Is(err, ErrToolUnavailable) {
		t.Fatalf("basic editor accepted eraser: %v", err)
	}
	if err := e.SetTool(tools.Rect); err != nil {
		t.Fatalf("SetTool(rect): %v", err)
	}
	if got := e.Status().Tool; got != tools.Rect {
		t.Fatalf("tool = %v", got)
	}
}

func TestSetContainerRescalesGeometry(t *testing.T) {
	e := newLoaded(t)
	tap(e, 10, 10)
	tap(e, 50, 10)
	before := e.Transform()

	e.SetContainer(box)
	if e.Transform() != before {
		t.Fatalf("same container changed the transform")
	}

	e.SetContainer(viewport.Container{Width: 200, Height: 200, DevicePixelRatio: 1})
	if w := e.Transform().DisplayWidth; w != 200 {
		t.Fatalf("display width %g", w)
	}
	pts := e.Geometry().Polygon.Points
	if pts[1] != geometry.Pt(100, 20) {
		t.Fatalf("vertex not rescaled: %v", pts[1])
	}
	e.Undo()
	e.Redo()
	if got := e.Geometry().Polygon.Points[1]; got != geometry.Pt(100, 20) {
		t.Fatalf("history not rescaled: %v", got)
	}
}

func TestCancelledDragRestoresCommittedVertex(t *testing.T) {
	tests := []struct {
		name   string
		cancel func(*Editor)
		want   geometry.Point
	}{
		{"set tool", func(e *Editor) { e.SetTool(tools.Rect) }, geometry.Pt(50, 10)},
		{"set container", func(e *Editor) {
			e.SetContainer(viewport.Container{Width: 200, Height: 200, DevicePixelRatio: 1})
		}, geometry.Pt(100, 20)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newLoaded(t)
			tap(e, 10, 10)
			tap(e, 50, 10)
			tap(e, 50, 50)
			e.HandleEvent(input.Event{Kind: input.Press, Point: geometry.Pt(50, 10)})
			e.HandleEvent(input.Event{Kind: input.Move, Point: geometry.Pt(70, 30)})
			if got := e.Geometry().Polygon.Points[1]; got != geometry.Pt(70, 30) {
				t.Fatalf("drag did not move vertex: %v", got)
			}

			tt.cancel(e)
			pts := e.Geometry().Polygon.Points
			if len(pts) != 3 || pts[1] != tt.want {
				t.Fatalf("after cancel vertices %v, want [1]=%v", pts, tt.want)
			}
			if !e.Undo() {
				t.Fatalf("undo failed")
			}
			if pts := e.Geometry().Polygon.Points; len(pts) != 2 || pts[1] != tt.want {
				t.Fatalf("undo skipped the committed state: %v", pts)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	for in, want := range map[string]Variant{"": Basic, "basic": Basic, " Advanced ": Advanced} {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Errorf("ParseVariant(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseVariant("fancy"); err == nil {
		t.Errorf("ParseVariant accepted fancy")
	}
}
