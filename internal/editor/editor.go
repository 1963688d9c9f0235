// Package editor ties the crop and mask machinery into one editing
// session: a loaded image, its viewport, the drawn geometry with its undo
// history, and the composited buffers.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"
	"sync"

	"github.com/example/cropmask/internal/compositor"
	"github.com/example/cropmask/internal/config"
	"github.com/example/cropmask/internal/export"
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/history"
	"github.com/example/cropmask/internal/input"
	"github.com/example/cropmask/internal/loader"
	"github.com/example/cropmask/internal/theme"
	"github.com/example/cropmask/internal/tools"
	"github.com/example/cropmask/internal/viewport"
)

var (
	// ErrNotReady is returned before an image has finished loading.
	ErrNotReady = errors.New("editor: no image loaded")
	// ErrNotExportable is returned when the geometry cannot be exported.
	ErrNotExportable = errors.New("editor: nothing to export")
	// ErrSuperseded is delivered to a load that was overtaken by a newer one.
	ErrSuperseded = errors.New("editor: load superseded")
	// ErrToolUnavailable is returned for tools outside the editor's variant.
	ErrToolUnavailable = errors.New("editor: tool not available in this variant")
)

// Variant selects the tool set.
type Variant int

const (
	// Basic crops with a polygon or marquee.
	Basic Variant = iota
	// Advanced masks with freehand strokes and an optional selection.
	Advanced
)

func (v Variant) String() string {
	if v == Advanced {
		return "advanced"
	}
	return "basic"
}

// ParseVariant accepts "basic" or "advanced".
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "basic":
		return Basic, nil
	case "advanced":
		return Advanced, nil
	}
	return Basic, fmt.Errorf("unknown variant %q", s)
}

// Tools lists the tools a variant offers, default first.
func (v Variant) Tools() []tools.Name {
	if v == Advanced {
		return []tools.Name{tools.Pencil, tools.Eraser, tools.Select}
	}
	return []tools.Name{tools.Polygon, tools.Rect, tools.Square}
}

func (v Variant) offers(n tools.Name) bool {
	for _, t := range v.Tools() {
		if t == n {
			return true
		}
	}
	return false
}

// Status is a snapshot for toolbars and status lines.
type Status struct {
	Ready     bool
	Variant   Variant
	Tool      tools.Name
	CanUndo   bool
	CanRedo   bool
	CanExport bool
}

// Editor is one editing session. Its methods are safe for concurrent use;
// geometry only changes inside HandleEvent, Undo, Redo, Reset and Export.
type Editor struct {
	variant    Variant
	cfg        *config.Config
	log        *slog.Logger
	theme      *theme.Theme
	onReady    func(viewport.Transform)
	onComplete func(export.Result, bool)
	load       func(context.Context, string) (*loader.Source, error)

	mu        sync.Mutex
	gen       uint64
	ready     bool
	src       *loader.Source
	container viewport.Container
	transform viewport.Transform
	geom      geometry.Geometry
	hist      *history.Stack
	base      *image.NRGBA
	toolCfg   tools.Config
	tool      tools.Tool
	touch     bool
}

// New creates an Editor with the provided options. It holds no image
// until Load succeeds.
func New(opts ...Option) *Editor {
	e := &Editor{
		log:  slog.New(slog.DiscardHandler),
		load: loader.Load,
		hist: history.New(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.cfg == nil {
		e.cfg = config.New()
	}
	if e.theme == nil {
		e.theme = theme.Default()
	}
	e.toolCfg = e.cfg.ToolConfig()
	e.tool = tools.New(e.variant.Tools()[0], e.toolCfg)
	return e
}

// Load resolves and decodes handle on a new goroutine. The returned
// channel receives exactly one value: nil on success, the load error, or
// ErrSuperseded if another Load started first. Input is dropped until a
// load succeeds.
func (e *Editor) Load(ctx context.Context, handle string) <-chan error {
	e.mu.Lock()
	e.gen++
	gen := e.gen
	e.ready = false
	e.cancelGesture()
	e.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		src, err := e.load(ctx, handle)
		done <- e.install(gen, handle, src, err)
		close(done)
	}()
	return done
}

// LoadImage is the blocking form of Load.
func (e *Editor) LoadImage(ctx context.Context, handle string) error {
	select {
	case err := <-e.Load(ctx, handle):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Editor) install(gen uint64, handle string, src *loader.Source, err error) error {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		e.log.Warn("discarding superseded load", "handle", shorten(handle))
		return ErrSuperseded
	}
	if err != nil {
		e.mu.Unlock()
		e.log.Error("load failed", "handle", shorten(handle), "err", err)
		return err
	}
	t, err := e.compute(src)
	if err != nil {
		e.mu.Unlock()
		e.log.Error("load failed", "handle", shorten(handle), "err", err)
		return &loader.LoadError{Handle: handle, Err: err}
	}
	e.src = src
	e.transform = t
	e.geom = geometry.Geometry{}
	e.hist.Reset(e.geom)
	e.tool = tools.New(e.variant.Tools()[0], e.toolCfg)
	e.rebuildBase()
	e.ready = true
	cb := e.onReady
	e.mu.Unlock()

	e.log.Info("image loaded",
		"handle", shorten(handle),
		"format", src.Format,
		"source", fmt.Sprintf("%dx%d", src.Width(), src.Height()),
		"display", fmt.Sprintf("%gx%g", t.DisplayWidth, t.DisplayHeight),
		"scale", t.DevicePixelScale)
	if cb != nil {
		cb(t)
	}
	return nil
}

func (e *Editor) compute(src *loader.Source) (viewport.Transform, error) {
	t, err := viewport.Compute(src.Width(), src.Height(), e.container, e.cfg.View)
	if errors.Is(err, viewport.ErrContainerMissing) {
		e.log.Warn("container size unavailable", "fallback",
			fmt.Sprintf("%gx%g", e.cfg.View.FallbackWidth, e.cfg.View.FallbackHeight))
		err = nil
	}
	return t, err
}

// rebuildBase rescales the source and replays committed strokes onto it.
func (e *Editor) rebuildBase() {
	base := compositor.NewBase(e.src.Image, e.transform)
	m := e.transform.BufferMapping()
	for i, s := range e.geom.Strokes {
		if err := compositor.Apply(base, s, m); err != nil {
			e.log.Error("replay stroke", "index", i, "err", err)
		}
	}
	e.base = base
}

// SetContainer reports the layout box the surface lives in. Calling it
// again with the same box does nothing; a new size rescales all geometry
// and history so points stay on the same image pixels.
func (e *Editor) SetContainer(c viewport.Container) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c == e.container {
		return
	}
	e.container = c
	if !e.ready {
		return
	}
	t, err := e.compute(e.src)
	if err != nil {
		e.log.Error("recompute viewport", "err", err)
		return
	}
	if t == e.transform {
		return
	}
	fn, ratio := viewport.Rescale(e.transform, t)
	e.geom = e.geom.Map(fn, ratio)
	e.hist.Rescale(fn, ratio)
	e.transform = t
	e.cancelGesture()
	e.rebuildBase()
	e.log.Debug("viewport changed", "display", fmt.Sprintf("%gx%g", t.DisplayWidth, t.DisplayHeight), "ratio", ratio)
}

// HandleEvent feeds one unified pointer event to the active tool. It
// reports whether the surface needs repainting. Input before a load
// completes is dropped.
func (e *Editor) HandleEvent(ev input.Event) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return false
	}
	e.touch = ev.Touch
	res := e.tool.Handle(&e.geom, ev)
	if res.Err != nil {
		e.log.Debug("gesture discarded", "tool", e.tool.Name(), "err", res.Err)
	}
	if !res.Committed {
		return res.Changed
	}
	if s := res.Stroke; s != nil && s.Tool == geometry.Erase {
		base, err := compositor.Commit(e.base, *s, e.transform.BufferMapping())
		if err != nil {
			e.log.Error("apply stroke", "err", err)
		} else {
			e.base = base
		}
	}
	e.hist.Push(e.geom)
	e.log.Debug("committed", "tool", e.tool.Name(), "history", e.hist.Len())
	return true
}

// SetTool switches the active tool. Geometry drawn by other tools is kept.
func (e *Editor) SetTool(n tools.Name) error {
	if !e.variant.offers(n) {
		return fmt.Errorf("%w: %s", ErrToolUnavailable, n)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.tool.Name() == n {
		return nil
	}
	e.cancelGesture()
	e.tool = tools.New(n, e.toolCfg)
	e.log.Debug("tool changed", "tool", n)
	return nil
}

// SetBrushSize changes the width of subsequent pencil and eraser strokes.
func (e *Editor) SetBrushSize(size float64) {
	if size <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toolCfg.BrushSize = size
	if b, ok := e.tool.(*tools.BrushTool); ok {
		b.SetBrushSize(size)
	}
}

// Undo restores the previous snapshot. It returns false at the oldest.
func (e *Editor) Undo() bool {
	return e.step((*history.Stack).Undo)
}

// Redo reapplies the next snapshot. It returns false at the newest.
func (e *Editor) Redo() bool {
	return e.step((*history.Stack).Redo)
}

func (e *Editor) step(fn func(*history.Stack) (geometry.Geometry, bool)) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ready {
		return false
	}
	g, ok := fn(e.hist)
	if !ok {
		return false
	}
	strokes := len(e.geom.Strokes)
	e.geom = g
	e.tool.Cancel()
	if strokes != len(g.Strokes) {
		e.rebuildBase()
	}
	return true
}

// cancelGesture drops the tool's in-flight gesture and puts back the
// committed geometry, undoing any uncommitted vertex drag.
func (e *Editor) cancelGesture() {
	e.tool.Cancel()
	strokes := len(e.geom.Strokes)
	e.geom = e.hist.Current()
	if e.ready && strokes != len(e.geom.Strokes) {
		e.rebuildBase()
	}
}

// Reset clears all geometry and history and restores the untouched image.
func (e *Editor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clear()
}

func (e *Editor) clear() {
	e.geom = geometry.Geometry{}
	e.hist.Reset(e.geom)
	e.tool.Cancel()
	if e.ready {
		e.rebuildBase()
	}
}

// CanUndo reports whether Undo would change anything.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready && e.hist.CanUndo()
}

// CanRedo reports whether Redo would change anything.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready && e.hist.CanRedo()
}

// CanExport reports whether Export would succeed. A crop needs a closed
// polygon; a mask can always be exported once an image is loaded.
func (e *Editor) CanExport() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.canExport()
}

func (e *Editor) canExport() bool {
	if !e.ready {
		return false
	}
	if e.variant == Basic {
		return e.geom.Polygon.Valid()
	}
	return true
}

// Status returns a snapshot of the editor's controls.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Ready:     e.ready,
		Variant:   e.variant,
		Tool:      e.tool.Name(),
		CanUndo:   e.ready && e.hist.CanUndo(),
		CanRedo:   e.ready && e.hist.CanRedo(),
		CanExport: e.canExport(),
	}
}

// Variant returns the editor's tool set.
func (e *Editor) Variant() Variant { return e.variant }

// Transform returns the current viewport mapping. It is the zero value
// before a load completes.
func (e *Editor) Transform() viewport.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transform
}

// Geometry returns a copy of the current geometry.
func (e *Editor) Geometry() geometry.Geometry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.geom.Clone()
}

// Render composites the current frame at internal raster resolution.
func (e *Editor) Render() (*image.RGBA, error) {
	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return nil, ErrNotReady
	}
	scene := compositor.Scene{
		Transform: e.transform,
		Base:      e.base,
		Geometry:  e.geom.Clone(),
		Draft:     e.tool.Draft(),
		Touch:     e.touch,
		Theme:     e.theme,
	}
	e.mu.Unlock()
	return compositor.Render(scene)
}

// Export produces the cropped or masked image at source resolution and
// hands it to the OnComplete callback. A mask export keeps the full
// source size and clears strokes and selection afterwards; a crop export
// keeps the polygon.
func (e *Editor) Export() (export.Result, bool, error) {
	e.mu.Lock()
	if !e.ready {
		e.mu.Unlock()
		return export.Result{}, false, ErrNotReady
	}
	if !e.canExport() {
		e.mu.Unlock()
		return export.Result{}, false, ErrNotExportable
	}
	res, edited, err := e.export()
	cb := e.onComplete
	e.mu.Unlock()

	if err != nil {
		e.log.Error("export failed", "variant", e.variant, "err", err)
		return export.Result{}, false, err
	}
	b := res.Image.Bounds()
	e.log.Info("exported", "variant", e.variant, "size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()), "edited", edited)
	if cb != nil {
		cb(res, edited)
	}
	return res, edited, nil
}

func (e *Editor) export() (export.Result, bool, error) {
	src, t := e.src.Image, e.transform
	if e.variant == Basic {
		res, err := export.Polygon(src, t, e.geom.Polygon)
		return res, true, err
	}

	// The selection never crops a mask export; it only resets with the strokes.
	edited := len(e.geom.Strokes) > 0 || e.geom.Selection != nil
	res, err := export.Mask(src, t, e.geom.Strokes)
	if err != nil {
		return export.Result{}, false, err
	}
	if e.cfg.Export.AutoCrop {
		var trimmed bool
		res, trimmed = export.Trim(res, t, e.cfg.Export.AutoCropPadding)
		edited = edited || trimmed
	}
	e.clear()
	return res, edited, nil
}

func shorten(h string) string {
	if len(h) > 64 {
		return h[:61] + "..."
	}
	return h
}
