// Package viewer runs an editor session in a desktop window.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/cropmask/internal/clipboard"
	"github.com/example/cropmask/internal/editor"
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/input"
	"github.com/example/cropmask/internal/render"
	"github.com/example/cropmask/internal/theme"
	"github.com/example/cropmask/internal/viewport"
)

const (
	statusHeight = 20
	messageTTL   = 2 * time.Second
	brushStep    = 2.0
	minBrush     = 1.0
)

// Options configures the window.
type Options struct {
	Title         string
	Width, Height int
	Mobile        bool
	BrushSize     float64
	Theme         *theme.Theme
	Logger        *slog.Logger
	// NoShadow turns off the drop shadow under the surface.
	NoShadow bool
	// Pending is the result channel of a Load started before Run. The
	// window repaints when it fires.
	Pending <-chan error
	// CopyImage and CopyText default to the system clipboard.
	CopyImage func(image.Image) error
	CopyText  func(string) error
}

func (o *Options) defaults() {
	if o.Title == "" {
		o.Title = "cropmask"
	}
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 1024, 768
	}
	if o.BrushSize <= 0 {
		o.BrushSize = 12
	}
	if o.Theme == nil {
		o.Theme = theme.Default()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.CopyImage == nil {
		o.CopyImage = clipboard.WriteImage
	}
	if o.CopyText == nil {
		o.CopyText = clipboard.WriteText
	}
}

type loadedEvent struct{ err error }

// Run opens the window on shiny's driver and blocks until it closes or
// ctx is done.
func Run(ctx context.Context, ed *editor.Editor, opts Options) error {
	var err error
	driver.Main(func(s screen.Screen) { err = Main(ctx, s, ed, opts) })
	return err
}

// devicePixelRatio converts shiny's pixels per point into pixels per CSS
// style display unit.
func devicePixelRatio(pixelsPerPt float32) float64 {
	if pixelsPerPt <= 0 {
		return 1
	}
	return float64(pixelsPerPt) * 72 / 96
}

// containerFor is the layout box left for the surface once the status
// bar is reserved, in display units.
func containerFor(widthPx, heightPx int, dpr float64, mobile bool) viewport.Container {
	return viewport.Container{
		Width:            float64(widthPx) / dpr,
		Height:           float64(heightPx-statusHeight) / dpr,
		DevicePixelRatio: dpr,
		Mobile:           mobile,
	}
}

// surfaceRect centres the surface in the canvas area of the window.
func surfaceRect(widthPx, heightPx int, dpr float64, t viewport.Transform) image.Rectangle {
	w := int(math.Round(t.DisplayWidth * dpr))
	h := int(math.Round(t.DisplayHeight * dpr))
	x := (widthPx - w) / 2
	y := (heightPx - statusHeight - h) / 2
	return image.Rect(x, y, x+w, y+h)
}

func surfaceFor(r image.Rectangle, dpr float64) input.Surface {
	return input.Surface{OriginX: float64(r.Min.X), OriginY: float64(r.Min.Y), Scale: dpr}
}

type paintState struct {
	width, height int
	frame         *image.RGBA
	dst           image.Rectangle
	background    color.Color
	shadow        render.ShadowOptions
	status        string
	message       string
}

// painter draws frames on its own goroutine. Only the newest queued frame
// is kept.
type painter struct {
	ch   chan paintState
	done chan struct{}
}

func startPainter(draw func(paintState)) *painter {
	p := &painter{ch: make(chan paintState, 1), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		for st := range p.ch {
			draw(st)
		}
	}()
	return p
}

// queue replaces any frame still waiting. It must be called from a single
// goroutine.
func (p *painter) queue(st paintState) {
	select {
	case <-p.ch:
	default:
	}
	p.ch <- st
}

// stop closes the queue and waits for the frame in progress to finish.
func (p *painter) stop() {
	close(p.ch)
	<-p.done
}

// Main runs the event loop on an existing screen.
func Main(ctx context.Context, s screen.Screen, ed *editor.Editor, opts Options) error {
	opts.defaults()
	log := opts.Logger

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: opts.Width, Height: opts.Height, Title: opts.Title})
	if err != nil {
		return fmt.Errorf("new window: %w", err)
	}
	defer w.Release()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			w.Send(lifecycle.Event{To: lifecycle.StageDead})
		case <-done:
		}
	}()
	if opts.Pending != nil {
		go func() {
			select {
			case err := <-opts.Pending:
				w.Send(loadedEvent{err: err})
			case <-done:
			}
		}()
	}

	var shadow *render.Shadow
	painter := startPainter(func(st paintState) {
		if size := st.dst.Size(); !shadow.Fits(size, st.shadow) {
			shadow = render.NewShadow(size, st.shadow)
		}
		drawFrame(s, w, st, shadow)
	})
	// Runs before w.Release so no upload races the window teardown.
	defer painter.stop()

	var (
		width, height = opts.Width, opts.Height
		dpr           = 1.0
		unifier       input.Unifier
		brush         = opts.BrushSize
		lastExport    *image.NRGBA
		lastRect      *geometry.Box
		message       string
		messageUntil  time.Time
	)
	say := func(format string, args ...any) {
		message = fmt.Sprintf(format, args...)
		messageUntil = time.Now().Add(messageTTL)
		log.Info(message)
	}
	ed.SetBrushSize(brush)

	feed := func(ev input.Event, ok bool) {
		if ok && ed.HandleEvent(ev) {
			w.Send(paint.Event{})
		}
	}

	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				return nil
			}

		case loadedEvent:
			if e.err != nil && !errors.Is(e.err, editor.ErrSuperseded) {
				say("load failed: %v", e.err)
			}
			w.Send(paint.Event{})

		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			dpr = devicePixelRatio(e.PixelsPerPt)
			ed.SetContainer(containerFor(width, height, dpr, opts.Mobile))
			w.Send(paint.Event{})

		case paint.Event:
			st := paintState{
				width:      width,
				height:     height,
				background: opts.Theme.Background,
				status:     statusLine(ed.Status(), brush),
			}
			if time.Now().Before(messageUntil) {
				st.message = message
			}
			frame, err := ed.Render()
			switch {
			case err == nil:
				st.frame = frame
				st.dst = surfaceRect(width, height, dpr, ed.Transform())
				if !opts.NoShadow {
					st.shadow = render.DefaultShadowOptions(dpr)
				}
			case errors.Is(err, editor.ErrNotReady):
				if st.message == "" {
					st.message = "loading"
				}
			default:
				log.Error("render", "err", err)
			}
			painter.queue(st)

		case mouse.Event:
			unifier.Surface = surfaceFor(surfaceRect(width, height, dpr, ed.Transform()), dpr)
			feed(unifier.FromMouse(e))

		case touch.Event:
			unifier.Surface = surfaceFor(surfaceRect(width, height, dpr, ed.Transform()), dpr)
			feed(unifier.FromTouch(e))

		case key.Event:
			b, ok := lookup(e)
			if !ok {
				continue
			}
			switch b.action {
			case actionQuit:
				return nil
			case actionTool:
				if err := ed.SetTool(b.tool); err != nil {
					say("%s is not available in %s mode", b.tool, ed.Variant())
				}
			case actionUndo:
				ed.Undo()
			case actionRedo:
				ed.Redo()
			case actionReset:
				ed.Reset()
			case actionBrushDown, actionBrushUp:
				if b.action == actionBrushUp {
					brush += brushStep
				} else {
					brush = math.Max(brush-brushStep, minBrush)
				}
				ed.SetBrushSize(brush)
			case actionExport:
				res, _, err := ed.Export()
				if err != nil {
					say("export: %v", err)
					break
				}
				lastExport, lastRect = res.Image, res.CropRect
				r := res.Image.Bounds()
				say("exported %dx%d", r.Dx(), r.Dy())
			case actionCopy:
				if lastExport == nil {
					say("nothing exported yet")
					break
				}
				if err := opts.CopyImage(lastExport); err != nil {
					say("copy: %v", err)
					break
				}
				say("image copied to clipboard")
			case actionCopyRect:
				if lastRect == nil {
					say("no crop rectangle")
					break
				}
				if err := opts.CopyText(clipboard.CropRectText(lastRect.X, lastRect.Y, lastRect.Width, lastRect.Height)); err != nil {
					say("copy: %v", err)
					break
				}
				say("crop rectangle copied")
			}
			w.Send(paint.Event{})

		case error:
			log.Error("window", "err", e)
		}
	}
}

func statusLine(st editor.Status, brush float64) string {
	parts := []string{st.Variant.String(), st.Tool.String()}
	if st.Variant == editor.Advanced {
		parts = append(parts, fmt.Sprintf("brush %g", brush))
	}
	if st.CanUndo {
		parts = append(parts, "^Z undo")
	}
	if st.CanRedo {
		parts = append(parts, "^Y redo")
	}
	if st.CanExport {
		parts = append(parts, "Enter export")
	}
	return strings.Join(parts, "  ")
}

func drawFrame(s screen.Screen, w screen.Window, st paintState, shadow *render.Shadow) {
	if st.width <= 0 || st.height <= 0 {
		return
	}
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		return
	}
	defer b.Release()
	dst := b.RGBA()

	draw.Draw(dst, dst.Bounds(), image.NewUniform(st.background), image.Point{}, draw.Src)
	if st.frame != nil && !st.dst.Empty() {
		shadow.Draw(dst, st.dst)
		xdraw.ApproxBiLinear.Scale(dst, st.dst, st.frame, st.frame.Bounds(), draw.Src, nil)
	}

	bar := image.Rect(0, st.height-statusHeight, st.width, st.height)
	draw.Draw(dst, bar, image.NewUniform(color.RGBA{32, 32, 32, 255}), image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.White, Face: basicfont.Face7x13}
	d.Dot = fixed.P(6, st.height-6)
	d.DrawString(st.status)

	if st.message != "" {
		wmsg := d.MeasureString(st.message).Ceil()
		d.Dot = fixed.P(st.width-wmsg-6, st.height-6)
		d.Src = image.NewUniform(color.RGBA{255, 210, 80, 255})
		d.DrawString(st.message)
	}

	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
