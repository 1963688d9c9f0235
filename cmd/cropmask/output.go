package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/example/cropmask/internal/clipboard"
	"github.com/example/cropmask/internal/export"
	"github.com/example/cropmask/internal/notify"
	"github.com/example/cropmask/internal/viewport"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteImage

// outputFlags are shared by every command that produces an image.
type outputFlags struct {
	input       string
	output      string
	toClipboard bool
	notify      bool
	container   string
	dpr         float64
	mobile      bool
}

func (o *outputFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&o.input, "i", "", "image to open: a path, URL, data: URI, clipboard:, screen: or screen:select")
	fs.StringVar(&o.output, "o", "", "write the result to this file; the extension picks the format")
	fs.BoolVar(&o.toClipboard, "to-clipboard", false, "copy the result to the clipboard as PNG")
	fs.BoolVar(&o.notify, "notify", false, "show a desktop notification with a preview of the result")
	fs.StringVar(&o.container, "container", "", "layout box WxH the editor surface is fitted into")
	fs.Float64Var(&o.dpr, "dpr", 1, "device pixel ratio of the surface")
	fs.BoolVar(&o.mobile, "mobile", false, "use the narrow-screen layout rules")
}

func (o *outputFlags) validate(of HelpData, needOutput bool) error {
	if o.input == "" {
		return usageErrorf(of, "-i is required")
	}
	if needOutput && o.output == "" && !o.toClipboard {
		return usageErrorf(of, "-o or -to-clipboard is required")
	}
	if _, err := o.layout(); err != nil {
		return usageErrorf(of, err.Error())
	}
	return nil
}

// layout builds the container the headless editor is laid out in. An
// empty -container leaves the size unset so the fallback applies.
func (o *outputFlags) layout() (viewport.Container, error) {
	c := viewport.Container{DevicePixelRatio: o.dpr, Mobile: o.mobile}
	if strings.TrimSpace(o.container) == "" {
		return c, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(o.container), "x")
	if !ok {
		return c, fmt.Errorf("invalid -container %q: want WxH", o.container)
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	if err != nil || w <= 0 {
		return c, fmt.Errorf("invalid -container width %q", ws)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err != nil || h <= 0 {
		return c, fmt.Errorf("invalid -container height %q", hs)
	}
	c.Width, c.Height = w, h
	return c, nil
}

// deliver writes res wherever the flags ask for.
func (o *outputFlags) deliver(r *root, res export.Result) error {
	b := res.Image.Bounds()
	detail := fmt.Sprintf("%dx%d image", b.Dx(), b.Dy())
	if res.CropRect != nil {
		c := res.CropRect
		fmt.Fprintf(r.stdout, "crop %s\n", clipboard.CropRectText(c.X, c.Y, c.Width, c.Height))
	}
	if o.output != "" {
		path := r.outputPath(o.output)
		if err := saveImage(res.Image, path); err != nil {
			return err
		}
		r.log.Info("saved", "path", path, "size", detail)
		r.notifySave(path)
	}
	if o.toClipboard {
		if err := writeClipboard(res.Image); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		r.log.Info("copied to clipboard", "size", detail)
		r.notifyCopy(detail)
	}
	if o.notify {
		r.notifier.Enable(notify.EventExport, true)
		r.notifier.Export(detail, res.Image)
	}
	return nil
}

// outputPath places bare file names in the configured save directory.
func (r *root) outputPath(p string) string {
	dir := r.config.Export.SaveDir
	if dir == "" || filepath.IsAbs(p) || strings.ContainsRune(p, filepath.Separator) {
		return p
	}
	if strings.HasPrefix(dir, "~"+string(filepath.Separator)) {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}
	return filepath.Join(dir, p)
}

func saveImage(img image.Image, path string) error {
	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
	}
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
