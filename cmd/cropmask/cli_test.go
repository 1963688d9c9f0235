package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/example/cropmask/internal/config"
	"github.com/example/cropmask/internal/editor"
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/theme"
	"github.com/example/cropmask/internal/viewer"
)

func testRoot(t *testing.T) (*root, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &root{
		program:     "cropmask",
		config:      config.New(),
		log:         slog.New(slog.DiscardHandler),
		activeTheme: theme.Default(),
		stdout:      &out,
		stderr:      io.Discard,
	}, &out
}

func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func expectUsage(t *testing.T, err error, want string) {
	t.Helper()
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected UsageError, got %v", err)
	}
	if !strings.Contains(uerr.Error(), want) {
		t.Fatalf("expected usage to mention %q, got %q", want, uerr.Error())
	}
	if !strings.Contains(uerr.Error(), "Usage: ") {
		t.Fatalf("expected rendered help, got %q", uerr.Error())
	}
}

func TestParseErrors(t *testing.T) {
	r, _ := testRoot(t)
	tests := []struct {
		name  string
		parse func() error
		want  string
	}{
		{"crop without input", func() error { _, err := parseCropCmd([]string{"-o", "x.png", "-rect", "0,0,1,1"}, r); return err }, "-i is required"},
		{"crop without output", func() error { _, err := parseCropCmd([]string{"-i", "a.png", "-rect", "0,0,1,1"}, r); return err }, "-o or -to-clipboard"},
		{"crop with two shapes", func() error {
			_, err := parseCropCmd([]string{"-i", "a.png", "-o", "b.png", "-rect", "0,0,1,1", "-square", "0,0,1,1"}, r)
			return err
		}, "exactly one of"},
		{"crop bad container", func() error {
			_, err := parseCropCmd([]string{"-i", "a.png", "-o", "b.png", "-rect", "0,0,1,1", "-container", "wide"}, r)
			return err
		}, "invalid -container"},
		{"mask short stroke", func() error { _, err := parseMaskCmd([]string{"-i", "a.png", "-o", "b.png", "-erase", "1,1"}, r); return err }, "at least two points"},
		{"mask bad brush", func() error { _, err := parseMaskCmd([]string{"-i", "a.png", "-o", "b.png", "-brush", "0"}, r); return err }, "-brush must be positive"},
		{"edit bad variant", func() error { _, err := parseEditCmd([]string{"-variant", "fancy", "a.png"}, r); return err }, "fancy"},
		{"autocrop negative padding", func() error {
			_, err := parseAutoCropCmd([]string{"-i", "a.png", "-o", "b.png", "-padding", "-1"}, r)
			return err
		}, "-padding"},
		{"config unknown action", func() error { _, err := parseConfigCmd([]string{"load"}, r); return err }, `unknown action "load"`},
		{"config missing action", func() error { _, err := parseConfigCmd(nil, r); return err }, "missing action"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectUsage(t, tc.parse(), tc.want)
		})
	}
}

func TestUsageNamesSubcommand(t *testing.T) {
	r, _ := testRoot(t)
	_, err := parseCropCmd(nil, r)
	expectUsage(t, err, "Usage: cropmask crop")
	if r.program != "cropmask" {
		t.Fatalf("subcommand modified the root program: %q", r.program)
	}
}

func TestRootUnknownCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir)
	r := newRoot()
	expectUsage(t, r.Run([]string{"frobnicate"}), "Usage: cropmask")
}

func TestParsePoints(t *testing.T) {
	pts, err := parsePoints("1,2 3.5,4;5,6")
	if err != nil {
		t.Fatalf("parsePoints: %v", err)
	}
	if len(pts) != 3 || pts[1].X != 3.5 || pts[2].Y != 6 {
		t.Fatalf("got %v", pts)
	}
	for _, bad := range []string{"", "1", "a,2", "1,b"} {
		if _, err := parsePoints(bad); err == nil {
			t.Errorf("parsePoints(%q) should fail", bad)
		}
	}
	if _, err := parseRect("1,2,3"); err == nil {
		t.Errorf("parseRect should reject three values")
	}
}

func TestLayout(t *testing.T) {
	o := outputFlags{container: "640x480", dpr: 2, mobile: true}
	c, err := o.layout()
	if err != nil {
		t.Fatalf("layout: %v", err)
	}
	if c.Width != 640 || c.Height != 480 || c.DevicePixelRatio != 2 || !c.Mobile {
		t.Fatalf("got %+v", c)
	}
	o.container = ""
	if c, _ := o.layout(); c.Width != 0 || c.Height != 0 {
		t.Fatalf("empty container should leave the size unset, got %+v", c)
	}
}

func TestCropRect(t *testing.T) {
	in := writePNG(t, solid(200, 200, color.NRGBA{200, 0, 0, 255}))
	out := filepath.Join(t.TempDir(), "out.png")
	r, stdout := testRoot(t)
	cmd, err := parseCropCmd([]string{"-i", in, "-o", out, "-rect", "20,20,120,120", "-source-coords"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("result is %dx%d, want 100x100", b.Dx(), b.Dy())
	}
	if !strings.HasPrefix(stdout.String(), "crop ") {
		t.Fatalf("expected crop rectangle on stdout, got %q", stdout.String())
	}
}

func TestCropShapes(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		w, h   int
		stdout string
	}{
		{"polygon", []string{"-polygon", "20,20 120,20 120,100 20,100"}, 100, 80, "crop 20.00,20.00,100.00,80.00\n"},
		{"polygon closed explicitly", []string{"-polygon", "20,20 120,20 120,100 20,100 20,20"}, 100, 80, "crop 20.00,20.00,100.00,80.00\n"},
		{"square uses the longer side", []string{"-square", "10,10,60,40"}, 50, 50, "crop 10.00,10.00,50.00,50.00\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			in := writePNG(t, solid(200, 200, color.NRGBA{0, 150, 0, 255}))
			out := filepath.Join(t.TempDir(), "out.png")
			r, stdout := testRoot(t)
			args := append([]string{"-i", in, "-o", out, "-source-coords"}, tc.args...)
			cmd, err := parseCropCmd(args, r)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if err := cmd.Run(); err != nil {
				t.Fatalf("run: %v", err)
			}
			img, err := imaging.Open(out)
			if err != nil {
				t.Fatalf("open result: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tc.w || b.Dy() != tc.h {
				t.Fatalf("result is %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.w, tc.h)
			}
			if got := stdout.String(); got != tc.stdout {
				t.Fatalf("stdout = %q, want %q", got, tc.stdout)
			}
		})
	}
}

func TestCropPolygonRejectsSnappedVertex(t *testing.T) {
	in := writePNG(t, solid(400, 400, color.NRGBA{0, 0, 0, 255}))
	out := filepath.Join(t.TempDir(), "out.png")
	r, stdout := testRoot(t)
	// (10,305) is within snap range of (15,300) and would be swallowed.
	cmd, err := parseCropCmd([]string{"-i", in, "-o", out, "-source-coords", "-polygon", "10,10 100,10 300,10 300,300 15,300 10,305"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	err = cmd.Run()
	if !errors.Is(err, geometry.ErrDegenerate) || !strings.Contains(err.Error(), "vertex 5") {
		t.Fatalf("expected snapped vertex error, got %v", err)
	}
	if stdout.Len() != 0 {
		t.Fatalf("failed crop printed %q", stdout.String())
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("failed crop wrote %s: %v", out, statErr)
	}
}

func TestCropDegeneratePolygon(t *testing.T) {
	in := writePNG(t, solid(50, 50, color.NRGBA{0, 0, 0, 255}))
	r, _ := testRoot(t)
	cmd, err := parseCropCmd([]string{"-i", in, "-o", "x.png", "-polygon", "1,1 5,5"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "at least 3 vertices") {
		t.Fatalf("expected vertex count error, got %v", err)
	}
}

func TestMaskToClipboard(t *testing.T) {
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })
	var copied image.Image
	writeClipboard = func(img image.Image) error {
		copied = img
		return nil
	}

	in := writePNG(t, solid(200, 200, color.NRGBA{0, 0, 200, 255}))
	r, _ := testRoot(t)
	cmd, err := parseMaskCmd([]string{"-i", in, "-to-clipboard", "-source-coords", "-brush", "8", "-erase", "10,100 100,100 190,100"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if copied == nil {
		t.Fatalf("nothing copied")
	}
	if b := copied.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("mask changed the size to %dx%d", b.Dx(), b.Dy())
	}
	if _, _, _, a := copied.At(100, 100).RGBA(); a != 0 {
		t.Fatalf("erased pixel alpha %d, want 0", a)
	}
	if _, _, _, a := copied.At(100, 10).RGBA(); a == 0 {
		t.Fatalf("untouched pixel was erased")
	}
}

func captureClipboard(t *testing.T) *image.Image {
	t.Helper()
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })
	var copied image.Image
	writeClipboard = func(img image.Image) error {
		copied = img
		return nil
	}
	return &copied
}

func TestMaskPaintOnlyLeavesPixels(t *testing.T) {
	copied := captureClipboard(t)
	fill := color.NRGBA{10, 20, 30, 255}
	in := writePNG(t, solid(200, 200, fill))
	r, stdout := testRoot(t)
	cmd, err := parseMaskCmd([]string{"-i", in, "-to-clipboard", "-source-coords", "-brush", "12", "-paint", "10,100 190,100", "-paint", "100,10 100,190"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	img := *copied
	if img == nil {
		t.Fatalf("nothing copied")
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("mask changed the size to %dx%d", b.Dx(), b.Dy())
	}
	for _, p := range []image.Point{{100, 100}, {10, 100}, {100, 190}, {0, 0}} {
		if got := color.NRGBAModel.Convert(img.At(p.X, p.Y)); got != fill {
			t.Fatalf("pixel %v = %v, want %v", p, got, fill)
		}
	}
	if stdout.Len() != 0 {
		t.Fatalf("mask printed a crop rectangle: %q", stdout.String())
	}
}

func TestMaskSelectKeepsCanvas(t *testing.T) {
	copied := captureClipboard(t)
	in := writePNG(t, solid(200, 200, color.NRGBA{0, 0, 200, 255}))
	r, stdout := testRoot(t)
	cmd, err := parseMaskCmd([]string{"-i", in, "-to-clipboard", "-source-coords", "-brush", "8", "-erase", "10,100 190,100", "-select", "20,20,60,70"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	img := *copied
	if img == nil {
		t.Fatalf("nothing copied")
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 200 {
		t.Fatalf("selection cropped the mask to %dx%d", b.Dx(), b.Dy())
	}
	if _, _, _, a := img.At(100, 100).RGBA(); a != 0 {
		t.Fatalf("erased pixel alpha %d, want 0", a)
	}
	if stdout.Len() != 0 {
		t.Fatalf("mask printed a crop rectangle: %q", stdout.String())
	}
}

func TestMaskClipboardError(t *testing.T) {
	orig := writeClipboard
	t.Cleanup(func() { writeClipboard = orig })
	sentinel := errors.New("no display")
	writeClipboard = func(image.Image) error { return sentinel }

	in := writePNG(t, solid(20, 20, color.NRGBA{0, 0, 0, 255}))
	r, _ := testRoot(t)
	cmd, err := parseMaskCmd([]string{"-i", in, "-to-clipboard"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped clipboard error, got %v", err)
	} else if want := "copy to clipboard"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected error to contain %q, got %v", want, err)
	}
}

func TestAutoCropDisabledByDefault(t *testing.T) {
	r, _ := testRoot(t)
	cmd, err := parseAutoCropCmd([]string{"-i", "missing.png", "-o", "out.png"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); !errors.Is(err, errAutoCropDisabled) {
		t.Fatalf("expected errAutoCropDisabled, got %v", err)
	}
}

func TestAutoCropEnabled(t *testing.T) {
	src := solid(200, 200, color.NRGBA{255, 255, 255, 255})
	for y := 50; y < 80; y++ {
		for x := 60; x < 100; x++ {
			src.SetNRGBA(x, y, color.NRGBA{0, 0, 0, 255})
		}
	}
	in := writePNG(t, src)
	out := filepath.Join(t.TempDir(), "nested", "out.png")
	r, _ := testRoot(t)
	r.config.Export.AutoCrop = true
	cmd, err := parseAutoCropCmd([]string{"-i", in, "-o", out, "-padding", "0"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	img, err := imaging.Open(out)
	if err != nil {
		t.Fatalf("open result: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("result is %dx%d, want 40x30", b.Dx(), b.Dy())
	}
}

func TestOutputPathUsesSaveDir(t *testing.T) {
	r, _ := testRoot(t)
	r.config.Export.SaveDir = "/tmp/crops"
	if got := r.outputPath("a.png"); got != filepath.Join("/tmp/crops", "a.png") {
		t.Fatalf("bare name: got %q", got)
	}
	if got := r.outputPath("/abs/a.png"); got != "/abs/a.png" {
		t.Fatalf("absolute path: got %q", got)
	}
}

func TestSaveImageRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xyz")
	if err := saveImage(solid(2, 2, color.NRGBA{A: 255}), path); err == nil {
		t.Fatalf("expected error for unknown extension")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("file should not have been written")
	}
}

func TestConfigPrintAndSave(t *testing.T) {
	r, stdout := testRoot(t)
	cmd, err := parseConfigCmd([]string{"print"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(stdout.String(), "[export]") || !strings.Contains(stdout.String(), "variant = basic") {
		t.Fatalf("unexpected config output %q", stdout.String())
	}

	path := filepath.Join(t.TempDir(), "cfg", "config.rc")
	cmd, err = parseConfigCmd([]string{"save", "-path", path}, r)
	if err != nil {
		t.Fatalf("parse save: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if !strings.Contains(string(data), "autocrop = false") {
		t.Fatalf("saved config missing export section: %q", data)
	}
}

func TestEditStartsLoadBeforeWindow(t *testing.T) {
	orig := runViewer
	t.Cleanup(func() { runViewer = orig })
	var got viewer.Options
	runViewer = func(ctx context.Context, ed *editor.Editor, opts viewer.Options) error {
		got = opts
		if err := <-opts.Pending; err != nil {
			return err
		}
		if !ed.Status().Ready || ed.Variant() != editor.Advanced {
			t.Errorf("editor not ready in advanced mode: %+v", ed.Status())
		}
		return nil
	}

	in := writePNG(t, solid(30, 30, color.NRGBA{9, 9, 9, 255}))
	r, _ := testRoot(t)
	cmd, err := parseEditCmd([]string{"-variant", "advanced", in}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(got.Title, in) || got.BrushSize != r.config.Tools.BrushSize {
		t.Fatalf("unexpected viewer options %+v", got)
	}
}

func TestVersion(t *testing.T) {
	r, stdout := testRoot(t)
	if err := (&versionCmd{root: r}).Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout.String(), "cropmask "+version) {
		t.Fatalf("got %q", stdout.String())
	}
}
