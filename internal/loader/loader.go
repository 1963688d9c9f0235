// Package loader resolves an image handle and decodes it into a
// SourceImage. Handles may be file paths, http(s) URLs, base64 data
// URIs, "clipboard:" or "screen:".
package loader

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/example/cropmask/internal/capture"
	"github.com/example/cropmask/internal/clipboard"
	"github.com/example/cropmask/internal/viewport"
)

// ClipboardHandle names the image currently on the system clipboard.
const ClipboardHandle = "clipboard:"

// ScreenHandle captures the desktop. ScreenSelectHandle lets the user
// pick a region first.
const (
	ScreenHandle       = "screen:"
	ScreenSelectHandle = "screen:select"
)

// Replaced in tests.
var (
	readClipboard = clipboard.ReadImage
	captureScreen = capture.Screen
)

// MaxBytes bounds how much is read from any handle.
const MaxBytes = 256 << 20

// LoadError reports a handle that could not be turned into an image.
type LoadError struct {
	Handle string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", shorten(e.Handle), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Source is a decoded image. It is never modified after Load returns.
type Source struct {
	Handle string
	Format string
	Image  *image.NRGBA
}

// Width and Height are the natural pixel size.
func (s *Source) Width() int  { return s.Image.Bounds().Dx() }
func (s *Source) Height() int { return s.Image.Bounds().Dy() }

// HTTPClient is used for URL handles. Tests may replace it.
var HTTPClient = http.DefaultClient

// Load fetches and decodes handle. EXIF orientation is applied.
func Load(ctx context.Context, handle string) (*Source, error) {
	switch handle {
	case ClipboardHandle:
		return fromClipboard()
	case ScreenHandle, ScreenSelectHandle:
		return fromScreen(ctx, handle)
	}
	data, err := read(ctx, handle)
	if err != nil {
		return nil, &LoadError{Handle: handle, Err: err}
	}
	src, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Handle: handle, Err: err}
	}
	src.Handle = handle
	return src, nil
}

// Decode reads an image from r.
func Decode(r io.Reader) (*Source, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, MaxBytes)); err != nil {
		return nil, err
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	img, err := imaging.Decode(bytes.NewReader(buf.Bytes()), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, viewport.ErrDegenerateSource
	}
	return &Source{Format: format, Image: imaging.Clone(img)}, nil
}

func fromClipboard() (*Source, error) {
	img, err := readClipboard()
	if err != nil {
		return nil, &LoadError{Handle: ClipboardHandle, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &LoadError{Handle: ClipboardHandle, Err: viewport.ErrDegenerateSource}
	}
	return &Source{Handle: ClipboardHandle, Format: "png", Image: imaging.Clone(img)}, nil
}

func fromScreen(ctx context.Context, handle string) (*Source, error) {
	img, err := captureScreen(ctx, capture.Options{Interactive: handle == ScreenSelectHandle})
	if err != nil {
		return nil, &LoadError{Handle: handle, Err: err}
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &LoadError{Handle: handle, Err: viewport.ErrDegenerateSource}
	}
	return &Source{Handle: handle, Format: "png", Image: img}, nil
}

func read(ctx context.Context, handle string) ([]byte, error) {
	switch {
	case handle == "":
		return nil, errors.New("empty image handle")
	case strings.HasPrefix(handle, "data:"):
		return decodeDataURI(handle)
	case strings.HasPrefix(handle, "http://"), strings.HasPrefix(handle, "https://"):
		return fetch(ctx, handle)
	case strings.HasPrefix(handle, "file://"):
		u, err := url.Parse(handle)
		if err != nil {
			return nil, err
		}
		return readFile(u.Path)
	}
	return readFile(handle)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, MaxBytes))
}

func fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxBytes))
}

// decodeDataURI handles data:[<mediatype>][;base64],<data>.
func decodeDataURI(s string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		v, err := url.PathUnescape(payload)
		if err != nil {
			return nil, err
		}
		return []byte(v), nil
	}
	return base64.StdEncoding.DecodeString(payload)
}

func shorten(h string) string {
	if len(h) > 64 {
		return h[:61] + "..."
	}
	return h
}
