// Package clipboard publishes exported images to, and reads source images
// from, the system clipboard.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

var errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")

// ErrEmpty is returned when the clipboard holds nothing of the requested kind.
var ErrEmpty = errors.New("clipboard is empty")

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode clipboard image: %w", err)
	}
	return buf.Bytes(), nil
}

func decodePNG(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image: %w", ErrEmpty)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode clipboard image: %w", err)
	}
	return img, nil
}

// CropRectText formats a crop rectangle the way WriteText callers share it.
func CropRectText(x, y, w, h float64) string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", x, y, w, h)
}
