// Package capture grabs the desktop so it can be opened as a source image.
// The xdg-desktop-portal Screenshot interface is tried first; plain X11
// sessions fall back to reading the root window.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/disintegration/imaging"
)

var (
	// ErrUnsupported is returned on platforms without a capture backend.
	ErrUnsupported = errors.New("screen capture is not supported on this platform")
	// ErrCancelled is returned when the user dismisses the portal dialog.
	ErrCancelled = errors.New("screen capture cancelled")
)

// Options tunes a capture.
type Options struct {
	// Interactive lets the user pick a region in the portal dialog. There
	// is no X11 fallback for it.
	Interactive   bool
	IncludeCursor bool
}

var (
	portalShot = portal
	rootShot   = rootWindow
)

// Screen captures the desktop.
func Screen(ctx context.Context, opts Options) (*image.NRGBA, error) {
	img, err := portalShot(ctx, opts)
	if err == nil {
		return img, nil
	}
	if opts.Interactive || errors.Is(err, ErrCancelled) || ctx.Err() != nil {
		return nil, err
	}
	img, xerr := rootShot()
	if xerr != nil {
		return nil, errors.Join(err, xerr)
	}
	return img, nil
}

// takeFile decodes the file the portal wrote and removes it.
func takeFile(path string) (*image.NRGBA, error) {
	defer os.Remove(path)
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("portal image: %w", err)
	}
	return imaging.Clone(img), nil
}
