//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import (
	"context"
	"image"
)

func portal(context.Context, Options) (*image.NRGBA, error) { return nil, ErrUnsupported }

func rootWindow() (*image.NRGBA, error) { return nil, ErrUnsupported }
