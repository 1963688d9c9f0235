package editor

import (
	"context"
	"log/slog"

	"github.com/example/cropmask/internal/config"
	"github.com/example/cropmask/internal/export"
	"github.com/example/cropmask/internal/loader"
	"github.com/example/cropmask/internal/theme"
	"github.com/example/cropmask/internal/viewport"
)

// Option modifies an Editor during creation.
type Option func(*Editor)

// WithVariant selects the crop or mask tool set.
func WithVariant(v Variant) Option { return func(e *Editor) { e.variant = v } }

// WithConfig supplies layout, tool and export settings.
func WithConfig(c *config.Config) Option { return func(e *Editor) { e.cfg = c } }

// WithLogger routes editor diagnostics to l. The default discards them.
func WithLogger(l *slog.Logger) Option {
	return func(e *Editor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithTheme sets the overlay palette.
func WithTheme(t *theme.Theme) Option { return func(e *Editor) { e.theme = t } }

// WithContainer sets the initial layout box, as if SetContainer had been
// called before the first load.
func WithContainer(c viewport.Container) Option {
	return func(e *Editor) { e.container = c }
}

// OnReady registers a callback fired once per successful load, after the
// first Transform is computed.
func OnReady(fn func(viewport.Transform)) Option { return func(e *Editor) { e.onReady = fn } }

// OnComplete registers a callback receiving every export. edited is
// false when the result is a pass-through of the source.
func OnComplete(fn func(res export.Result, edited bool)) Option {
	return func(e *Editor) { e.onComplete = fn }
}

// withLoader replaces the image loader. Tests use it to control timing.
func withLoader(fn func(context.Context, string) (*loader.Source, error)) Option {
	return func(e *Editor) { e.load = fn }
}
