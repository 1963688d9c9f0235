package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"

	"github.com/example/cropmask/internal/editor"
	"github.com/example/cropmask/internal/export"
	"github.com/example/cropmask/internal/viewer"
)

// runViewer is replaced in tests.
var runViewer = viewer.Run

type editCmd struct {
	outputFlags
	variant string
	brush   float64
	*root
	fs *flag.FlagSet
}

func (c *editCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseEditCmd(args []string, r *root) (*editCmd, error) {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &editCmd{root: r.subcommand("edit"), fs: fs}
	c.register(fs)
	fs.StringVar(&c.variant, "variant", r.config.Variant, "tool set: basic (crop) or advanced (mask)")
	fs.Float64Var(&c.brush, "brush", r.config.Tools.BrushSize, "initial brush width in display units")
	if err := fs.Parse(args); err != nil {
		return nil, usageErrorf(c, err.Error())
	}
	if fs.NArg() > 0 && c.input == "" {
		c.input = fs.Arg(0)
	}
	if err := c.validate(c, false); err != nil {
		return nil, err
	}
	if _, err := editor.ParseVariant(c.variant); err != nil {
		return nil, usageErrorf(c, err.Error())
	}
	return c, nil
}

func (c *editCmd) Run() error {
	v, _ := editor.ParseVariant(c.variant)
	container, _ := c.layout()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ed := editor.New(
		editor.WithVariant(v),
		editor.WithConfig(c.config),
		editor.WithTheme(c.activeTheme),
		editor.WithLogger(c.log),
		editor.WithContainer(container),
		editor.OnComplete(func(res export.Result, edited bool) {
			if !edited {
				c.log.Info("export is a pass-through of the source")
			}
			if c.output == "" && !c.toClipboard && !c.notify {
				return
			}
			if err := c.deliver(c.root, res); err != nil {
				c.log.Error("deliver export", "err", err)
			}
		}),
	)
	return runViewer(ctx, ed, viewer.Options{
		Title:     "cropmask - " + c.input,
		Mobile:    c.mobile,
		BrushSize: c.brush,
		Theme:     c.activeTheme,
		Logger:    c.log,
		Pending:   ed.Load(ctx, c.input),
	})
}
