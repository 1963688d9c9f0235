package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/example/cropmask/internal/export"
	"github.com/example/cropmask/internal/loader"
	"github.com/example/cropmask/internal/viewport"
)

var errAutoCropDisabled = errors.New("auto-crop is disabled; set autocrop = true under [export] to enable it")

type autoCropCmd struct {
	outputFlags
	padding int
	*root
	fs *flag.FlagSet
}

func (c *autoCropCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseAutoCropCmd(args []string, r *root) (*autoCropCmd, error) {
	fs := flag.NewFlagSet("autocrop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &autoCropCmd{root: r.subcommand("autocrop"), fs: fs}
	c.register(fs)
	fs.IntVar(&c.padding, "padding", r.config.Export.AutoCropPadding, "pixels kept around the detected content")
	if err := fs.Parse(args); err != nil {
		return nil, usageErrorf(c, err.Error())
	}
	if err := c.validate(c, true); err != nil {
		return nil, err
	}
	if c.padding < 0 {
		return nil, usageErrorf(c, "-padding must not be negative")
	}
	return c, nil
}

func (c *autoCropCmd) Run() error {
	if !c.config.Export.AutoCrop {
		return errAutoCropDisabled
	}
	src, err := loader.Load(context.Background(), c.input)
	if err != nil {
		return fmt.Errorf("autocrop: %w", err)
	}
	container, _ := c.layout()
	t, err := viewport.Compute(src.Width(), src.Height(), container, c.config.View)
	if err != nil && !errors.Is(err, viewport.ErrContainerMissing) {
		return fmt.Errorf("autocrop: %w", err)
	}
	res, trimmed := export.Trim(export.Result{Image: src.Image}, t, c.padding)
	if !trimmed {
		c.log.Info("no border found, writing the source unchanged")
	}
	return c.deliver(c.root, res)
}
