package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/example/cropmask/internal/editor"
	"github.com/example/cropmask/internal/tools"
)

type maskCmd struct {
	outputFlags
	strokes      []stroke
	brush        float64
	selection    string
	sourceCoords bool
	*root
	fs *flag.FlagSet
}

func (c *maskCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseMaskCmd(args []string, r *root) (*maskCmd, error) {
	fs := flag.NewFlagSet("mask", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &maskCmd{root: r.subcommand("mask"), fs: fs}
	c.register(fs)
	fs.Var(strokeList{tool: tools.Eraser, all: &c.strokes}, "erase", `erase stroke "x,y x,y ..."; may repeat`)
	fs.Var(strokeList{tool: tools.Pencil, all: &c.strokes}, "paint", `paint stroke "x,y x,y ..."; may repeat`)
	fs.Float64Var(&c.brush, "brush", r.config.Tools.BrushSize, "brush width in display units")
	fs.StringVar(&c.selection, "select", "", "mark a selection x0,y0,x1,y1; the output keeps the full canvas")
	fs.BoolVar(&c.sourceCoords, "source-coords", false, "coordinates are source image pixels")
	if err := fs.Parse(args); err != nil {
		return nil, usageErrorf(c, err.Error())
	}
	if err := c.validate(c, true); err != nil {
		return nil, err
	}
	if c.brush <= 0 {
		return nil, usageErrorf(c, "-brush must be positive")
	}
	return c, nil
}

func (c *maskCmd) Run() error {
	ctx := context.Background()
	s, err := c.openSession(ctx, &c.outputFlags, editor.Advanced, c.sourceCoords)
	if err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	if err := s.strokes(c.strokes, c.brush); err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	if c.selection != "" {
		r, err := parseRect(c.selection)
		if err != nil {
			return fmt.Errorf("mask: %w", err)
		}
		if err := s.marquee(tools.Select, r); err != nil {
			return fmt.Errorf("mask: %w", err)
		}
	}
	res, edited, err := s.ed.Export()
	if err != nil {
		return fmt.Errorf("mask: %w", err)
	}
	if !edited {
		c.log.Info("no strokes given, writing the source unchanged")
	}
	return c.deliver(c.root, res)
}
