package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/example/cropmask/internal/editor"
	"github.com/example/cropmask/internal/geometry"
	"github.com/example/cropmask/internal/tools"
)

type cropCmd struct {
	outputFlags
	polygon      string
	rect         string
	square       string
	sourceCoords bool
	*root
	fs *flag.FlagSet
}

func (c *cropCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseCropCmd(args []string, r *root) (*cropCmd, error) {
	fs := flag.NewFlagSet("crop", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &cropCmd{root: r.subcommand("crop"), fs: fs}
	c.register(fs)
	fs.StringVar(&c.polygon, "polygon", "", `polygon vertices "x,y x,y ..."; closed automatically`)
	fs.StringVar(&c.rect, "rect", "", "rectangle corners x0,y0,x1,y1")
	fs.StringVar(&c.square, "square", "", "square from corner x0,y0 towards x1,y1")
	fs.BoolVar(&c.sourceCoords, "source-coords", false, "coordinates are source image pixels")
	if err := fs.Parse(args); err != nil {
		return nil, usageErrorf(c, err.Error())
	}
	if err := c.validate(c, true); err != nil {
		return nil, err
	}
	set := 0
	for _, v := range []string{c.polygon, c.rect, c.square} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return nil, usageErrorf(c, "exactly one of -polygon, -rect or -square is required")
	}
	return c, nil
}

func (c *cropCmd) Run() error {
	ctx := context.Background()
	s, err := c.openSession(ctx, &c.outputFlags, editor.Basic, c.sourceCoords)
	if err != nil {
		return fmt.Errorf("crop: %w", err)
	}
	switch {
	case c.polygon != "":
		pts, err := parsePoints(c.polygon)
		if err != nil {
			return fmt.Errorf("crop: %w", err)
		}
		if len(pts) < 3 {
			return fmt.Errorf("crop: polygon needs at least 3 vertices: %w", geometry.ErrDegenerate)
		}
		err = s.polygon(pts)
		if err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	case c.rect != "", c.square != "":
		corners, tool := c.rect, tools.Rect
		if c.square != "" {
			corners, tool = c.square, tools.Square
		}
		r, err := parseRect(corners)
		if err != nil {
			return fmt.Errorf("crop: %w", err)
		}
		if err := s.marquee(tool, r); err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	}
	res, _, err := s.ed.Export()
	if err != nil {
		return fmt.Errorf("crop: %w", err)
	}
	return c.deliver(c.root, res)
}
