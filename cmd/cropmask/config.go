package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/example/cropmask/internal/config"
)

type configCmd struct {
	action string
	path   string
	*root
	fs *flag.FlagSet
}

func (c *configCmd) FlagSet() *flag.FlagSet {
	return c.fs
}

func parseConfigCmd(args []string, r *root) (*configCmd, error) {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	c := &configCmd{root: r.subcommand("config"), fs: fs}
	fs.StringVar(&c.path, "path", "", "file to save to (default "+config.DefaultPath()+")")
	if len(args) == 0 {
		return nil, usageErrorf(c, "missing action")
	}
	c.action = args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return nil, usageErrorf(c, err.Error())
	}
	switch c.action {
	case "print":
		if c.path != "" {
			return nil, usageErrorf(c, "-path only applies to save")
		}
	case "save":
	default:
		return nil, usageErrorf(c, fmt.Sprintf("unknown action %q", c.action))
	}
	return c, nil
}

func (c *configCmd) Run() error {
	if c.action == "print" {
		_, err := fmt.Fprint(c.stdout, c.config.String())
		return err
	}
	path := c.path
	if path == "" {
		path = config.DefaultPath()
	}
	if err := config.Save(c.config, path); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "saved %s\n", path)
	return nil
}
