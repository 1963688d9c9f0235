package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/cropmask/internal/config"
	"github.com/example/cropmask/internal/notify"
	"github.com/example/cropmask/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	notifier    *notify.Notifier
	config      *config.Config
	log         *slog.Logger
	level       *slog.LevelVar
	verbose     bool
	saveAlerts  bool
	copyAlerts  bool
	themeName   string
	activeTheme *theme.Theme
	stdout      io.Writer
	stderr      io.Writer
}

func (r *root) Program() string {
	return r.program
}

func (r *root) subcommand(name string) *root {
	sub := *r
	sub.program = strings.TrimSpace(r.program + " " + name)
	return &sub
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	level := new(slog.LevelVar)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	loader := config.NewLoader(version, configPathOverride)
	cfg, err := loader.Load()
	if err != nil {
		logger.Warn("failed to load config", "err", err)
		cfg = config.New()
	}

	r := &root{
		fs:       flag.NewFlagSet("cropmask", flag.ContinueOnError),
		program:  "cropmask",
		notifier: notify.New(notify.LoadPreferences(), logger),
		config:   cfg,
		log:      logger,
		level:    level,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	r.fs.SetOutput(io.Discard)
	r.fs.BoolVar(&r.verbose, "v", false, "log debug output")
	r.fs.BoolVar(&r.saveAlerts, "notify-save", cfg.Notify.Save, "show a desktop notification after saving an image")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", cfg.Notify.Copy, "show a desktop notification after copying to the clipboard")
	// Precedence: CLI > Env > Config > Default
	r.fs.StringVar(&r.themeName, "theme", "", "overlay theme to use (default, high-contrast or a configured name)")
	return r
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return &UsageError{of: r}
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.verbose || os.Getenv("CROPMASK_DEBUG") == "1" {
		r.level.Set(slog.LevelDebug)
	}
	r.notifier.Enable(notify.EventSave, r.saveAlerts)
	r.notifier.Enable(notify.EventCopy, r.copyAlerts)
	r.activeTheme = r.resolveTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "edit":
		cmd, err = parseEditCmd(subArgs, r)
	case "crop":
		cmd, err = parseCropCmd(subArgs, r)
	case "mask":
		cmd, err = parseMaskCmd(subArgs, r)
	case "autocrop":
		cmd, err = parseAutoCropCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r.subcommand("version")}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = os.Getenv("CROPMASK_THEME")
	}
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		if name != "" && !strings.EqualFold(name, "default") {
			r.log.Warn("failed to load theme, using default", "theme", name, "err", err)
		}
		return theme.Default()
	}
	return t
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func (r *root) notifySave(path string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Save(path)
}

func (r *root) notifyCopy(detail string) {
	if r == nil || r.notifier == nil {
		return
	}
	r.notifier.Copy(detail)
}
