package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/example/cropmask/internal/input"
	"github.com/example/cropmask/internal/theme"
	"github.com/example/cropmask/internal/tools"
	"github.com/example/cropmask/internal/viewport"
)

// Notify holds notification settings.
type Notify struct {
	Save bool
	Copy bool
}

// Export holds output settings. AutoCrop stays off unless a user opts in.
type Export struct {
	AutoCrop        bool
	AutoCropPadding int
	SaveDir         string
}

// Config holds the application configuration.
type Config struct {
	Theme   string
	Variant string
	Notify  Notify
	Export  Export
	View    viewport.Params
	Input   InputSettings
	Tools   ToolSettings
	Themes  map[string]*theme.Theme
}

// InputSettings tunes gesture classification.
type InputSettings struct {
	TapThreshold    float64
	SnapRadius      float64
	TouchSnapRadius float64
}

// ToolSettings tunes the tool state machines.
type ToolSettings struct {
	BrushSize    float64
	MinMarquee   float64
	MinSelection float64
}

// New creates a new Config with defaults.
func New() *Config {
	tc := tools.DefaultConfig()
	return &Config{
		Theme:   "", // Default to empty to allow fallback to Env/Default
		Variant: "basic",
		Export:  Export{AutoCropPadding: 10},
		View:    viewport.DefaultParams(),
		Input: InputSettings{
			TapThreshold:    input.DefaultTapThreshold,
			SnapRadius:      input.DefaultSnapRadius,
			TouchSnapRadius: input.DefaultTouchSnapRadius,
		},
		Tools: ToolSettings{
			BrushSize:    tc.BrushSize,
			MinMarquee:   tc.MinMarquee,
			MinSelection: tc.MinSelection,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// ToolConfig converts the input and tool sections for the state machines.
func (c *Config) ToolConfig() tools.Config {
	return tools.Config{
		Snap:         input.SnapRadii{Pointer: c.Input.SnapRadius, Touch: c.Input.TouchSnapRadius},
		TapThreshold: c.Input.TapThreshold,
		BrushSize:    c.Tools.BrushSize,
		MinMarquee:   c.Tools.MinMarquee,
		MinSelection: c.Tools.MinSelection,
	}
}

// ResolveTheme returns the named theme from the config, falling back to
// l for embedded and on-disk themes.
func (c *Config) ResolveTheme(l *theme.Loader) (*theme.Theme, error) {
	if t, ok := c.Themes[c.Theme]; ok {
		return t, nil
	}
	return l.Load(c.Theme)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.Variant != "" {
		fmt.Fprintf(&sb, "variant = %s\n", c.Variant)
	}
	sb.WriteString("\n")

	for _, sec := range c.sections() {
		fmt.Fprintf(&sb, "[%s]\n", sec.name)
		for _, f := range sec.fields {
			fmt.Fprintf(&sb, "%s = %s\n", f.key, f.get())
		}
		sb.WriteString("\n")
	}

	// Themes sections
	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name = %s\n", t.Name)
		for _, field := range theme.Fields() {
			col, _ := t.Get(field)
			fmt.Fprintf(&sb, "%s = %s\n", field, theme.FormatColor(col))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

type field struct {
	key string
	get func() string
	set func(string) error
}

type section struct {
	name   string
	fields []field
}

func floatField(key string, p *float64) field {
	return field{
		key: key,
		get: func() string { return strconv.FormatFloat(*p, 'g', -1, 64) },
		set: func(v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid number for key %s: %w", key, err)
			}
			*p = f
			return nil
		},
	}
}

func intField(key string, p *int) field {
	return field{
		key: key,
		get: func() string { return strconv.Itoa(*p) },
		set: func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid integer for key %s: %w", key, err)
			}
			*p = n
			return nil
		},
	}
}

func boolField(key string, p *bool) field {
	return field{
		key: key,
		get: func() string { return strconv.FormatBool(*p) },
		set: func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid boolean for key %s: %w", key, err)
			}
			*p = b
			return nil
		},
	}
}

func stringField(key string, p *string) field {
	return field{
		key: key,
		get: func() string { return *p },
		set: func(v string) error { *p = v; return nil },
	}
}

// sections binds every non-theme section key to its field in c.
func (c *Config) sections() []section {
	return []section{
		{"viewport", []field{
			floatField("desktop_inset", &c.View.DesktopInset),
			floatField("mobile_inset", &c.View.MobileInset),
			floatField("min_pixel_scale", &c.View.MinPixelScale),
			floatField("min_mobile_width", &c.View.MinMobileWidth),
			floatField("fallback_width", &c.View.FallbackWidth),
			floatField("fallback_height", &c.View.FallbackHeight),
		}},
		{"input", []field{
			floatField("tap_threshold", &c.Input.TapThreshold),
			floatField("snap_radius", &c.Input.SnapRadius),
			floatField("touch_snap_radius", &c.Input.TouchSnapRadius),
		}},
		{"tools", []field{
			floatField("brush_size", &c.Tools.BrushSize),
			floatField("min_marquee", &c.Tools.MinMarquee),
			floatField("min_selection", &c.Tools.MinSelection),
		}},
		{"export", []field{
			boolField("autocrop", &c.Export.AutoCrop),
			intField("autocrop_padding", &c.Export.AutoCropPadding),
			stringField("save_dir", &c.Export.SaveDir),
		}},
		{"notify", []field{
			boolField("save", &c.Notify.Save),
			boolField("copy", &c.Notify.Copy),
		}},
	}
}
