package config

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/example/cropmask/internal/theme"
)

// Parse reads configuration from an io.Reader.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)
	sections := map[string]section{}
	for _, s := range cfg.sections() {
		sections[s.name] = s
	}

	// Context for parsing
	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		// Handle Sections
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSuffix(strings.TrimPrefix(line, "["), "]")
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Parse Key = Value or Key: Value
		var key, value string
		var ok bool
		if strings.Contains(line, "=") {
			key, value, ok = strings.Cut(line, "=")
		} else {
			key, value, ok = strings.Cut(line, ":")
		}
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		// Remove quotes if present
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		switch {
		case currentTheme != nil:
			// Parsing a theme definition
			if err := setThemeField(currentTheme, key, value); err != nil {
				return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
			}
		case currentSection == "":
			// Root section
			if err := setRootField(cfg, key, value); err != nil {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
		default:
			sec, known := sections[currentSection]
			if !known {
				continue
			}
			if err := setSectionField(sec, key, value); err != nil {
				return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
			}
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "theme":
		cfg.Theme = value
	case "variant":
		v := strings.ToLower(value)
		if v != "basic" && v != "advanced" {
			return fmt.Errorf("invalid variant %q", value)
		}
		cfg.Variant = v
	case "save_dir":
		// Accepted at the root for older files.
		cfg.Export.SaveDir = value
	}
	return nil
}

func setSectionField(sec section, key, value string) error {
	for _, f := range sec.fields {
		if strings.EqualFold(f.key, key) {
			return f.set(value)
		}
	}
	return nil // Ignore unknown fields
}

func setThemeField(t *theme.Theme, key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}

	// Case-insensitive field lookup, allowing snake_case keys
	want := strings.ReplaceAll(key, "_", "")
	typ := reflect.TypeOf(*t)
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if strings.EqualFold(f.Name, want) {
			return t.Set(f.Name, value)
		}
	}
	return nil // Ignore unknown fields
}
