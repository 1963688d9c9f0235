package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

var nrgbaType = reflect.TypeOf(color.NRGBA{})

// Parse reads a theme definition from an io.Reader.
// The format is a simple key-value pair per line: Key: #RRGGBB, #RRGGBBAA
// or an SVG color name.
func Parse(r io.Reader) (*Theme, error) {
	t := Default() // Start with defaults
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if key == "Name" {
			t.Name = value
			continue
		}
		if err := t.Set(key, value); err != nil {
			return nil, err
		}
	}

	return t, scanner.Err()
}

// Set assigns a color field by its Go name. Unknown keys are ignored for
// forward compatibility.
func (t *Theme) Set(key, value string) error {
	field := reflect.ValueOf(t).Elem().FieldByName(key)
	if !field.IsValid() || field.Type() != nrgbaType {
		return nil
	}
	col, err := ParseColor(value)
	if err != nil {
		return fmt.Errorf("invalid color for key %s: %w", key, err)
	}
	field.Set(reflect.ValueOf(col))
	return nil
}

// Fields lists the color field names in declaration order.
func Fields() []string {
	typ := reflect.TypeOf(Theme{})
	var out []string
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Type == nrgbaType {
			out = append(out, typ.Field(i).Name)
		}
	}
	return out
}

// Get returns the color field named key.
func (t *Theme) Get(key string) (color.NRGBA, bool) {
	field := reflect.ValueOf(t).Elem().FieldByName(key)
	if !field.IsValid() || field.Type() != nrgbaType {
		return color.NRGBA{}, false
	}
	return field.Interface().(color.NRGBA), true
}

// FormatColor renders c as #RRGGBB, or #RRGGBBAA when translucent.
func FormatColor(c color.NRGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}

// ParseColor accepts #RRGGBB, #RRGGBBAA or a name from colornames.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "#") {
		if c, ok := colornames.Map[strings.ToLower(s)]; ok {
			return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
		}
		return color.NRGBA{}, fmt.Errorf("unknown color %q", s)
	}
	hex := strings.TrimPrefix(s, "#")
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, err
	}
	switch len(hex) {
	case 6:
		// #RRGGBB
		return color.NRGBA{
			R: uint8(val >> 16),
			G: uint8((val >> 8) & 0xFF),
			B: uint8(val & 0xFF),
			A: 255,
		}, nil
	case 8:
		// #RRGGBBAA
		return color.NRGBA{
			R: uint8(val >> 24),
			G: uint8((val >> 16) & 0xFF),
			B: uint8((val >> 8) & 0xFF),
			A: uint8(val & 0xFF),
		}, nil
	}
	return color.NRGBA{}, fmt.Errorf("invalid hex length")
}
