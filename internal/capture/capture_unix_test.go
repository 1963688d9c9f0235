//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"errors"
	"image/color"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestPortalOptions(t *testing.T) {
	prev := handleToken
	handleToken = func() string { return "test-token" }
	t.Cleanup(func() { handleToken = prev })

	tests := []struct {
		name       string
		opts       Options
		wantCursor string
	}{
		{"defaults", Options{}, "hidden"},
		{"interactive with cursor", Options{Interactive: true, IncludeCursor: true}, "embedded"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := portalOptions(tc.opts)
			if got := v["interactive"].Value().(bool); got != tc.opts.Interactive {
				t.Fatalf("interactive = %v, want %v", got, tc.opts.Interactive)
			}
			if got := v["modal"].Value().(bool); got != tc.opts.Interactive {
				t.Fatalf("modal = %v, want %v", got, tc.opts.Interactive)
			}
			if got := v["cursor_mode"].Value().(string); got != tc.wantCursor {
				t.Fatalf("cursor_mode = %q, want %q", got, tc.wantCursor)
			}
			if got := v["handle_token"].Value().(string); got != "test-token" {
				t.Fatalf("handle_token = %q", got)
			}
		})
	}
}

func TestResponsePath(t *testing.T) {
	ok := map[string]dbus.Variant{"uri": dbus.MakeVariant("file:///tmp/Screenshot%20one.png")}
	path, err := responsePath([]any{uint32(0), ok})
	if err != nil {
		t.Fatalf("responsePath: %v", err)
	}
	if path != "/tmp/Screenshot one.png" {
		t.Fatalf("path = %q", path)
	}

	if _, err := responsePath([]any{uint32(1), ok}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	bad := []struct {
		name string
		body []any
	}{
		{"short body", []any{uint32(0)}},
		{"missing uri", []any{uint32(0), map[string]dbus.Variant{}}},
		{"not a file", []any{uint32(0), map[string]dbus.Variant{"uri": dbus.MakeVariant("https://x/y.png")}}},
	}
	for _, tc := range bad {
		if _, err := responsePath(tc.body); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestFromZPixmap(t *testing.T) {
	// 2x1 at 32 bpp with a padded stride.
	data := []byte{
		0x10, 0x20, 0x30, 0x00, 0x01, 0x02, 0x03, 0x00, 0xee, 0xee, 0xee, 0xee,
	}
	img, err := fromZPixmap(32, data, 2, 1)
	if err != nil {
		t.Fatalf("fromZPixmap: %v", err)
	}
	if got := img.NRGBAAt(0, 0); got != (color.NRGBA{0x30, 0x20, 0x10, 0xff}) {
		t.Fatalf("pixel 0 = %v", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{0x03, 0x02, 0x01, 0xff}) {
		t.Fatalf("pixel 1 = %v", got)
	}

	if _, err := fromZPixmap(16, data, 2, 1); err == nil {
		t.Fatalf("expected 16 bpp to be rejected")
	}
	if _, err := fromZPixmap(32, data[:5], 2, 1); err == nil {
		t.Fatalf("expected short data to be rejected")
	}
}
