//go:build linux

package platform

import (
	"context"

	"github.com/godbus/dbus/v5"
)

const defaultTimeout = 5000

func hints(opts Options) map[string]dbus.Variant {
	h := map[string]dbus.Variant{}
	if opts.Category != "" {
		h["category"] = dbus.MakeVariant(opts.Category)
	}
	if opts.IconPath != "" {
		h["image-path"] = dbus.MakeVariant(opts.IconPath)
	}
	return h
}

// Notify calls org.freedesktop.Notifications.Notify on the session bus.
func Notify(ctx context.Context, title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return err
	}
	defer conn.Close()

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	return obj.CallWithContext(ctx, "org.freedesktop.Notifications.Notify", 0,
		AppName, uint32(0), opts.IconPath, title, body, []string{}, hints(opts), timeout).Err
}
