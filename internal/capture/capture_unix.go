//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"context"
	"fmt"
	"image"
	"net/url"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

const (
	portalDest     = "org.freedesktop.portal.Desktop"
	portalPath     = "/org/freedesktop/portal/desktop"
	portalMethod   = "org.freedesktop.portal.Screenshot.Screenshot"
	portalResponse = "org.freedesktop.portal.Request.Response"
)

var handleToken = func() string {
	return fmt.Sprintf("cropmask_%d", time.Now().UnixNano())
}

func portalOptions(opts Options) map[string]dbus.Variant {
	cursor := "hidden"
	if opts.IncludeCursor {
		cursor = "embedded"
	}
	return map[string]dbus.Variant{
		"interactive":  dbus.MakeVariant(opts.Interactive),
		"modal":        dbus.MakeVariant(opts.Interactive),
		"handle_token": dbus.MakeVariant(handleToken()),
		"cursor_mode":  dbus.MakeVariant(cursor),
	}
}

func portal(ctx context.Context, opts Options) (*image.NRGBA, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	sigc := make(chan *dbus.Signal, 4)
	conn.Signal(sigc)
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface("org.freedesktop.portal.Request"),
		dbus.WithMatchMember("Response"),
	); err != nil {
		return nil, fmt.Errorf("portal subscribe: %w", err)
	}

	var handle dbus.ObjectPath
	obj := conn.Object(portalDest, portalPath)
	if err := obj.CallWithContext(ctx, portalMethod, 0, "", portalOptions(opts)).Store(&handle); err != nil {
		return nil, fmt.Errorf("portal screenshot: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-sigc:
			if !ok {
				return nil, fmt.Errorf("portal screenshot: connection closed")
			}
			if sig.Path != handle || sig.Name != portalResponse {
				continue
			}
			path, err := responsePath(sig.Body)
			if err != nil {
				return nil, err
			}
			return takeFile(path)
		}
	}
}

// responsePath reads the (code, results) body of a Request.Response.
func responsePath(body []any) (string, error) {
	if len(body) < 2 {
		return "", fmt.Errorf("portal screenshot: malformed response")
	}
	if code, _ := body[0].(uint32); code != 0 {
		return "", ErrCancelled
	}
	results, _ := body[1].(map[string]dbus.Variant)
	v, ok := results["uri"]
	if !ok {
		return "", fmt.Errorf("portal screenshot: response missing uri")
	}
	s, _ := v.Value().(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme != "file" {
		return "", fmt.Errorf("portal screenshot: unexpected uri %q", s)
	}
	return u.Path, nil
}

func rootWindow() (*image.NRGBA, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connect X server: %w", err)
	}
	defer conn.Close()

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)
	w, h := screen.WidthInPixels, screen.HeightInPixels
	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(screen.Root), 0, 0, w, h, ^uint32(0)).Reply()
	if err != nil {
		return nil, fmt.Errorf("root window pixels: %w", err)
	}
	return fromZPixmap(bitsPerPixel(setup, reply.Depth), reply.Data, int(w), int(h))
}

func bitsPerPixel(setup *xproto.SetupInfo, depth byte) int {
	for _, f := range setup.PixmapFormats {
		if f.Depth == depth {
			return int(f.BitsPerPixel)
		}
	}
	return 0
}

// fromZPixmap converts little-endian BGR(X) rows. Depth 24 visuals carry
// an unused pad byte, so alpha is always opaque.
func fromZPixmap(bpp int, data []byte, w, h int) (*image.NRGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("root window has empty geometry")
	}
	px := bpp / 8
	if px < 3 {
		return nil, fmt.Errorf("unsupported pixel format %d bpp", bpp)
	}
	stride := len(data) / h
	if stride*h != len(data) || stride < w*px {
		return nil, fmt.Errorf("root window pixels: unexpected stride")
	}
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := data[y*stride:]
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			s, d := row[x*px:], dst[x*4:]
			d[0], d[1], d[2], d[3] = s[2], s[1], s[0], 0xff
		}
	}
	return img, nil
}
