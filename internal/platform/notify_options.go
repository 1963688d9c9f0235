// Package platform raises desktop notifications on the host OS.
package platform

import "errors"

// AppName is reported to the notification service as the sender.
const AppName = "cropmask"

// ErrUnsupported is returned where no notification backend exists.
var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

// Options configures a single notification.
type Options struct {
	// IconPath is an image shown with the notification where the
	// platform allows it.
	IconPath string
	// Timeout is the display time in milliseconds; zero uses the
	// platform default.
	Timeout int32
	// Category is a freedesktop category hint such as "transfer.complete".
	Category string
}
