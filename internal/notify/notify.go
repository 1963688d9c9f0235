// Package notify raises desktop notifications when a crop is exported,
// saved or copied.
package notify

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	"github.com/example/cropmask/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventExport fires when the editor hands back a finished image.
	EventExport Event = "export"
	// EventSave emits a notification when an image is persisted to disk.
	EventSave Event = "save"
	// EventCopy emits a notification when data is copied to the clipboard.
	EventCopy Event = "copy"
)

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "cropmask",
		Events: map[Event]EventPreference{
			EventExport: {Template: "Exported %s"},
			EventSave:   {Template: "Saved %s"},
			EventCopy:   {Template: "Copied %s to clipboard"},
		},
	}
}

// LoadPreferences reads text overrides from environment variables.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("CROPMASK_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	apply := func(key string, event Event) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	apply("CROPMASK_NOTIFY_EXPORT_TEXT", EventExport)
	apply("CROPMASK_NOTIFY_SAVE_TEXT", EventSave)
	apply("CROPMASK_NOTIFY_COPY_TEXT", EventCopy)
	return prefs
}

// EnvEnabled reports a CROPMASK_NOTIFY_<EVENT> override, if set.
func EnvEnabled(event Event) (enabled, ok bool) {
	v := strings.TrimSpace(os.Getenv("CROPMASK_NOTIFY_" + strings.ToUpper(string(event))))
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// send is swapped in tests.
var send = platform.Notify

const sendTimeout = 10 * time.Second

// Notifier sends OS-level notifications based on the configured preferences.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	log     *slog.Logger
}

// New creates a new Notifier using the provided preferences. A nil logger
// discards diagnostics.
func New(prefs Preferences, logger *slog.Logger) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Notifier{prefs: cloned, enabled: make(map[Event]bool), log: logger}
}

// Enable toggles the notifier for the provided event. Environment
// overrides win over the value passed here.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if v, ok := EnvEnabled(event); ok {
		enabled = v
	}
	n.enabled[event] = enabled
}

// Export announces a finished edit with a thumbnail of the result.
func (n *Notifier) Export(detail string, img image.Image) {
	if !n.enabledFor(EventExport) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		if path, cleanup, err := createPreview(img); err != nil {
			n.log.Warn("notification preview", "err", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Save sends a save notification including the written filename when available.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// Copy sends a clipboard notification.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.prefs.Events[event].Template)
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if opts.Category == "" {
		opts.Category = "transfer.complete"
	}
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()
	switch err := send(ctx, n.prefs.Title, body, opts); {
	case errors.Is(err, platform.ErrUnsupported):
		n.log.Debug("notification skipped", "event", event, "err", err)
	case err != nil:
		n.log.Warn("notification failed", "event", event, "err", err)
	}
}

// createPreview writes a small PNG thumbnail for the notification icon.
func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "cropmask-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	thumb := imaging.Fit(img, 256, 256, imaging.Box)
	if err := imaging.Encode(f, thumb, imaging.PNG); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
