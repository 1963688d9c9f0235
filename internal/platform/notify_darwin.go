//go:build darwin

package platform

import (
	"context"
	"fmt"
	"os/exec"
)

// Notify posts to Notification Center through osascript. Icons are not
// supported there.
func Notify(ctx context.Context, title, body string, _ Options) error {
	script := fmt.Sprintf("display notification %q with title %q subtitle %q", body, title, AppName)
	return exec.CommandContext(ctx, "osascript", "-e", script).Run()
}
