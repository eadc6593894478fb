//go:build tray

package tray

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/tnunamak/usagegauge/internal/display"
)

func notify(n display.Notice) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", "-u", n.Urgency(), n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, n.Body, n.Title)
		return exec.Command("osascript", "-e", script).Run()
	}
	return nil
}
