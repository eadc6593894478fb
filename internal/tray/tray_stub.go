//go:build !tray

package tray

import (
	"fmt"

	"github.com/tnunamak/usagegauge/internal/app"
)

func Run(_ *app.App) int {
	fmt.Println("usagegauge: tray mode not available in this build")
	fmt.Println("rebuild with: go build -tags tray ./cmd/usagegauge")
	return 1
}
