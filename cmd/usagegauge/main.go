package main

import (
	"os"

	"github.com/tnunamak/usagegauge/internal/cli"
)

var Version = "dev"

func main() {
	cli.Version = Version
	os.Exit(cli.Execute())
}
