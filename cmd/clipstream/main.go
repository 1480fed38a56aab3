package main

import (
	"github.com/berrythewa/clipstream/internal/cli"
)

// Set at build time with -ldflags.
var (
	version   = "dev"
	buildTime = "unknown"
	commit    = "none"
)

func main() {
	cli.SetVersionInfo(version, buildTime, commit)
	cli.Execute()
}
