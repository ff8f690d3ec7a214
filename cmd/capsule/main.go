package main

import (
	"fmt"
	"os"

	"github.com/akyairhashvil/timecapsule/internal/tui"
)

// Set via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func buildVersion() string {
	if commit == "unknown" {
		return version
	}
	return fmt.Sprintf("%s (%s, %s)", version, commit, date)
}

func main() {
	tui.AppVersion, tui.GitCommit, tui.BuildTime = version, commit, date
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
