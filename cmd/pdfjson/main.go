// Command pdfjson converts between PDF object graphs and a JSON
// exchange format.
//
//	pdfjson check document.json
//	pdfjson rewrite document.json --decode-level generalized -o out.json
package main

import (
	"os"

	"github.com/lvillar/pdfjson/internal/cli"
)

// Injected via ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.SetVersion(version, commit, date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
