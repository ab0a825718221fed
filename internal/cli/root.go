package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version. It is
// called by the main package with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the pdfjson CLI and returns an error if any command
// fails. Logging defaults to info level on stderr; --verbose (-v)
// switches to debug. The logger is attached to the command context.
func Execute() error {
	var verbose bool

	root := &cobra.Command{
		Use:          "pdfjson",
		Short:        "pdfjson converts between PDF object graphs and a JSON exchange format",
		Long:         `pdfjson imports JSON descriptions of PDF object graphs, validates them against the exchange schema, and exports graphs back to JSON with control over stream decoding and payload placement.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("pdfjson %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newCheckCmd())
	root.AddCommand(newRewriteCmd())

	return root.ExecuteContext(context.Background())
}
