package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lvillar/pdfjson/document"
	"github.com/lvillar/pdfjson/jsondoc"
)

// newCheckCmd creates the check command, which imports a file purely
// for validation and reports every schema error with its offset.
func newCheckCmd() *cobra.Command {
	var update bool

	cmd := &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a JSON document description",
		Long: `Validate a JSON document description against the exchange schema.

By default the file must be a complete document ("pdfversion" and a
trailer are required). With --update the file is checked under the
partial-update rules instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], update)
		},
	}

	cmd.Flags().BoolVar(&update, "update", false, "validate under partial-update rules")

	return cmd
}

func runCheck(cmd *cobra.Command, path string, update bool) error {
	logger := loggerFromContext(cmd.Context())

	var err error
	if update {
		err = jsondoc.Update(document.New(), path)
	} else {
		_, err = jsondoc.Create(path)
	}
	if err == nil {
		logger.Info("file is valid", "file", path)
		return nil
	}

	var importErr *jsondoc.ImportError
	if errors.As(err, &importErr) {
		for _, se := range importErr.Errors {
			logger.Error(se.Msg, "object", se.Object, "offset", se.Offset)
		}
		return fmt.Errorf("%d schema error(s) in %s", len(importErr.Errors), path)
	}
	return err
}
