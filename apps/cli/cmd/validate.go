package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <restfile>...",
	Short: "Check Restfiles for errors without sending requests",
	Long: `Load and decode Restfiles, including every nested restfile they
reference, without executing them.

Examples:
  rester validate api.rest.yml
  rester validate api.rest.yml users.rest.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()

	hasErrors := false
	for _, path := range args {
		file, err := parser.Load(fs, path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", path, err)
			hasErrors = true
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d requests, %d setup)\n", path, file.Requests.Len(), file.Setup.Len())
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}
	return nil
}
