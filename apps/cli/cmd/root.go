package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// errRequestsFailed signals a completed run with failed validations; the
// failures have already been reported.
var errRequestsFailed = errors.New("one or more requests failed")

var rootCmd = &cobra.Command{
	Use:   "rester",
	Short: "Declarative HTTP tests in YAML.",
	Long: `rester runs the named requests of a Restfile in order, passes data
from earlier responses into later requests and validates every response
against the shape you expect.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code.
func Execute(v, bt string) int {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRequestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return ExitFailure
	}
	return ExitSuccess
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
}
