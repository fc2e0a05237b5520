package cmd

import (
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/rester/packages/core/parser"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <restfile>...",
	Short: "List the requests of Restfiles",
	Long: `List setup and main requests in the order they would run.

Examples:
  rester list api.rest.yml`,
	Args: cobra.MinimumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	fs := afero.NewOsFs()
	out := cmd.OutOrStdout()

	for _, path := range args {
		file, err := parser.Load(fs, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		fmt.Fprintf(out, "\n%s (%s):\n", path, file.Mode)
		if file.Setup.Len() > 0 {
			fmt.Fprintln(out, "  setup:")
			listRequests(out, file.Setup)
		}
		fmt.Fprintln(out, "  requests:")
		listRequests(out, file.Requests)
	}
	return nil
}

func listRequests(w io.Writer, requests *parser.Requests) {
	for _, req := range requests.All() {
		fmt.Fprintf(w, "    - %s  %s %s\n", req.Name, req.Method, req.URL)
	}
}
