package output

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/abdul-hamid-achik/rester/packages/core/runner"
	"github.com/abdul-hamid-achik/rester/packages/stats"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// formatValue formats a value for display, truncating long values
func formatValue(v fmt.Stringer, maxLen int) string {
	str := v.String()
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("rester"), version)
}

func (f *ConsoleFormatter) FormatRequest(r *runner.RequestResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	name := r.Name
	if r.Setup {
		name += " (setup)"
	}

	switch r.Status {
	case runner.StatusSkipped:
		fmt.Fprintf(f.writer, "  %s %s", yellow("-"), name)
		if f.verbose && r.Reason != "" {
			fmt.Fprintf(f.writer, " (%s)", r.Reason)
		}
		fmt.Fprintf(f.writer, "\n")
		return
	case runner.StatusFailed:
		fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
		fmt.Fprintf(f.writer, "    %s %s\n", red("→"), r.Reason)
	default:
		fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
	}

	if f.verbose && r.Response != nil {
		fmt.Fprintf(f.writer, "    %s %s -> %d\n", r.Method, r.URL, r.Response.StatusCode)
	}

	for _, line := range r.Logs {
		if line.Err != nil {
			fmt.Fprintf(f.writer, "    %s %s: %v\n", yellow("log"), line.Path, line.Err)
			continue
		}
		fmt.Fprintf(f.writer, "    %s %s = %s\n", cyan("log"), line.Path, formatValue(line.Value, 500))
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Requests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:     %dms\n", result.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatStats(summary *stats.Summary) {
	if summary == nil || len(summary.Requests) == 0 {
		return
	}
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "%s\n", bold("Statistics (ms)"))
	table := tablewriter.NewWriter(f.writer)
	table.SetHeader([]string{"request", "count", "average", "median", "p90", "p95", "p99", "stddev"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetBorder(false)
	for _, r := range summary.Requests {
		table.Append([]string{
			r.Name, strconv.Itoa(r.Count),
			ms(r.Average), ms(r.Median), ms(r.P90), ms(r.P95), ms(r.P99), ms(r.StdDev),
		})
	}
	table.Render()

	fmt.Fprintf(f.writer, "\nAll requests: %d, p50 %dms, p95 %dms, p99 %dms\n\n",
		summary.Total, summary.P50.Milliseconds(), summary.P95.Milliseconds(), summary.P99.Milliseconds())
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

// ms renders a statistic, with "-" for undefined values.
func ms(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return fmt.Sprintf("%.2f", v)
}
