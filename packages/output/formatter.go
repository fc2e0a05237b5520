package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/runner"
	"github.com/abdul-hamid-achik/rester/packages/stats"
)

// Formatter interface for all output formatters
type Formatter interface {
	FormatHeader(version string)
	// FormatRequest is called as soon as a request completes or is skipped.
	FormatRequest(result *runner.RequestResult)
	FormatResult(result *runner.RunResult)
	FormatStats(summary *stats.Summary)
	FormatError(err error)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// CheckFormat reports whether format names a known formatter.
func CheckFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("unknown output format %q (use console or json)", format)
	}
}

// New returns the formatter for format ("console" or "json").
func New(format string, w io.Writer, verbose, noColor bool) (Formatter, error) {
	if err := CheckFormat(format); err != nil {
		return nil, err
	}
	if strings.EqualFold(format, "json") {
		return NewJSONFormatter(JSONWithWriter(w)), nil
	}
	return NewConsoleFormatter(WithWriter(w), WithVerbose(verbose), WithNoColor(noColor)), nil
}
