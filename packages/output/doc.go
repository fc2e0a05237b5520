// Package output provides formatters for displaying run results.
//
// Supported output formats:
//   - Console: Human-readable colored terminal output, printed as each
//     request completes
//   - JSON: Machine-readable JSON output, written once at the end
//
// Each formatter implements the Formatter interface and can optionally
// implement Flushable for formats that accumulate results before output.
package output
