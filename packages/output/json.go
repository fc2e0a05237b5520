package output

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/runner"
	"github.com/abdul-hamid-achik/rester/packages/stats"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Runs     []JSONRun   `json:"runs"`
	Errors   []string    `json:"errors,omitempty"`
	Stats    *JSONStats  `json:"stats,omitempty"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

// JSONSummary represents the summary across all runs
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONRun is one pass over the document
type JSONRun struct {
	ID       string        `json:"id"`
	File     string        `json:"file"`
	Duration float64       `json:"duration"`
	Requests []JSONRequest `json:"requests"`
}

// JSONRequest represents a single request result
type JSONRequest struct {
	Name     string         `json:"name"`
	Setup    bool           `json:"setup,omitempty"`
	Status   string         `json:"status"`
	Reason   string         `json:"reason,omitempty"`
	Method   string         `json:"method,omitempty"`
	URL      string         `json:"url,omitempty"`
	Duration float64        `json:"duration"`
	Response *JSONResponse  `json:"response,omitempty"`
	Logs     map[string]any `json:"logs,omitempty"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	Headers    map[string]string `json:"headers,omitempty"`
}

// JSONStats mirrors stats.Summary; undefined statistics are null.
type JSONStats struct {
	Requests []JSONRequestStats `json:"requests"`
	Total    int64              `json:"total"`
	P50      float64            `json:"p50"`
	P95      float64            `json:"p95"`
	P99      float64            `json:"p99"`
}

type JSONRequestStats struct {
	Name    string   `json:"name"`
	Count   int      `json:"count"`
	Average *float64 `json:"average"`
	Median  *float64 `json:"median"`
	P90     *float64 `json:"p90"`
	P95     *float64 `json:"p95"`
	P99     *float64 `json:"p99"`
	StdDev  *float64 `json:"stddev"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer io.Writer
	output JSONOutput
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		output: JSONOutput{Runs: make([]JSONRun, 0)},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		if w != nil {
			f.writer = w
		}
	}
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

func (f *JSONFormatter) FormatRequest(result *runner.RequestResult) {
	// Requests are collected from FormatResult
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	run := JSONRun{
		ID:       result.ID,
		File:     result.File,
		Duration: float64(result.Duration.Milliseconds()),
		Requests: make([]JSONRequest, 0, len(result.Results)),
	}

	for _, r := range result.Results {
		req := JSONRequest{
			Name:     r.Name,
			Setup:    r.Setup,
			Status:   r.Status.String(),
			Reason:   r.Reason,
			Method:   r.Method,
			URL:      r.URL,
			Duration: float64(r.Duration.Milliseconds()),
		}

		if r.Response != nil {
			req.Response = &JSONResponse{
				StatusCode: r.Response.StatusCode,
				Status:     r.Response.Status,
				Headers:    r.Response.Headers,
			}
		}

		if len(r.Logs) > 0 {
			req.Logs = make(map[string]any, len(r.Logs))
			for _, line := range r.Logs {
				if line.Err != nil {
					req.Logs[line.Path] = map[string]string{"error": line.Err.Error()}
					continue
				}
				req.Logs[line.Path] = line.Value
			}
		}
		run.Requests = append(run.Requests, req)
	}

	f.output.Runs = append(f.output.Runs, run)
	f.output.Summary.Passed += result.Passed
	f.output.Summary.Failed += result.Failed
	f.output.Summary.Skipped += result.Skipped
	f.output.Summary.Total += len(result.Results)
}

func (f *JSONFormatter) FormatStats(summary *stats.Summary) {
	if summary == nil {
		return
	}
	out := &JSONStats{
		Requests: make([]JSONRequestStats, 0, len(summary.Requests)),
		Total:    summary.Total,
		P50:      float64(summary.P50) / float64(time.Millisecond),
		P95:      float64(summary.P95) / float64(time.Millisecond),
		P99:      float64(summary.P99) / float64(time.Millisecond),
	}
	for _, r := range summary.Requests {
		out.Requests = append(out.Requests, JSONRequestStats{
			Name:    r.Name,
			Count:   r.Count,
			Average: finite(r.Average),
			Median:  finite(r.Median),
			P90:     finite(r.P90),
			P95:     finite(r.P95),
			P99:     finite(r.P99),
			StdDev:  finite(r.StdDev),
		})
	}
	f.output.Stats = out
}

func (f *JSONFormatter) FormatError(err error) {
	f.output.Errors = append(f.output.Errors, err.Error())
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	f.output.Duration = float64(totalDuration.Milliseconds())
	f.output.Time = time.Now().Format(time.RFC3339)

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(f.output)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
