package runner

import (
	"time"

	"github.com/abdul-hamid-achik/rester/packages/core/value"
	"github.com/abdul-hamid-achik/rester/packages/http"
)

type Status int

const (
	StatusPassed Status = iota
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "passed"
	}
}

// LogLine is one entry of a request's log directive.
type LogLine struct {
	Path  string
	Value value.Value
	Err   error
}

type RequestResult struct {
	Name   string
	Setup  bool
	Status Status
	// Reason explains a failure or a skip.
	Reason   string
	Method   string
	URL      string
	Duration time.Duration
	Response *http.Response
	Logs     []LogLine
}

func (r *RequestResult) Passed() bool  { return r.Status == StatusPassed }
func (r *RequestResult) Skipped() bool { return r.Status == StatusSkipped }

type RunResult struct {
	ID       string
	File     string
	Results  []*RequestResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
}

func (r *RunResult) add(results ...*RequestResult) {
	for _, res := range results {
		r.Results = append(r.Results, res)
		switch res.Status {
		case StatusPassed:
			r.Passed++
		case StatusFailed:
			r.Failed++
		case StatusSkipped:
			r.Skipped++
		}
	}
}

// Valid reports whether every executed request passed.
func (r *RunResult) Valid() bool {
	return r.Failed == 0
}
