// Package stats aggregates the durations of successful requests.
//
// Durations are kept per request name, in first-seen order, and feed the
// descriptive statistics printed with --stats. An overall HdrHistogram
// tracks latency quantiles across every request and iteration.
package stats
