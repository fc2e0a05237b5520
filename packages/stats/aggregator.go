package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxLatencyUs = 60_000_000

// Aggregator records successful request durations per name. It is safe
// for concurrent use, though a run records from a single goroutine.
type Aggregator struct {
	mu        sync.Mutex
	names     []string
	durations map[string][]time.Duration
	// Latency histogram (in microseconds for precision)
	histogram *hdrhistogram.Histogram
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		durations: make(map[string][]time.Duration),
		// Histogram: 1us to 60s range, 3 significant digits
		histogram: hdrhistogram.New(1, maxLatencyUs, 3),
	}
}

// Record appends d to name's list.
func (a *Aggregator) Record(name string, d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.durations[name]; !ok {
		a.names = append(a.names, name)
	}
	a.durations[name] = append(a.durations[name], d)

	latencyUs := d.Microseconds()
	if latencyUs < 1 {
		latencyUs = 1
	}
	if latencyUs > maxLatencyUs {
		latencyUs = maxLatencyUs
	}
	_ = a.histogram.RecordValue(latencyUs)
}

// Names returns the recorded request names in first-seen order.
func (a *Aggregator) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.names))
	copy(out, a.names)
	return out
}

// Durations returns a copy of name's recorded durations.
func (a *Aggregator) Durations(name string) []time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]time.Duration, len(a.durations[name]))
	copy(out, a.durations[name])
	return out
}

// RequestSummary holds the statistics of one request name, in
// milliseconds. Undefined statistics are NaN.
type RequestSummary struct {
	Name    string
	Count   int
	Average float64
	Median  float64
	P90     float64
	P95     float64
	P99     float64
	StdDev  float64
}

// Summary is the statistics of a whole process invocation.
type Summary struct {
	Requests []RequestSummary
	Total    int64
	P50      time.Duration
	P95      time.Duration
	P99      time.Duration
	Max      time.Duration
}

func (a *Aggregator) Summary() *Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	summary := &Summary{
		Total: a.histogram.TotalCount(),
		P50:   time.Duration(a.histogram.ValueAtQuantile(50)) * time.Microsecond,
		P95:   time.Duration(a.histogram.ValueAtQuantile(95)) * time.Microsecond,
		P99:   time.Duration(a.histogram.ValueAtQuantile(99)) * time.Microsecond,
		Max:   time.Duration(a.histogram.Max()) * time.Microsecond,
	}

	for _, name := range a.names {
		ms := milliseconds(a.durations[name])
		summary.Requests = append(summary.Requests, RequestSummary{
			Name:    name,
			Count:   len(ms),
			Average: Average(ms),
			Median:  Median(ms),
			P90:     Percentile(ms, 0.90),
			P95:     Percentile(ms, 0.95),
			P99:     Percentile(ms, 0.99),
			StdDev:  StdDev(ms),
		})
	}
	return summary
}

func milliseconds(ds []time.Duration) []float64 {
	out := make([]float64, len(ds))
	for i, d := range ds {
		out[i] = float64(d) / float64(time.Millisecond)
	}
	return out
}
