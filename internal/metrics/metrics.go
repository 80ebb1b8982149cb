// Package metrics is a minimal metrics facade for extraction runs.
//
// The pipeline code records counters and histograms against whatever
// Backend is installed; the default is a nop, so instrumentation costs
// nothing unless a run opts into a real backend (see metrics/datadog).
package metrics

import "sync"

// Labels attach low-cardinality dimensions to a metric sample.
type Labels map[string]string

// Backend receives metric samples. Implementations must be safe for
// concurrent use.
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
}

// Flusher is implemented by backends that buffer samples and submit them
// in batches.
type Flusher interface {
	Flush() error
}

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}

// SetBackend installs b as the process-wide backend. Passing nil restores
// the nop backend.
func SetBackend(b Backend) {
	mu.Lock()
	defer mu.Unlock()
	if b == nil {
		backend = nopBackend{}
		return
	}
	backend = b
}

// Flush asks the current backend to submit buffered samples, if it buffers
// any. The nop backend and non-buffering backends report nil.
func Flush() error {
	mu.RLock()
	b := backend
	mu.RUnlock()

	if f, ok := b.(Flusher); ok {
		return f.Flush()
	}
	return nil
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Metric names recorded by the extraction pipeline.
const (
	MetricWeaponsTotal       = "stats_weapons_total"
	MetricFieldsMissingTotal = "stats_fields_missing_total"
	MetricWriteErrorsTotal   = "stats_write_errors_total"
	MetricRunDurationSeconds = "stats_run_duration_seconds"
)

// RecordWeapons counts weapons by outcome kind: "extracted",
// "skipped_no_name", or "overwritten".
func RecordWeapons(kind string, n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(MetricWeaponsTotal, float64(n), Labels{"kind": kind})
}

// RecordMissingFields counts rule applications that produced no value.
func RecordMissingFields(n int) {
	if n <= 0 {
		return
	}
	current().IncCounter(MetricFieldsMissingTotal, float64(n), nil)
}

// RecordWriteError counts a failed artifact write, labeled by file.
func RecordWriteError(file string) {
	current().IncCounter(MetricWriteErrorsTotal, 1, Labels{"file": file})
}

// ObserveRunDuration records the wall-clock duration of one full run.
func ObserveRunDuration(seconds float64) {
	current().ObserveHistogram(MetricRunDurationSeconds, seconds, nil)
}
