package metrics

import (
	"errors"
	"sync"
	"testing"
)

// fakeBackend records every sample it receives.
type fakeBackend struct {
	mu       sync.Mutex
	counters map[string]float64
	labels   map[string]Labels
	hist     map[string][]float64
	flushErr error
	flushed  int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		counters: map[string]float64{},
		labels:   map[string]Labels{},
		hist:     map[string][]float64{},
	}
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters[name] += delta
	f.labels[name] = labels
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hist[name] = append(f.hist[name], value)
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushed++
	return f.flushErr
}

// TestRecordHelpers verifies the helper functions route to the installed
// backend with the documented names and labels, and skip non-positive
// deltas.
func TestRecordHelpers(t *testing.T) {
	fb := newFakeBackend()
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(nil) })

	RecordWeapons("extracted", 7)
	RecordWeapons("skipped_no_name", 0) // dropped
	RecordMissingFields(3)
	RecordWriteError("compact")
	ObserveRunDuration(1.25)

	if got := fb.counters[MetricWeaponsTotal]; got != 7 {
		t.Fatalf("weapons counter=%v, want 7", got)
	}
	if got := fb.labels[MetricWeaponsTotal]["kind"]; got != "extracted" {
		t.Fatalf("weapons kind label=%q, want extracted", got)
	}
	if got := fb.counters[MetricFieldsMissingTotal]; got != 3 {
		t.Fatalf("missing-fields counter=%v, want 3", got)
	}
	if got := fb.labels[MetricWriteErrorsTotal]["file"]; got != "compact" {
		t.Fatalf("write-error file label=%q, want compact", got)
	}
	if got := fb.hist[MetricRunDurationSeconds]; len(got) != 1 || got[0] != 1.25 {
		t.Fatalf("run duration samples=%v, want [1.25]", got)
	}
}

// TestFlush verifies Flush reaches a buffering backend and that the nop
// backend (and a nil reset) flushes cleanly.
func TestFlush(t *testing.T) {
	fb := newFakeBackend()
	fb.flushErr = errors.New("submit failed")
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(nil) })

	if err := Flush(); err == nil {
		t.Fatalf("Flush did not propagate the backend error")
	}
	if fb.flushed != 1 {
		t.Fatalf("flushed=%d, want 1", fb.flushed)
	}

	SetBackend(nil)
	if err := Flush(); err != nil {
		t.Fatalf("Flush on nop backend: %v", err)
	}
}
