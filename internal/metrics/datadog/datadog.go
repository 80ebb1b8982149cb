// Package datadog implements a Datadog backend for the internal/metrics
// package.
//
// The extractor is a short-lived batch job, but runs can be scheduled
// back-to-back, so the backend keeps the same shape as a long-running one:
//   - samples buffer in-memory under a mutex
//   - a ticker goroutine flushes periodically (default: once per minute)
//   - Close() stops the loop and flushes one final time
//
// A single one-shot run therefore submits exactly one payload, at Close.
package datadog

import (
	"context"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	dd "github.com/DataDog/datadog-api-client-go/v2/api/datadog"
	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"

	"weaponstats/internal/metrics"
)

// Options controls backend configuration.
type Options struct {
	// JobName becomes tag "job:<name>" on every metric.
	// If empty, defaults to "weaponstats".
	JobName string

	// Tags are extra Datadog tags (e.g. []string{"env:prod"}).
	Tags []string

	// FlushEvery controls how often buffered samples are submitted.
	// If <= 0, defaults to 60 seconds.
	FlushEvery time.Duration

	// Unexported test seams. Production code never sets them; unit tests
	// use them to avoid real clocks, tickers, and network submission.
	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker
	submitter metricsSubmitter
}

// metricsSubmitter is the minimal slice of the Datadog SDK this backend
// needs. The SDK's concrete *datadogV2.MetricsApi satisfies it; tests
// install a fake.
type metricsSubmitter interface {
	SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error)
}

// Backend implements metrics.Backend for Datadog.
type Backend struct {
	api metricsSubmitter
	ctx context.Context

	flushEvery time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}

	baseTags []string

	now       func() time.Time
	newTicker func(d time.Duration) *time.Ticker

	mu sync.Mutex

	weaponCounts  map[string]float64 // kind -> count
	fieldsMissing float64
	writeErrors   map[string]float64 // file -> count
	runDurations  []float64
}

func resolveEnvTag() string {
	if v := strings.TrimSpace(os.Getenv("ENV")); v != "" {
		return "env:" + v
	}
	if v := strings.TrimSpace(os.Getenv("DD_ENV")); v != "" {
		return "env:" + v
	}
	return "env:unknown"
}

// NewBackend constructs a Datadog backend using the official client and
// starts its periodic flush goroutine.
//
// Credentials come from the standard DD_API_KEY / DD_APP_KEY environment
// variables via the SDK's default context; construction itself does no
// network I/O, so errors surface from Flush, not here.
func NewBackend(parent context.Context, opts Options) (*Backend, error) {
	job := opts.JobName
	if job == "" {
		job = "weaponstats"
	}

	flushEvery := opts.FlushEvery
	if flushEvery <= 0 {
		flushEvery = 60 * time.Second
	}

	baseTags := make([]string, 0, 2+len(opts.Tags))
	baseTags = append(baseTags, resolveEnvTag(), "job:"+job)
	baseTags = append(baseTags, opts.Tags...)

	nowFn := opts.now
	if nowFn == nil {
		nowFn = time.Now
	}
	newTicker := opts.newTicker
	if newTicker == nil {
		newTicker = time.NewTicker
	}

	submitter := opts.submitter
	if submitter == nil {
		client := dd.NewAPIClient(dd.NewConfiguration())
		submitter = datadogV2.NewMetricsApi(client)
	}

	b := &Backend{
		api:        submitter,
		ctx:        dd.NewDefaultContext(parent),
		flushEvery: flushEvery,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),

		baseTags: baseTags,

		now:       nowFn,
		newTicker: newTicker,

		weaponCounts: make(map[string]float64),
		writeErrors:  make(map[string]float64),
	}

	go b.loop()
	return b, nil
}

func (b *Backend) loop() {
	defer close(b.doneCh)

	t := b.newTicker(b.flushEvery)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			_ = b.Flush()
		case <-b.stopCh:
			return
		}
	}
}

// Close stops the background flush loop and performs one final Flush().
// Call once at process shutdown; a second Close panics on the closed
// channel, matching the usual "Close once" contract.
func (b *Backend) Close() error {
	close(b.stopCh)
	<-b.doneCh
	return b.Flush()
}

// IncCounter implements metrics.Backend.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if delta <= 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.MetricWeaponsTotal:
		kind := labels["kind"]
		if kind == "" {
			return
		}
		b.weaponCounts[kind] += delta

	case metrics.MetricFieldsMissingTotal:
		b.fieldsMissing += delta

	case metrics.MetricWriteErrorsTotal:
		file := labels["file"]
		if file == "" {
			file = "unknown"
		}
		b.writeErrors[file] += delta

	default:
		// Unknown metrics are ignored.
	}
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if value < 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch name {
	case metrics.MetricRunDurationSeconds:
		b.runDurations = append(b.runDurations, value)
	default:
		// Unknown histograms are ignored.
	}
}

// snapshot holds buffered state detached from the live buffers, so payload
// building and submission happen outside the lock.
type snapshot struct {
	weaponCounts  map[string]float64
	fieldsMissing float64
	writeErrors   map[string]float64
	runDurations  []float64
}

func (b *Backend) snapshotAndReset() snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := snapshot{
		weaponCounts:  b.weaponCounts,
		fieldsMissing: b.fieldsMissing,
		writeErrors:   b.writeErrors,
		runDurations:  b.runDurations,
	}

	b.weaponCounts = make(map[string]float64)
	b.fieldsMissing = 0
	b.writeErrors = make(map[string]float64)
	b.runDurations = nil

	return s
}

func (s snapshot) isEmpty() bool {
	return len(s.weaponCounts) == 0 &&
		s.fieldsMissing == 0 &&
		len(s.writeErrors) == 0 &&
		len(s.runDurations) == 0
}

// Flush submits buffered samples to Datadog and resets local buffers.
//
// Buffers reset even when submission fails; dropping a window of counters
// beats blocking the extraction run on Datadog availability.
func (b *Backend) Flush() error {
	snap := b.snapshotAndReset()
	if snap.isEmpty() {
		return nil
	}

	payload := datadogV2.MetricPayload{Series: b.buildSeries(snap, b.now().Unix())}

	_, _, err := b.api.SubmitMetrics(b.ctx, payload, *datadogV2.NewSubmitMetricsOptionalParameters())
	return err
}

// buildSeries constructs Datadog series for a snapshot at a fixed
// timestamp. Pure: no locks, no network, no clocks, which keeps it unit
// testable and makes metric naming an explicit contract.
func (b *Backend) buildSeries(s snapshot, nowUnix int64) []datadogV2.MetricSeries {
	series := make([]datadogV2.MetricSeries, 0, len(s.weaponCounts)+len(s.writeErrors)+8)

	for kind, v := range s.weaponCounts {
		if v == 0 {
			continue
		}
		series = append(series, countSeries("weaponstats.weapons.total", v, withTags(b.baseTags, "kind:"+kind), nowUnix))
	}

	if s.fieldsMissing != 0 {
		series = append(series, countSeries("weaponstats.fields.missing.total", s.fieldsMissing, b.baseTags, nowUnix))
	}

	for file, v := range s.writeErrors {
		if v == 0 {
			continue
		}
		series = append(series, countSeries("weaponstats.write.errors.total", v, withTags(b.baseTags, "file:"+file), nowUnix))
	}

	if len(s.runDurations) > 0 {
		cp := append([]float64(nil), s.runDurations...)
		sort.Float64s(cp)
		series = append(series,
			gaugeSeries("weaponstats.run.duration_seconds.p50", percentileNearestRank(cp, 0.50), b.baseTags, nowUnix),
			gaugeSeries("weaponstats.run.duration_seconds.max", cp[len(cp)-1], b.baseTags, nowUnix),
			gaugeSeries("weaponstats.run.duration_seconds.samples", float64(len(cp)), b.baseTags, nowUnix),
		)
	}

	return series
}

func countSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_COUNT.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func gaugeSeries(metric string, value float64, tags []string, nowUnix int64) datadogV2.MetricSeries {
	return datadogV2.MetricSeries{
		Metric: metric,
		Type:   datadogV2.METRICINTAKETYPE_GAUGE.Ptr(),
		Points: []datadogV2.MetricPoint{
			{Timestamp: dd.PtrInt64(nowUnix), Value: dd.PtrFloat64(value)},
		},
		Tags: tags,
	}
}

func withTags(base []string, extras ...string) []string {
	out := make([]string, 0, len(base)+len(extras))
	out = append(out, base...)
	out = append(out, extras...)
	return out
}

func percentileNearestRank(s []float64, p float64) float64 {
	n := len(s)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return s[0]
	}
	if p >= 1 {
		return s[n-1]
	}
	idx := int(p*float64(n-1) + 0.5)
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return s[idx]
}

var _ metrics.Backend = (*Backend)(nil)

// ParseTagsCSV parses comma-separated tags like "env:prod,service:stats".
func ParseTagsCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
