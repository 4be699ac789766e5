package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder implements domain.repository.Metrics using Prometheus. A batch run
// is short-lived, so values are pushed to a Pushgateway instead of scraped.
type Recorder struct {
	registry *prometheus.Registry
	pusher   *push.Pusher

	builds       *prometheus.CounterVec
	buildRows    *prometheus.GaugeVec
	buildSeconds *prometheus.HistogramVec
	fetches      *prometheus.CounterVec
	fetchRetries prometheus.Counter
	warnings     *prometheus.CounterVec
	storeRows    *prometheus.CounterVec
	storeErrors  *prometheus.CounterVec
}

// New creates a recorder on its own registry. An empty pushgatewayURL makes
// Push a no-op.
func New(pushgatewayURL, job string) *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		builds: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollspread_builds_total",
				Help: "Spread definitions built, by outcome",
			},
			[]string{"status"},
		),
		buildRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "rollspread_build_rows",
				Help: "Output rows produced by the last build of an instrument",
			},
			[]string{"instrument"},
		),
		buildSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rollspread_build_duration_seconds",
				Help:    "Duration of one spread definition build",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
			[]string{"status"},
		),
		fetches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollspread_fetch_total",
				Help: "Contract price fetches, by outcome",
			},
			[]string{"outcome"},
		),
		fetchRetries: f.NewCounter(
			prometheus.CounterOpts{
				Name: "rollspread_fetch_retries_total",
				Help: "Fetch attempts beyond the first",
			},
		),
		warnings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollspread_build_warnings_total",
				Help: "Non-fatal build warnings, by kind",
			},
			[]string{"kind"},
		),
		storeRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollspread_store_rows_total",
				Help: "Rows written to the output table",
			},
			[]string{"backend", "mode"},
		),
		storeErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollspread_store_errors_total",
				Help: "Failed output table writes",
			},
			[]string{"backend", "mode"},
		),
	}
	if pushgatewayURL != "" {
		r.pusher = push.New(pushgatewayURL, job).Gatherer(reg)
	}
	return r
}

// Registry exposes the recorder's registry, e.g. for the Kafka producer.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordBuild records the outcome of one definition.
func (r *Recorder) RecordBuild(instrument, status string, rows int, seconds float64) {
	r.builds.WithLabelValues(status).Inc()
	r.buildSeconds.WithLabelValues(status).Observe(seconds)
	r.buildRows.WithLabelValues(instrument).Set(float64(rows))
}

// RecordFetch records one contract fetch and how many attempts it took.
func (r *Recorder) RecordFetch(outcome string, attempts int) {
	r.fetches.WithLabelValues(outcome).Inc()
	if attempts > 1 {
		r.fetchRetries.Add(float64(attempts - 1))
	}
}

// RecordWarning counts a build warning.
func (r *Recorder) RecordWarning(kind string) {
	r.warnings.WithLabelValues(kind).Inc()
}

// RecordStoreWrite records an output table write.
func (r *Recorder) RecordStoreWrite(backend, mode string, rows int, err error) {
	if err != nil {
		r.storeErrors.WithLabelValues(backend, mode).Inc()
		return
	}
	r.storeRows.WithLabelValues(backend, mode).Add(float64(rows))
}

// Push sends the collected metrics to the Pushgateway.
func (r *Recorder) Push(ctx context.Context) error {
	if r.pusher == nil {
		return nil
	}
	if err := r.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
