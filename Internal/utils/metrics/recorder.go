package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for per-symbol results.
const (
	OutcomeScanned      = "scanned"
	OutcomeFetchFailed  = "fetch_failed"
	OutcomeInsufficient = "insufficient_data"
	OutcomeDegenerate   = "degenerate_risk"
)

// Recorder collects run metrics in a private registry that is written to a
// node-exporter textfile when the run ends.
type Recorder struct {
	registry      *prometheus.Registry
	symbols       *prometheus.CounterVec
	fetchAttempts *prometheus.CounterVec
	candidates    *prometheus.GaugeVec
	runDuration   prometheus.Gauge
	lastRun       prometheus.Gauge
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		symbols: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eodscanner_symbols_total",
				Help: "Symbols processed by outcome",
			},
			[]string{"outcome"},
		),
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eodscanner_fetch_attempts_total",
				Help: "Market data fetch attempts by source",
			},
			[]string{"source"},
		),
		candidates: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "eodscanner_candidates",
				Help: "Ranked candidates emitted in the last run",
			},
			[]string{"direction"},
		),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eodscanner_run_duration_seconds",
			Help: "Wall time of the last scan",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "eodscanner_last_run_timestamp_seconds",
			Help: "Unix time the last scan finished",
		}),
	}
	r.registry.MustRegister(r.symbols, r.fetchAttempts, r.candidates, r.runDuration, r.lastRun)
	return r
}

func (r *Recorder) RecordSymbol(outcome string) {
	if r == nil {
		return
	}
	r.symbols.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordFetchAttempts(source string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.fetchAttempts.WithLabelValues(source).Add(float64(n))
}

func (r *Recorder) RecordCandidates(direction string, n int) {
	if r == nil {
		return
	}
	r.candidates.WithLabelValues(direction).Set(float64(n))
}

func (r *Recorder) RecordRun(started, finished time.Time) {
	if r == nil {
		return
	}
	r.runDuration.Set(finished.Sub(started).Seconds())
	r.lastRun.Set(float64(finished.Unix()))
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps the registry in text exposition format. The write is
// atomic so a scraping node exporter never sees a partial file.
func (r *Recorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
