package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder records pipeline metrics using Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	gatherer      prometheus.Gatherer
	stageDuration *prometheus.HistogramVec
	stageRows     *prometheus.GaugeVec
	rowsLost      *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	runsTotal     *prometheus.CounterVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		gatherer: gatherer,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "factorpanel_stage_duration_seconds",
				Help:    "Duration of pipeline stages in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		stageRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "factorpanel_stage_output_rows",
				Help: "Rows produced by the last execution of each stage",
			},
			[]string{"stage"},
		),
		rowsLost: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorpanel_rows_lost_total",
				Help: "Rows removed by joins and null filtering",
			},
			[]string{"stage", "reason"},
		),
		fetchFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorpanel_fetch_failures_total",
				Help: "Per-symbol source retrieval failures",
			},
			[]string{"source"},
		),
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorpanel_runs_total",
				Help: "Pipeline runs by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// RecordStage records the duration and output size of a stage.
func (r *Recorder) RecordStage(stage string, seconds float64, outputRows int) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(seconds)
	r.stageRows.WithLabelValues(stage).Set(float64(outputRows))
}

// RecordRowsLost records rows removed at a stage.
func (r *Recorder) RecordRowsLost(stage, reason string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.rowsLost.WithLabelValues(stage, reason).Add(float64(n))
}

// RecordFetchFailure records a failed per-symbol retrieval.
func (r *Recorder) RecordFetchFailure(source string) {
	if r == nil {
		return
	}
	r.fetchFailures.WithLabelValues(source).Inc()
}

// RecordRun records the outcome of a pipeline run ("success" or an error kind).
func (r *Recorder) RecordRun(outcome string) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil || r.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
