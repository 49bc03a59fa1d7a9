// Package metrics records batch classification counters and writes them in
// the node-exporter textfile format.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rotisserie/eris"

	"github.com/sells-group/relist-cli/internal/classify"
	"github.com/sells-group/relist-cli/internal/model"
)

// Metrics holds the collectors of one process on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	RecordsClassified *prometheus.CounterVec
	SafetyVerdicts    *prometheus.CounterVec
	InvalidInputs     prometheus.Counter
	Overrides         *prometheus.CounterVec
	BatchDuration     prometheus.Histogram
	BatchProcessed    prometheus.Gauge
	BatchCancelled    prometheus.Counter
	ConfigRevision    prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		RecordsClassified: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relist_records_classified_total",
				Help: "Total number of candidate records classified, by tier",
			},
			[]string{"tier"},
		),
		SafetyVerdicts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relist_safety_verdicts_total",
				Help: "Total number of safety verdicts, by risk level and action",
			},
			[]string{"risk_level", "action"},
		),
		InvalidInputs: f.NewCounter(prometheus.CounterOpts{
			Name: "relist_invalid_input_total",
			Help: "Total number of records excluded as invalid input",
		}),
		Overrides: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relist_overrides_applied_total",
				Help: "Total number of manual overrides applied, by review status",
			},
			[]string{"status"},
		),
		BatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "relist_batch_duration_seconds",
			Help:    "Duration of batch classification runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		BatchProcessed: f.NewGauge(prometheus.GaugeOpts{
			Name: "relist_batch_processed_records",
			Help: "Records processed by the most recent batch",
		}),
		BatchCancelled: f.NewCounter(prometheus.CounterOpts{
			Name: "relist_batch_cancelled_total",
			Help: "Total number of batches stopped before processing every record",
		}),
		ConfigRevision: f.NewGauge(prometheus.GaugeOpts{
			Name: "relist_threshold_config_revision",
			Help: "Threshold config revision used by the most recent batch",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveRecord counts one classified record.
func (m *Metrics) ObserveRecord(rec *model.CandidateRecord) {
	if m == nil || !rec.Classified() {
		return
	}
	m.RecordsClassified.WithLabelValues(string(rec.PriorityTier)).Inc()
	if v := rec.SafetyVerdict; v != nil {
		m.SafetyVerdicts.WithLabelValues(string(v.RiskLevel), string(v.Action)).Inc()
	}
	if rec.ReasonCode == classify.CodeInvalidInput {
		m.InvalidInputs.Inc()
	}
	if rec.ReviewStatus != model.ReviewNone {
		m.Overrides.WithLabelValues(string(rec.ReviewStatus)).Inc()
	}
}

// ObserveRun records a finished batch.
func (m *Metrics) ObserveRun(run model.BatchRun) {
	if m == nil {
		return
	}
	m.BatchDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())
	m.BatchProcessed.Set(float64(run.Processed))
	m.ConfigRevision.Set(float64(run.ConfigRevision))
	if run.Cancelled {
		m.BatchCancelled.Inc()
	}
}

// WriteTextfile writes every metric to path in the text exposition format,
// atomically, for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return eris.Wrapf(err, "metrics: write textfile %s", path)
	}
	return nil
}
