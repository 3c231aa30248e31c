package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics records ingestion outcomes and per-stage latency.
// A nil *PipelineMetrics records nothing.
type PipelineMetrics struct {
	ingested      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

// NewPipelineMetrics registers the pipeline collectors on reg.
func NewPipelineMetrics(reg prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{
		ingested: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_ingested_total",
				Help: "Uploaded documents by final processing status.",
			},
			[]string{"status"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_duration_seconds",
				Help:    "Duration of each document pipeline stage.",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"stage", "outcome"},
		),
	}
	for _, c := range []prometheus.Collector{m.ingested, m.stageDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PipelineMetrics) documentIngested(status string) {
	if m == nil {
		return
	}
	m.ingested.WithLabelValues(status).Inc()
}

func (m *PipelineMetrics) observeStage(stage string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.stageDuration.WithLabelValues(stage, outcome).Observe(d.Seconds())
}
