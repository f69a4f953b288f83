// Package metrics exposes Prometheus instruments for the analysis pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ExtractionMetrics counts analyses by outcome and tracks pipeline latency.
type ExtractionMetrics struct {
	analysesTotal *prometheus.CounterVec
	outcomesTotal *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	satisfaction  prometheus.Histogram
}

func NewExtractionMetrics(reg prometheus.Registerer) *ExtractionMetrics {
	m := &ExtractionMetrics{
		analysesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "analyses_total",
			Help:      "Thread analyses by trigger source and result",
		}, []string{"source", "result"}),
		outcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "outcomes_total",
			Help:      "Extracted conversations by request type and resolution status",
		}, []string{"request_type", "resolution_status"}),
		stageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Latency of pipeline stages",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"stage"}),
		satisfaction: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "pipeline",
			Name:      "satisfaction_score",
			Help:      "Distribution of extracted satisfaction scores",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.analysesTotal, m.outcomesTotal, m.stageLatency, m.satisfaction)
	return m
}

func (m *ExtractionMetrics) ObserveAnalysis(source, result string) {
	if m == nil {
		return
	}
	m.analysesTotal.WithLabelValues(source, result).Inc()
}

func (m *ExtractionMetrics) ObserveOutcome(requestType, resolutionStatus string, satisfaction int) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(requestType, resolutionStatus).Inc()
	m.satisfaction.Observe(float64(satisfaction))
}

func (m *ExtractionMetrics) ObserveStage(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(stage).Observe(seconds)
}
