// Package metrics records run outcomes in a Prometheus registry and writes
// them as a node-exporter textfile when the run completes.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rgra/examiner-check/internal/examiner/domain"
	apperrors "github.com/rgra/examiner-check/pkg/errors"
)

const namespace = "examcheck"

// RunMetrics collects per-document and per-run series
type RunMetrics struct {
	registry *prometheus.Registry
	path     string

	documentsTotal   *prometheus.CounterVec
	matchRatio       prometheus.Histogram
	documentDuration prometheus.Histogram
	applications     prometheus.Gauge
	lastRunSuccess   prometheus.Gauge
	lastRunTimestamp prometheus.Gauge
}

// New creates metrics that RunDone writes to path. An empty path keeps the
// series in memory only.
func New(path string) *RunMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Processed documents by OCR and registry outcome.",
		},
		[]string{"ocr", "registry"},
	)
	matchRatio := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_ratio",
			Help:      "Fuzzy match ratio between OCR and registry examiner names.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		},
	)
	documentDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "document_duration_seconds",
			Help:      "Time spent on one document, OCR and registry calls included.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
	)
	applications := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "applications",
			Help:      "Application directories visited in the last run.",
		},
	)
	lastRunSuccess := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run walked its root, 0 otherwise.",
		},
	)
	lastRunTimestamp := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		},
	)

	registry.MustRegister(documentsTotal, matchRatio, documentDuration, applications, lastRunSuccess, lastRunTimestamp)

	return &RunMetrics{
		registry:         registry,
		path:             path,
		documentsTotal:   documentsTotal,
		matchRatio:       matchRatio,
		documentDuration: documentDuration,
		applications:     applications,
		lastRunSuccess:   lastRunSuccess,
		lastRunTimestamp: lastRunTimestamp,
	}
}

// Registry exposes the underlying registry.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *RunMetrics) Name() string { return "metrics" }

// DocumentDone records one document.
func (m *RunMetrics) DocumentDone(_ context.Context, _ string, entry domain.DocumentEntry, _ []domain.LineRecord) error {
	m.documentsTotal.WithLabelValues(outcome(entry.OCRExaminer), outcome(entry.RegistryExaminer)).Inc()
	m.matchRatio.Observe(float64(entry.Ratio))
	m.documentDuration.Observe(entry.Duration.Seconds())
	return nil
}

// RunDone records the run and writes the textfile.
func (m *RunMetrics) RunDone(_ context.Context, r *domain.Report) error {
	m.applications.Set(float64(r.Summary.Applications))
	if r.Failed() {
		m.lastRunSuccess.Set(0)
	} else {
		m.lastRunSuccess.Set(1)
	}
	m.lastRunTimestamp.Set(float64(r.FinishedAt.Unix()))

	if m.path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(m.path, m.registry); err != nil {
		return apperrors.IO("metrics textfile", err)
	}
	return nil
}

// outcome is "found" or the failure kind.
func outcome(r domain.NameResult) string {
	if r.OK() {
		return "found"
	}
	return string(r.Failure)
}
