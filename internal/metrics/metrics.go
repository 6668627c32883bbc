// Package metrics exposes batch and endpoint counters in the prometheus
// text format.
package metrics

import (
	"ftpsched/internal/model"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ftpsched"

const (
	LabelEndpoint = "endpoint"
	LabelStatus   = "status"
	LabelTrigger  = "trigger"
)

var durationBuckets = []float64{0.5, 1, 5, 15, 30, 60, 300, 900, 1800, 3600}

type Metrics struct {
	registry *prometheus.Registry

	batches          *prometheus.CounterVec
	batchDuration    prometheus.Histogram
	outcomes         *prometheus.CounterVec
	filesTransferred *prometheus.CounterVec
	bytesTransferred *prometheus.CounterVec
	endpointDuration *prometheus.HistogramVec
	schedulerRunning prometheus.Gauge
	lastSuccess      *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Number of sync batches by trigger and result.",
		}, []string{LabelTrigger, LabelStatus}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of one sync batch.",
			Buckets:   durationBuckets,
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_outcomes_total",
			Help:      "Endpoint results by status.",
		}, []string{LabelEndpoint, LabelStatus}),
		filesTransferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_transferred_total",
			Help:      "Files downloaded per endpoint.",
		}, []string{LabelEndpoint}),
		bytesTransferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_transferred_total",
			Help:      "Bytes downloaded per endpoint.",
		}, []string{LabelEndpoint}),
		endpointDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "endpoint_duration_seconds",
			Help:      "Time spent on one endpoint within a batch.",
			Buckets:   durationBuckets,
		}, []string{LabelEndpoint}),
		schedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the daily scheduler is started.",
		}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "endpoint_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync per endpoint.",
		}, []string{LabelEndpoint}),
	}

	m.registry.MustRegister(
		m.batches,
		m.batchDuration,
		m.outcomes,
		m.filesTransferred,
		m.bytesTransferred,
		m.endpointDuration,
		m.schedulerRunning,
		m.lastSuccess,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Observe records one endpoint outcome.
func (m *Metrics) Observe(outcome model.Outcome) {
	addr := outcome.Endpoint.Addr()

	m.outcomes.WithLabelValues(addr, string(outcome.Status)).Inc()
	if outcome.Status == model.OutcomeSkipped {
		return
	}

	m.filesTransferred.WithLabelValues(addr).Add(float64(outcome.Stats.Transferred))
	m.bytesTransferred.WithLabelValues(addr).Add(float64(outcome.Stats.Bytes))
	m.endpointDuration.WithLabelValues(addr).Observe(outcome.FinishedAt.Sub(outcome.StartedAt).Seconds())

	if outcome.Status == model.OutcomeSuccess {
		m.lastSuccess.WithLabelValues(addr).Set(float64(outcome.FinishedAt.Unix()))
	}
}

func (m *Metrics) BatchFinished(trigger string, cancelled bool, took time.Duration) {
	status := "completed"
	if cancelled {
		status = "cancelled"
	}

	m.batches.WithLabelValues(trigger, status).Inc()
	m.batchDuration.Observe(took.Seconds())
}

func (m *Metrics) SetSchedulerRunning(running bool) {
	if running {
		m.schedulerRunning.Set(1)
		return
	}
	m.schedulerRunning.Set(0)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
