package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds all Prometheus collectors for the application. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	EntitiesTotal       *prometheus.CounterVec
	FetchDuration       *prometheus.HistogramVec
	NotificationsTotal  *prometheus.CounterVec
	PassDuration        prometheus.Histogram
	LastPassTimestamp   prometheus.Gauge
	OutboxDepth         prometheus.Gauge
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		EntitiesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_watch_entities_total",
				Help: "Tracked pages processed, by resulting state.",
			},
			[]string{"state"}, // new, unchanged, changed, extraction_failed, persistence_failed, aborted
		),
		FetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "auction_watch_fetch_duration_seconds",
				Help:    "Duration of page fetches.",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"host"},
		),
		NotificationsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auction_watch_notifications_total",
				Help: "Notification delivery attempts, by result.",
			},
			[]string{"status"}, // sent, failed, queued
		),
		PassDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "auction_watch_pass_duration_seconds",
				Help:    "Duration of complete passes.",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
		),
		LastPassTimestamp: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "auction_watch_last_pass_timestamp_seconds",
				Help: "Unix time at which the last pass finished.",
			},
		),
		OutboxDepth: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "auction_watch_outbox_depth",
				Help: "Notifications waiting in the outbox for redelivery.",
			},
		),
	}
}

func (m *Metrics) IncEntity(state string) {
	if m == nil {
		return
	}
	m.EntitiesTotal.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveFetch(host string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(host).Observe(d.Seconds())
}

func (m *Metrics) IncNotification(status string) {
	if m == nil {
		return
	}
	m.NotificationsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObservePass(d time.Duration, finished time.Time) {
	if m == nil {
		return
	}
	m.PassDuration.Observe(d.Seconds())
	m.LastPassTimestamp.Set(float64(finished.Unix()))
}

func (m *Metrics) SetOutboxDepth(n int64) {
	if m == nil {
		return
	}
	m.OutboxDepth.Set(float64(n))
}

func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// Push sends everything gathered by g to a Pushgateway under job.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer) error {
	return push.New(url, job).Gatherer(g).PushContext(ctx)
}
