package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DispatchMetrics records the outcome of restock notification runs.
type DispatchMetrics struct {
	duration *prometheus.HistogramVec
	notified *prometheus.CounterVec
	failures *prometheus.CounterVec
	purged   prometheus.Counter
}

// NewDispatchMetrics registers the dispatch metrics on the provided registerer.
func NewDispatchMetrics(reg prometheus.Registerer) *DispatchMetrics {
	if reg == nil {
		return &DispatchMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restock_dispatch_duration_seconds",
		Help:    "Duration of notify-and-purge runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	notified := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_notifications_total",
		Help: "Notifications dispatched per channel.",
	}, []string{"channel"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restock_dispatch_failures_total",
		Help: "Dispatch attempts that failed per channel.",
	}, []string{"channel"})
	purged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restock_subscriptions_purged_total",
		Help: "Subscriptions deleted after successful dispatch.",
	})
	reg.MustRegister(duration, notified, failures, purged)
	return &DispatchMetrics{
		duration: duration,
		notified: notified,
		failures: failures,
		purged:   purged,
	}
}

// ObserveDuration records the duration of a run for the given channel.
func (m *DispatchMetrics) ObserveDuration(channel string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(channel)).Observe(duration.Seconds())
}

// IncNotified increments the dispatched counter for the given channel.
func (m *DispatchMetrics) IncNotified(channel string) {
	if m == nil || m.notified == nil {
		return
	}
	m.notified.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncFailure increments the failure counter for the given channel.
func (m *DispatchMetrics) IncFailure(channel string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(channel)).Inc()
}

// AddPurged records how many subscriptions a run deleted.
func (m *DispatchMetrics) AddPurged(count int) {
	if m == nil || m.purged == nil || count <= 0 {
		return
	}
	m.purged.Add(float64(count))
}

func normalizeLabel(channel string) string {
	if channel == "" {
		return "unknown"
	}
	return channel
}
