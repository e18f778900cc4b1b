package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Исходы бронирования для метки outcome.
const (
	OutcomeBooked   = "booked"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics: метрики бота. Регистрируются в собственном реестре, чтобы
// тесты могли создавать их многократно.
type Metrics struct {
	registry *prometheus.Registry

	UpdatesProcessed     *prometheus.CounterVec
	UpdateProcessingTime prometheus.Histogram
	UpdatesRateLimited   prometheus.Counter
	PanicsTotal          prometheus.Counter
	ErrorsTotal          prometheus.Counter
	BookingsTotal        *prometheus.CounterVec
	CancellationsTotal   *prometheus.CounterVec
	IgnoredTokensTotal   *prometheus.CounterVec
	BroadcastsTotal      prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		UpdatesProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bbq_bot_updates_processed_total",
			Help: "Total number of processed updates by type",
		}, []string{"type"}),

		UpdateProcessingTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bbq_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		UpdatesRateLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "bbq_bot_updates_rate_limited_total",
			Help: "Updates dropped by the per-user rate limiter",
		}),

		PanicsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "bbq_bot_panics_total",
			Help: "Recovered panics in update handlers",
		}),

		ErrorsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "bbq_bot_errors_total",
			Help: "Total number of storage and transport errors",
		}),

		BookingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bbq_bot_bookings_total",
			Help: "Booking attempts by outcome",
		}, []string{"outcome"}),

		CancellationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bbq_bot_cancellations_total",
			Help: "Cancellation attempts by result",
		}, []string{"removed"}),

		IgnoredTokensTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bbq_bot_ignored_tokens_total",
			Help: "Stale or malformed selection tokens by kind",
		}, []string{"kind"}),

		BroadcastsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "bbq_bot_broadcasts_total",
			Help: "Announcements sent to shared chats",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Booking(outcome string) {
	m.BookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Cancellation(removed bool) {
	label := "false"
	if removed {
		label = "true"
	}
	m.CancellationsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) Ignored(kind string) {
	m.IgnoredTokensTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) Broadcast() {
	m.BroadcastsTotal.Inc()
}

func (m *Metrics) Error() {
	m.ErrorsTotal.Inc()
}
