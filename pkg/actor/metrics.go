package actor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors a Node reports through, named
// and constructed the way the teacher's pkg/observability/prometheus
// builds its metrics (promauto.With against an explicit Registerer
// rather than the global one, so multiple Nodes in one test binary
// don't collide).
type Metrics struct {
	MessagesTotal    *prometheus.CounterVec
	MailboxLength    *prometheus.GaugeVec
	OverloadTotal    *prometheus.CounterVec
	EndlessTotal     *prometheus.CounterVec
	CallbackDuration *prometheus.HistogramVec
	ContextsLive     prometheus.Gauge
}

// NewMetrics registers corenet's collectors against registerer. Pass a
// fresh *prometheus.Registry per Node in tests; pass
// prometheus.DefaultRegisterer in production so promhttp.Handler()
// picks it up without extra wiring.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	return &Metrics{
		MessagesTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "corenet_messages_total",
				Help: "Total number of messages dispatched to a context callback.",
			},
			[]string{"module"},
		),
		MailboxLength: promauto.With(registerer).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "corenet_mailbox_length",
				Help: "Pending message count in a context's mailbox, sampled after each batch.",
			},
			[]string{"handle"},
		),
		OverloadTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "corenet_mailbox_overload_total",
				Help: "Total number of overload advisories raised by a mailbox.",
			},
			[]string{"handle"},
		),
		EndlessTotal: promauto.With(registerer).NewCounterVec(
			prometheus.CounterOpts{
				Name: "corenet_endless_total",
				Help: "Total number of times the monitor flagged a context as endless.",
			},
			[]string{"handle"},
		),
		CallbackDuration: promauto.With(registerer).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "corenet_callback_duration_seconds",
				Help:    "Wall-clock duration of a single callback invocation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"module"},
		),
		ContextsLive: promauto.With(registerer).NewGauge(
			prometheus.GaugeOpts{
				Name: "corenet_contexts_live",
				Help: "Number of non-reserved live contexts on this node.",
			},
		),
	}
}
