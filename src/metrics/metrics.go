package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "gateway_stream"

// Outcome labels for decoded messages.
const (
	OutcomeValue = "value"
	OutcomeRetry = "retry"
	OutcomeEnd   = "end"
	OutcomeError = "error"
)

// Result labels for cancel requests.
const (
	CancelSent        = "sent"
	CancelFailed      = "failed"
	CancelUnsupported = "unsupported"
)

// -----------------------------------------------------------------------------

// Collector groups the subscription engine metrics. A nil *Collector is valid
// and records nothing.
type Collector struct {
	decoded *prometheus.CounterVec
	cancels *prometheus.CounterVec
	open    *prometheus.GaugeVec
}

// NewCollector registers the metrics with reg. A nil reg creates unregistered
// metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		decoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_decoded_total",
			Help:      "Raw messages processed by subscriptions, by family and outcome.",
		}, []string{"family", "outcome"}),
		cancels: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cancel_requests_total",
			Help:      "Cancel requests attempted by subscriptions, by family and result.",
		}, []string{"family", "result"}),
		open: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_subscriptions",
			Help:      "Subscriptions currently holding a response channel.",
		}, []string{"family"}),
	}
}

var (
	defaultOnce      sync.Once
	defaultCollector *Collector
)

// Default returns the collector registered with the default Prometheus registry.
func Default() *Collector {
	defaultOnce.Do(func() {
		defaultCollector = NewCollector(prometheus.DefaultRegisterer)
	})
	return defaultCollector
}

// -----------------------------------------------------------------------------

func (c *Collector) ObserveDecode(family, outcome string) {
	if c == nil {
		return
	}
	c.decoded.WithLabelValues(family, outcome).Inc()
}

func (c *Collector) ObserveCancel(family, result string) {
	if c == nil {
		return
	}
	c.cancels.WithLabelValues(family, result).Inc()
}

func (c *Collector) SubscriptionOpened(family string) {
	if c == nil {
		return
	}
	c.open.WithLabelValues(family).Inc()
}

func (c *Collector) SubscriptionClosed(family string) {
	if c == nil {
		return
	}
	c.open.WithLabelValues(family).Dec()
}
