package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BoardMetrics records change-feed merges and board projections.
type BoardMetrics struct {
	merges    *prometheus.CounterVec
	renders   prometheus.Counter
	rendering *prometheus.HistogramVec
}

// NewBoardMetrics registers the board metrics on the provided registerer.
func NewBoardMetrics(reg prometheus.Registerer) *BoardMetrics {
	if reg == nil {
		return &BoardMetrics{}
	}
	merges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "board_feed_merges",
		Help: "Change-feed events merged into the board, labeled by event type and outcome.",
	}, []string{"event", "outcome"})
	renders := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "board_renders",
		Help: "Board projections pushed to the render sink.",
	})
	rendering := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "board_projection_seconds",
		Help:    "Duration of board projections in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	reg.MustRegister(merges, renders, rendering)
	return &BoardMetrics{
		merges:    merges,
		renders:   renders,
		rendering: rendering,
	}
}

// IncMerge counts a merged feed event with its outcome (applied, noop).
func (b *BoardMetrics) IncMerge(event, outcome string) {
	if b == nil || b.merges == nil {
		return
	}
	b.merges.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

// IncRender counts one projection delivered to the sink.
func (b *BoardMetrics) IncRender() {
	if b == nil || b.renders == nil {
		return
	}
	b.renders.Inc()
}

// ObserveProjection records how long a projection took for the given trigger.
func (b *BoardMetrics) ObserveProjection(trigger string, duration time.Duration) {
	if b == nil || b.rendering == nil {
		return
	}
	b.rendering.WithLabelValues(normalizeLabel(trigger)).Observe(duration.Seconds())
}

// PushMetrics records web push dispatch outcomes.
type PushMetrics struct {
	dispatches *prometheus.CounterVec
	pruned     prometheus.Counter
}

// NewPushMetrics registers push dispatch metrics on the provided registerer.
func NewPushMetrics(reg prometheus.Registerer) *PushMetrics {
	if reg == nil {
		return &PushMetrics{}
	}
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "push_dispatches",
		Help: "Web push deliveries, labeled by outcome.",
	}, []string{"outcome"})
	pruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "push_subscriptions_pruned",
		Help: "Subscriptions removed after the push service reported them gone.",
	})
	reg.MustRegister(dispatches, pruned)
	return &PushMetrics{
		dispatches: dispatches,
		pruned:     pruned,
	}
}

// IncDispatch counts a push delivery attempt with its outcome (sent, failed).
func (p *PushMetrics) IncDispatch(outcome string) {
	if p == nil || p.dispatches == nil {
		return
	}
	p.dispatches.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncPruned counts one subscription removed after a 404/410 response.
func (p *PushMetrics) IncPruned() {
	if p == nil || p.pruned == nil {
		return
	}
	p.pruned.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
