package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actenv-go/core/actor"
	"github.com/codewandler/actenv-go/core/metrics"
)

// actorMetrics implements actor.ActorMetrics using Prometheus.
type actorMetrics struct {
	dispatchedTotal *prometheus.CounterVec
	completedTotal  *prometheus.CounterVec
	messageDuration *prometheus.HistogramVec
	panicTotal      *prometheus.CounterVec
	mailboxDepth    *prometheus.GaugeVec
	tasksPending    *prometheus.GaugeVec
	tickDuration    prometheus.Histogram
}

// NewActorMetrics creates a new Prometheus implementation of ActorMetrics.
func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		dispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actenv_actor_messages_dispatched_total",
			Help: "Total number of envelopes dispatched to a handler",
		}, []string{"message_type", "flavor"}),

		completedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actenv_actor_messages_completed_total",
			Help: "Total number of handler results forwarded by completion bridges",
		}, []string{"message_type", "success"}),

		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actenv_actor_message_duration_seconds",
			Help:    "Time from dispatch to resolution of a handler in seconds",
			Buckets: defaultBuckets,
		}, []string{"message_type"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actenv_actor_panics_total",
			Help: "Total number of handler and task panics",
		}, []string{"message_type"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actenv_actor_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor_id"}),

		tasksPending: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actenv_actor_tasks_pending",
			Help: "Number of unresolved tasks in the actor's scheduler",
		}, []string{"actor_id"}),

		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actenv_actor_tick_duration_seconds",
			Help:    "Scheduler tick duration in seconds",
			Buckets: defaultBuckets,
		}),
	}

	reg.MustRegister(
		m.dispatchedTotal,
		m.completedTotal,
		m.messageDuration,
		m.panicTotal,
		m.mailboxDepth,
		m.tasksPending,
		m.tickDuration,
	)

	return m
}

func (m *actorMetrics) MessageDispatched(msgType string, flavor actor.Flavor) {
	m.dispatchedTotal.WithLabelValues(msgType, flavor.String()).Inc()
}

func (m *actorMetrics) MessageCompleted(msgType string, success bool) {
	m.completedTotal.WithLabelValues(msgType, boolToStr(success)).Inc()
}

func (m *actorMetrics) MessageDuration(msgType string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(msgType))
}

func (m *actorMetrics) MessagePanic(msgType string) {
	m.panicTotal.WithLabelValues(msgType).Inc()
}

func (m *actorMetrics) MailboxDepth(actorID string, depth int) {
	m.mailboxDepth.WithLabelValues(actorID).Set(float64(depth))
}

func (m *actorMetrics) TasksPending(actorID string, count int) {
	m.tasksPending.WithLabelValues(actorID).Set(float64(count))
}

func (m *actorMetrics) TickDuration() metrics.Timer {
	return newTimer(m.tickDuration)
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)
