package actor

import "github.com/codewandler/actenv-go/core/metrics"

// ActorMetrics receives instrumentation from the envelope, bridge and
// scheduler. Implementations must be safe for concurrent use.
type ActorMetrics interface {
	// Dispatch and completion
	MessageDispatched(msgType string, flavor Flavor)
	MessageCompleted(msgType string, success bool)
	MessageDuration(msgType string) metrics.Timer
	MessagePanic(msgType string)

	// Mailbox
	MailboxDepth(actorID string, depth int)

	// Scheduler
	TasksPending(actorID string, count int)
	TickDuration() metrics.Timer
}

type nopActorMetrics struct{}

func (nopActorMetrics) MessageDispatched(string, Flavor)     {}
func (nopActorMetrics) MessageCompleted(string, bool)        {}
func (nopActorMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) MessagePanic(string)                  {}
func (nopActorMetrics) MailboxDepth(string, int)             {}
func (nopActorMetrics) TasksPending(string, int)             {}
func (nopActorMetrics) TickDuration() metrics.Timer          { return metrics.NopTimer() }

// NopActorMetrics returns a no-op ActorMetrics implementation.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }
