// Package actor carries messages of arbitrary types to a single-goroutine
// actor and bridges each handler's possibly asynchronous result back to
// whoever sent the message.
//
// An actor is any Go value. It is owned by exactly one goroutine, which
// dispatches envelopes and drives the cooperative scheduler; no locks guard
// actor state.
//
// # Handlers and Futures
//
// A [Handler] handles one message type and returns a [Future]. Futures are
// polled by the actor's scheduler with the live actor, so they may read and
// mutate it between steps:
//
//	var get actor.Handler[*Counter, Get, int] = func(c *Counter, _ Get, _ *actor.Context[*Counter]) actor.Future[*Counter, int] {
//	    return actor.Resolved[*Counter](c.n)
//	}
//
// # Envelopes
//
// Envelopes erase the message type so one mailbox can hold every message
// an actor understands. There are two flavors:
//
//   - [Envelope], built by [Remote], replies through a goroutine-safe
//     [SyncSender]. It is the only kind the mailbox accepts.
//   - [LocalEnvelope], built by [Local], replies through a [LocalSender]
//     that does no synchronization. It can only be queued with
//     [Context.Notify] and therefore never leaves the actor goroutine.
//
// Handling an envelope consumes its message once; later calls do nothing.
// Dropping an unhandled envelope closes its sender.
//
// # Completion
//
// Dispatch wraps the handler's future and the envelope's sender into a
// bridge task. Each [Context.Tick] polls the bridge; once the future
// resolves the reply is sent exactly once, success or failure. A receiver
// that went away simply loses the reply. When the actor stops, pending
// bridges are dropped and receivers observe [ErrSenderDropped].
//
// Completion order follows resolution, not dispatch: a fast handler
// dispatched second may answer before a slow one dispatched first.
//
// # Sending Messages
//
//	n, err := actor.Ask(ctx, ref, get, Get{})
//	err = actor.Tell(ctx, ref, incr, Incr{By: 2})
//
// Inside a handler, [AskSelf] sends to the own actor through the
// same-goroutine channel instead of the mailbox.
//
// # Lifecycle Control
//
// Actors support pause/resume for debugging and testing:
//
//	ref.Pause()       // Stop processing messages
//	ref.Step()        // Process exactly one message or tick
//	ref.Resume()      // Continue normal processing
//	<-ref.Done()      // Wait for actor shutdown
package actor
