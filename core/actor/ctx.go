package actor

import (
	"context"
	"log/slog"
	"runtime/debug"
)

// Context is handed to handlers and futures of actor A. It belongs to the
// actor goroutine; none of its methods may be called from elsewhere. The
// embedded context.Context is cancelled when the actor stops.
type Context[A any] struct {
	context.Context
	cancel context.CancelFunc

	id      string
	log     *slog.Logger
	metrics ActorMetrics
	onPanic OnPanic

	sched  *scheduler[A]
	local  []LocalEnvelope[A]
	closed bool
}

// NewContext creates a standalone context, for driving an actor's
// scheduler by hand with Tick instead of through New.
func NewContext[A any](opts Options) *Context[A] {
	return newContext[A](opts.withDefaults())
}

func newContext[A any](opts Options) *Context[A] {
	ctx, cancel := context.WithCancel(opts.Context)
	log := opts.Logger.With(slog.String("actor", opts.ID))
	return &Context[A]{
		Context: ctx,
		cancel:  cancel,
		id:      opts.ID,
		log:     log,
		metrics: opts.Metrics,
		onPanic: opts.OnPanic,
		sched: &scheduler[A]{
			log:     log,
			actorID: opts.ID,
			metrics: opts.Metrics,
		},
	}
}

func (c *Context[A]) ID() string        { return c.id }
func (c *Context[A]) Log() *slog.Logger { return c.log }

// Spawn registers a task with the scheduler. It is first polled on the next
// Tick. After Close the task is dropped right away.
func (c *Context[A]) Spawn(t Task[A]) { c.sched.spawn(t) }

// Notify queues a same-goroutine envelope for this actor. Queued envelopes
// are dispatched in order at the start of the next Tick.
func (c *Context[A]) Notify(e LocalEnvelope[A]) {
	if c.closed {
		e.Drop()
		return
	}
	c.local = append(c.local, e)
}

// Pending reports the queued envelopes and unresolved tasks.
func (c *Context[A]) Pending() int { return len(c.local) + c.sched.len() }

// Tick is one scheduler step: dispatch the envelopes queued by Notify, then
// poll every spawned task once. It returns the work still pending.
func (c *Context[A]) Tick(act A) int {
	if c.closed {
		return 0
	}
	queued := c.local
	c.local = nil
	for i, e := range queued {
		if c.closed {
			for _, rest := range queued[i:] {
				rest.Drop()
			}
			return 0
		}
		c.deliver(act, e)
	}
	c.sched.tick(act, c)
	return c.Pending()
}

// Close stops the actor's scheduling: queued envelopes and pending tasks
// are dropped and their receivers observe ErrSenderDropped.
func (c *Context[A]) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	for _, e := range c.local {
		e.Drop()
	}
	c.local = nil
	c.sched.close()
}

// deliver dispatches one envelope with panic containment.
func (c *Context[A]) deliver(act A, p Proxy[A]) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.MessagePanic(proxyMsgType(p))
			c.onPanic(r, debug.Stack(), p)
		}
	}()
	p.Handle(act, c)
}
