package actor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type OnPanic func(recovered any, stack []byte, msg any)

// ---- control messages (internal) ----

type ctrlKind int

const (
	ctrlPause ctrlKind = iota
	ctrlResume
	ctrlEnableStep
	ctrlStep
)

type ctrlMsg struct {
	kind ctrlKind
}

type Options struct {
	// ID names the actor in logs and metrics. Defaults to a nanoid.
	ID          string
	MailboxSize int
	ControlSize int
	// TickInterval is how often pending tasks are polled while no messages
	// arrive. Defaults to 1ms.
	TickInterval time.Duration
	Context      context.Context
	Logger       *slog.Logger
	Metrics      ActorMetrics
	OnPanic      OnPanic
}

func (opt Options) withDefaults() Options {
	if opt.ID == "" {
		opt.ID = gonanoid.Must()
	}
	if opt.MailboxSize == 0 {
		opt.MailboxSize = 1024
	}
	if opt.ControlSize == 0 {
		opt.ControlSize = 16
	}
	if opt.TickInterval <= 0 {
		opt.TickInterval = time.Millisecond
	}
	if opt.Context == nil {
		opt.Context = context.Background()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopActorMetrics()
	}
	if opt.OnPanic == nil {
		log := opt.Logger
		opt.OnPanic = func(recovered any, stack []byte, msg any) {
			log.Error(
				"actor panicked",
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
				slog.String("msg_type", proxyMsgType(msg)),
			)
		}
	}
	return opt
}

// Ref is the handle to a running actor. Its methods are safe for concurrent
// use; the actor value itself is only ever touched by the actor goroutine.
type Ref[A any] struct {
	id      string
	log     *slog.Logger
	metrics ActorMetrics

	mailbox chan Envelope[A]
	control chan ctrlMsg

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

// New starts a goroutine that owns act and processes its mailbox.
func New[A any](act A, opt Options) *Ref[A] {
	opt = opt.withDefaults()

	r := &Ref[A]{
		id:      opt.ID,
		log:     opt.Logger.With(slog.String("actor", opt.ID)),
		metrics: opt.Metrics,
		mailbox: make(chan Envelope[A], opt.MailboxSize),
		control: make(chan ctrlMsg, opt.ControlSize),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	go r.loop(act, newContext[A](opt), opt.TickInterval)
	return r
}

func (r *Ref[A]) ID() string { return r.id }

// Done is closed when the actor stops.
func (r *Ref[A]) Done() <-chan struct{} { return r.done }

// Stop requests shutdown and waits for completion. Idempotent.
func (r *Ref[A]) Stop() {
	r.shutdown()
	<-r.done
}

// Send enqueues an envelope, blocking until it is enqueued, ctx is done or
// the actor stopped. On failure the envelope is dropped.
func (r *Ref[A]) Send(ctx context.Context, e Envelope[A]) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		e.Drop()
		return ErrActorStopped
	}
	select {
	case <-ctx.Done():
		e.Drop()
		return fmt.Errorf("send failed: %w", ctx.Err())
	case <-r.stop:
		e.Drop()
		return ErrActorStopped
	case r.mailbox <- e:
		r.metrics.MailboxDepth(r.id, len(r.mailbox))
		return nil
	}
}

// TrySend attempts a non-blocking enqueue. The envelope is dropped when it
// returns false.
func (r *Ref[A]) TrySend(e Envelope[A]) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		e.Drop()
		return false
	}
	select {
	case <-r.stop:
	case r.mailbox <- e:
		r.metrics.MailboxDepth(r.id, len(r.mailbox))
		return true
	default:
	}
	e.Drop()
	return false
}

// Pause prevents further processing until Resume or Step.
func (r *Ref[A]) Pause() error { return r.sendCtrl(ctrlPause) }

// Resume enables continuous processing (disables step mode).
func (r *Ref[A]) Resume() error { return r.sendCtrl(ctrlResume) }

// EnableStepMode makes the actor process only when Step() is called.
func (r *Ref[A]) EnableStepMode() error { return r.sendCtrl(ctrlEnableStep) }

// Step permits exactly one message or scheduler tick to be processed.
func (r *Ref[A]) Step() error { return r.sendCtrl(ctrlStep) }

// ---- internals ----

func (r *Ref[A]) shutdown() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Ref[A]) sendCtrl(k ctrlKind) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrActorStopped
	}
	select {
	case <-r.stop:
		return ErrActorStopped
	case r.control <- ctrlMsg{kind: k}:
		return nil
	}
}

// runState lives only in the loop goroutine.
type runState struct {
	paused   bool
	stepMode bool
	permit   int // when >0, actor may process one unit; in run mode we auto-renew
}

func (s *runState) apply(c ctrlMsg) {
	switch c.kind {
	case ctrlPause:
		s.paused = true
		s.permit = 0
	case ctrlResume:
		s.paused = false
		s.stepMode = false
		if s.permit == 0 {
			s.permit = 1
		}
	case ctrlEnableStep:
		s.stepMode = true
		s.paused = true
		s.permit = 0
	case ctrlStep:
		s.permit++
	}
}

func (r *Ref[A]) loop(act A, c *Context[A], interval time.Duration) {
	defer close(r.done)
	defer r.teardown(c)

	st := runState{permit: 1}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// helper: drain all pending control msgs (priority)
	drainControl := func() bool {
		for {
			select {
			case <-r.stop:
				return false
			case m := <-r.control:
				st.apply(m)
			default:
				return true
			}
		}
	}

	for {
		if ok := drainControl(); !ok {
			return
		}

		// If no permit, block until a control message (or stop).
		if st.permit <= 0 {
			select {
			case <-r.stop:
				return
			case <-c.Done():
				return
			case m := <-r.control:
				st.apply(m)
			}
			continue
		}

		// Only wake up on the ticker while something waits to be polled.
		var tickC <-chan time.Time
		if c.Pending() > 0 {
			tickC = ticker.C
		}

		var handled bool
		select {
		case <-r.stop:
			return
		case <-c.Done():
			return
		case m := <-r.control:
			// preempt: apply control, do not consume permit
			st.apply(m)
		case e := <-r.mailbox:
			st.permit--
			r.metrics.MailboxDepth(r.id, len(r.mailbox))
			c.deliver(act, e)
			c.Tick(act)
			handled = true
		case <-tickC:
			st.permit--
			c.Tick(act)
			handled = true
		}

		if handled && !st.paused && !st.stepMode {
			st.permit++
		}
	}
}

// teardown refuses new sends, then drops the scheduler's pending work and
// every envelope left in the mailbox.
func (r *Ref[A]) teardown(c *Context[A]) {
	r.shutdown()

	// senders blocked on a full mailbox are released by stop
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	pending := c.Pending()
	c.Close()

	dropped := 0
	for {
		select {
		case e := <-r.mailbox:
			e.Drop()
			dropped++
		default:
			r.metrics.MailboxDepth(r.id, 0)
			r.log.Debug("actor stopped", slog.Int("pending", pending), slog.Int("dropped", dropped))
			return
		}
	}
}
