package actor

import (
	"context"
	"sync"
)

// SyncSender is the goroutine-safe half of a one-shot completion channel.
// Implementations must allow Send and Close to be called from any goroutine
// and deliver at most one reply. *Sender is the in-process implementation;
// transports (see adapters/nats) provide others.
type SyncSender[T any] interface {
	Send(r Reply[T]) error
	// Close releases the sender without a reply. The receiver observes
	// ErrSenderDropped. Close after Send is a no-op.
	Close()
}

// ---- same-goroutine flavor ----

type localSlot[T any] struct {
	reply    Reply[T]
	full     bool
	used     bool
	rxClosed bool
}

// LocalSender is the same-goroutine half of a one-shot completion channel.
// It does no synchronization: it must only be used on the goroutine that
// polls the paired LocalReceiver, which in practice is the actor's own.
type LocalSender[T any] struct{ slot *localSlot[T] }

// LocalReceiver observes the reply sent through its LocalSender.
type LocalReceiver[T any] struct{ slot *localSlot[T] }

// NewLocal creates a same-goroutine one-shot channel.
func NewLocal[T any]() (*LocalSender[T], *LocalReceiver[T]) {
	s := &localSlot[T]{}
	return &LocalSender[T]{slot: s}, &LocalReceiver[T]{slot: s}
}

func (s *LocalSender[T]) Send(r Reply[T]) error {
	if s.slot.used {
		return ErrSenderClosed
	}
	s.slot.used = true
	if s.slot.rxClosed {
		return ErrReceiverClosed
	}
	s.slot.reply, s.slot.full = r, true
	return nil
}

func (s *LocalSender[T]) Close() { s.slot.used = true }

// TryRecv never blocks. It reports ready=false until the sender is used.
// The reply is yielded once; afterwards, or when the sender was closed
// without a reply, it returns ErrSenderDropped.
func (r *LocalReceiver[T]) TryRecv() (T, bool, error) {
	var zero T
	switch {
	case r.slot.full:
		rep := r.slot.reply
		r.slot.reply, r.slot.full = Reply[T]{}, false
		return rep.Value, true, rep.Err
	case r.slot.used:
		return zero, true, ErrSenderDropped
	default:
		return zero, false, nil
	}
}

// Close stops listening. A later Send fails with ErrReceiverClosed and any
// unread reply is discarded.
func (r *LocalReceiver[T]) Close() {
	r.slot.rxClosed = true
	r.slot.reply, r.slot.full = Reply[T]{}, false
}

// ---- goroutine-safe flavor ----

type syncSlot[T any] struct {
	ch     chan Reply[T]
	done   chan struct{}
	sendMu sync.Once
	doneMu sync.Once
}

// Sender is the in-process SyncSender. It never blocks.
type Sender[T any] struct{ slot *syncSlot[T] }

// Receiver waits for the reply of its Sender from any goroutine.
type Receiver[T any] struct{ slot *syncSlot[T] }

// NewSync creates a goroutine-safe one-shot channel.
func NewSync[T any]() (*Sender[T], *Receiver[T]) {
	s := &syncSlot[T]{
		ch:   make(chan Reply[T], 1),
		done: make(chan struct{}),
	}
	return &Sender[T]{slot: s}, &Receiver[T]{slot: s}
}

func (s *Sender[T]) Send(r Reply[T]) error {
	err := ErrSenderClosed
	s.slot.sendMu.Do(func() {
		defer close(s.slot.ch)
		select {
		case <-s.slot.done:
			err = ErrReceiverClosed
		default:
			s.slot.ch <- r
			err = nil
		}
	})
	return err
}

func (s *Sender[T]) Close() {
	s.slot.sendMu.Do(func() { close(s.slot.ch) })
}

// Recv blocks until the reply arrives, the sender is dropped, or ctx ends.
func (r *Receiver[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case rep, ok := <-r.slot.ch:
		if !ok {
			return zero, ErrSenderDropped
		}
		return rep.Value, rep.Err
	}
}

// TryRecv is the non-blocking form of Recv, with the same ready semantics
// as LocalReceiver.TryRecv.
func (r *Receiver[T]) TryRecv() (T, bool, error) {
	var zero T
	select {
	case rep, ok := <-r.slot.ch:
		if !ok {
			return zero, true, ErrSenderDropped
		}
		return rep.Value, true, rep.Err
	default:
		return zero, false, nil
	}
}

// Close tells the sender nobody is listening anymore. Idempotent.
func (r *Receiver[T]) Close() {
	r.slot.doneMu.Do(func() { close(r.slot.done) })
}

var _ SyncSender[struct{}] = (*Sender[struct{}])(nil)
