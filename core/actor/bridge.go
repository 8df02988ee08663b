package actor

import "github.com/codewandler/actenv-go/core/metrics"

// bridge drives a handler's future to completion and forwards the outcome
// to the sender taken from the envelope. It is Pending until the future
// resolves, then Resolved for good: the sender is consumed exactly once,
// on that transition, whether the handler succeeded or failed.
type bridge[A any, T any] struct {
	fut     Future[A, T]
	tx      completion[T]
	msgType string
	timer   metrics.Timer
}

func (b *bridge[A, T]) Poll(act A, ctx *Context[A]) Status {
	v, ready, err := b.fut.Poll(act, ctx)
	switch {
	case err != nil:
		b.resolve(ctx, Fail[T](err))
		return StatusFailed
	case !ready:
		return StatusPending
	default:
		b.resolve(ctx, Ok(v))
		return StatusDone
	}
}

func (b *bridge[A, T]) resolve(ctx *Context[A], r Reply[T]) {
	b.timer.ObserveDuration()
	ctx.metrics.MessageCompleted(b.msgType, r.Err == nil)
	if tx := b.take(); tx != nil {
		// best effort: a closed receiver just loses the reply
		_ = tx.complete(r)
	}
}

func (b *bridge[A, T]) take() completion[T] {
	tx := b.tx
	b.tx = nil
	return tx
}

// Drop is called when the bridge is discarded unresolved.
func (b *bridge[A, T]) Drop() {
	if tx := b.take(); tx != nil {
		tx.drop()
	}
}

func (b *bridge[A, T]) MsgType() string { return b.msgType }

var _ Task[struct{}] = (*bridge[struct{}, int])(nil)
