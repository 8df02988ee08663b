package actor

import "context"

// Ask sends msg to the actor behind ref, handled by h, and waits for the
// reply. The handler's error is returned verbatim; ErrSenderDropped means
// the actor stopped before answering.
func Ask[A any, M any, T any](ctx context.Context, ref *Ref[A], h Handler[A, M, T], msg M) (T, error) {
	rx, err := AskAsync(ctx, ref, h, msg)
	if err != nil {
		var zero T
		return zero, err
	}
	defer rx.Close()
	return rx.Recv(ctx)
}

// AskAsync sends msg and returns the receiver for its reply. The caller
// should Close the receiver when it stops waiting.
func AskAsync[A any, M any, T any](ctx context.Context, ref *Ref[A], h Handler[A, M, T], msg M) (*Receiver[T], error) {
	tx, rx := NewSync[T]()
	if err := ref.Send(ctx, Remote[A, M, T](h, msg, tx)); err != nil {
		return nil, err
	}
	return rx, nil
}

// Tell sends msg without a sender. The handler's outcome is discarded.
func Tell[A any, M any, T any](ctx context.Context, ref *Ref[A], h Handler[A, M, T], msg M) error {
	return ref.Send(ctx, Remote[A, M, T](h, msg, nil))
}

// AskSelf queues msg for the actor that owns ctx and returns a future of the
// reply. It goes through the same-goroutine channel and never touches the
// mailbox, so a handler can await its own actor without deadlocking.
func AskSelf[A any, M any, T any](ctx *Context[A], h Handler[A, M, T], msg M) Future[A, T] {
	tx, rx := NewLocal[T]()
	ctx.Notify(Local(h, msg, tx))
	return AwaitLocal[A](rx)
}
