package actor

import "fmt"

// Status is what a Task reports to the scheduler after each poll.
type Status int

const (
	StatusPending Status = iota
	StatusDone
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

type (
	// Future is an asynchronous computation owned by an actor. It is never
	// free-running: it only advances when the actor's scheduler polls it with
	// the live actor and its context.
	//
	// Poll returns ready=false while the computation is pending. A non-nil
	// error resolves it with that failure; ready=true with a nil error
	// resolves it with v. A resolved future must not be polled again.
	Future[A any, T any] interface {
		Poll(act A, ctx *Context[A]) (v T, ready bool, err error)
	}

	// FutureFunc adapts a poll function to Future.
	FutureFunc[A any, T any] func(act A, ctx *Context[A]) (T, bool, error)

	// Task is a unit of work driven by the scheduler until it stops
	// reporting StatusPending.
	Task[A any] interface {
		Poll(act A, ctx *Context[A]) Status
	}

	// TaskFunc adapts a poll function to Task.
	TaskFunc[A any] func(act A, ctx *Context[A]) Status

	// Dropper is implemented by tasks that hold resources which must be
	// released when they are discarded before resolving.
	Dropper interface {
		Drop()
	}
)

func (f FutureFunc[A, T]) Poll(act A, ctx *Context[A]) (T, bool, error) { return f(act, ctx) }
func (f TaskFunc[A]) Poll(act A, ctx *Context[A]) Status                { return f(act, ctx) }

// Resolved returns a future that is ready with v on its first poll.
func Resolved[A any, T any](v T) Future[A, T] {
	return FutureFunc[A, T](func(A, *Context[A]) (T, bool, error) {
		return v, true, nil
	})
}

// Rejected returns a future that fails with err on its first poll.
func Rejected[A any, T any](err error) Future[A, T] {
	return FutureFunc[A, T](func(A, *Context[A]) (T, bool, error) {
		var zero T
		return zero, true, err
	})
}

// Then runs next with the value of f once f resolves successfully and
// continues with the future next returns. A failure of f skips next. A nil
// future from next resolves with the zero U.
func Then[A any, T any, U any](f Future[A, T], next func(act A, ctx *Context[A], v T) Future[A, U]) Future[A, U] {
	var second Future[A, U]
	return FutureFunc[A, U](func(act A, ctx *Context[A]) (U, bool, error) {
		if second == nil {
			v, ready, err := f.Poll(act, ctx)
			if err != nil || !ready {
				var zero U
				return zero, err != nil, err
			}
			second = next(act, ctx, v)
			if second == nil {
				var zero U
				second = Resolved[A, U](zero)
			}
		}
		return second.Poll(act, ctx)
	})
}

// AwaitLocal turns a same-goroutine receiver into a future, so a handler
// can wait on a reply from its own actor without blocking the loop.
func AwaitLocal[A any, T any](rx *LocalReceiver[T]) Future[A, T] {
	return FutureFunc[A, T](func(A, *Context[A]) (T, bool, error) {
		return rx.TryRecv()
	})
}

// Await turns a goroutine-safe receiver into a future. The future is
// re-polled on every scheduler tick until the reply arrives.
func Await[A any, T any](rx *Receiver[T]) Future[A, T] {
	return FutureFunc[A, T](func(A, *Context[A]) (T, bool, error) {
		return rx.TryRecv()
	})
}
