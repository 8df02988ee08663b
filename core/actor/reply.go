package actor

// Reply carries the outcome of one handler invocation: either a value or
// the handler's error, never rewritten on the way to the receiver.
type Reply[T any] struct {
	Value T
	Err   error
}

func Ok[T any](v T) Reply[T] { return Reply[T]{Value: v} }

func Fail[T any](err error) Reply[T] { return Reply[T]{Err: err} }

// Get unpacks the reply.
func (r Reply[T]) Get() (T, error) { return r.Value, r.Err }
