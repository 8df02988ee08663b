package actor

// Flavor tells which kind of completion channel an envelope was built with.
type Flavor uint8

const (
	FlavorLocal Flavor = iota + 1
	FlavorRemote
)

func (f Flavor) String() string {
	switch f {
	case FlavorLocal:
		return "local"
	case FlavorRemote:
		return "remote"
	default:
		return "unknown"
	}
}

// completion is the sender a bridge resolves. It is closed over exactly two
// implementations, one per flavor, and a bridge holds at most one.
type completion[T any] interface {
	flavor() Flavor
	complete(r Reply[T]) error
	drop()
}

type localCompletion[T any] struct{ tx *LocalSender[T] }

func (c localCompletion[T]) flavor() Flavor            { return FlavorLocal }
func (c localCompletion[T]) complete(r Reply[T]) error { return c.tx.Send(r) }
func (c localCompletion[T]) drop()                     { c.tx.Close() }

type remoteCompletion[T any] struct{ tx SyncSender[T] }

func (c remoteCompletion[T]) flavor() Flavor            { return FlavorRemote }
func (c remoteCompletion[T]) complete(r Reply[T]) error { return c.tx.Send(r) }
func (c remoteCompletion[T]) drop()                     { c.tx.Close() }
