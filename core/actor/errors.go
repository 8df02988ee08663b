package actor

import "errors"

var (
	// ErrActorStopped is returned when sending to an actor that has shut down.
	ErrActorStopped = errors.New("actor stopped")

	// ErrReceiverClosed is returned by a sender whose receiver was closed.
	// The bridge discards it: a reply nobody listens for is simply lost.
	ErrReceiverClosed = errors.New("receiver closed")

	// ErrSenderClosed is returned when a one-shot sender is used twice.
	ErrSenderClosed = errors.New("sender already used")

	// ErrSenderDropped is observed by a receiver whose sender went away
	// without a reply, e.g. because the actor stopped first.
	ErrSenderDropped = errors.New("sender dropped without reply")
)
