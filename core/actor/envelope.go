package actor

import "sync/atomic"

type (
	// Handler handles messages of type M for actor A. It runs on the actor
	// goroutine and returns the computation producing the reply; returning
	// nil resolves the message immediately with the zero T.
	Handler[A any, M any, T any] func(act A, msg M, ctx *Context[A]) Future[A, T]

	// Proxy is a message for actor A with its type erased. Handle consumes
	// the message on the first call and is a no-op afterwards. Drop discards
	// an unhandled message and releases its sender, so a waiting receiver
	// observes ErrSenderDropped.
	Proxy[A any] interface {
		Handle(act A, ctx *Context[A])
		Drop()
	}
)

// Envelope is the goroutine-safe message handle stored in an actor's
// mailbox. It can only be built by Remote, so every envelope that crosses
// goroutines completes through a SyncSender.
type Envelope[A any] struct {
	proxy Proxy[A]
}

// Remote builds an envelope whose reply, if tx is non-nil, is delivered
// through the goroutine-safe sender. Pass a nil tx for fire-and-forget.
func Remote[A any, M any, T any](h Handler[A, M, T], msg M, tx SyncSender[T]) Envelope[A] {
	return Envelope[A]{proxy: &remoteEnvelope[A, M, T]{h: h, msg: msg, tx: tx}}
}

func (e Envelope[A]) Handle(act A, ctx *Context[A]) {
	if e.proxy != nil {
		e.proxy.Handle(act, ctx)
	}
}

func (e Envelope[A]) Drop() {
	if e.proxy != nil {
		e.proxy.Drop()
	}
}

// MsgType returns the type name of the wrapped message.
func (e Envelope[A]) MsgType() string { return proxyMsgType(e.proxy) }

// LocalEnvelope is an envelope whose reply goes through a same-goroutine
// sender. It never enters a mailbox: the only way to queue it is
// Context.Notify, which is reachable from the actor goroutine alone.
type LocalEnvelope[A any] struct {
	proxy Proxy[A]
}

// Local builds a same-goroutine envelope. Pass a nil tx for fire-and-forget.
func Local[A any, M any, T any](h Handler[A, M, T], msg M, tx *LocalSender[T]) LocalEnvelope[A] {
	return LocalEnvelope[A]{proxy: &localEnvelope[A, M, T]{h: h, msg: msg, tx: tx, full: true}}
}

func (e LocalEnvelope[A]) Handle(act A, ctx *Context[A]) {
	if e.proxy != nil {
		e.proxy.Handle(act, ctx)
	}
}

func (e LocalEnvelope[A]) Drop() {
	if e.proxy != nil {
		e.proxy.Drop()
	}
}

func (e LocalEnvelope[A]) MsgType() string { return proxyMsgType(e.proxy) }

func proxyMsgType(p any) string {
	if mt, ok := p.(msgTyper); ok {
		return mt.MsgType()
	}
	return ""
}

// ---- variants ----

type localEnvelope[A any, M any, T any] struct {
	h    Handler[A, M, T]
	msg  M
	full bool
	tx   *LocalSender[T]
}

func (e *localEnvelope[A, M, T]) take() (M, *LocalSender[T], bool) {
	var zero M
	if !e.full {
		return zero, nil, false
	}
	msg, tx := e.msg, e.tx
	e.msg, e.tx, e.full = zero, nil, false
	return msg, tx, true
}

func (e *localEnvelope[A, M, T]) Handle(act A, ctx *Context[A]) {
	msg, tx, ok := e.take()
	if !ok {
		return
	}
	var c completion[T]
	if tx != nil {
		c = localCompletion[T]{tx: tx}
	}
	dispatch(act, ctx, e.h, msg, c, FlavorLocal)
}

func (e *localEnvelope[A, M, T]) Drop() {
	if _, tx, ok := e.take(); ok && tx != nil {
		tx.Close()
	}
}

func (e *localEnvelope[A, M, T]) MsgType() string { return msgTypeFor[M]() }

type remoteEnvelope[A any, M any, T any] struct {
	h     Handler[A, M, T]
	msg   M
	tx    SyncSender[T]
	taken atomic.Bool
}

func (e *remoteEnvelope[A, M, T]) take() (M, SyncSender[T], bool) {
	var zero M
	if !e.taken.CompareAndSwap(false, true) {
		return zero, nil, false
	}
	msg, tx := e.msg, e.tx
	e.msg, e.tx = zero, nil
	return msg, tx, true
}

func (e *remoteEnvelope[A, M, T]) Handle(act A, ctx *Context[A]) {
	msg, tx, ok := e.take()
	if !ok {
		return
	}
	var c completion[T]
	if tx != nil {
		c = remoteCompletion[T]{tx: tx}
	}
	dispatch(act, ctx, e.h, msg, c, FlavorRemote)
}

func (e *remoteEnvelope[A, M, T]) Drop() {
	if _, tx, ok := e.take(); ok && tx != nil {
		tx.Close()
	}
}

func (e *remoteEnvelope[A, M, T]) MsgType() string { return msgTypeFor[M]() }

// dispatch invokes the handler and hands the resulting computation, together
// with the sender, to the context's scheduler. It does not block.
func dispatch[A any, M any, T any](act A, ctx *Context[A], h Handler[A, M, T], msg M, tx completion[T], flavor Flavor) {
	mt := msgTypeFor[M]()
	ctx.metrics.MessageDispatched(mt, flavor)

	b := &bridge[A, T]{
		msgType: mt,
		tx:      tx,
		timer:   ctx.metrics.MessageDuration(mt),
	}
	defer func() {
		// the sender must not outlive a panicking handler
		if r := recover(); r != nil {
			b.Drop()
			panic(r)
		}
	}()

	b.fut = h(act, msg, ctx)
	if b.fut == nil {
		var zero T
		b.fut = Resolved[A, T](zero)
	}
	ctx.Spawn(b)
}
