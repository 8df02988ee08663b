package actor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestActor(t *testing.T, opts ...func(*Options)) *Ref[*testActor] {
	cfg := Options{
		Context:     t.Context(),
		ControlSize: 10_000,
		MailboxSize: 10_000,
	}
	for _, o := range opts {
		o(&cfg)
	}
	ref := New(&testActor{}, cfg)
	t.Cleanup(ref.Stop)
	return ref
}

func TestActor_ask(t *testing.T) {
	ref := newTestActor(t)

	v, err := Ask(t.Context(), ref, pingH, ping{})
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
}

func TestActor_ask_from_other_goroutines(t *testing.T) {
	ref := newTestActor(t)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Ask(t.Context(), ref, pingH, ping{})
			assert.NoError(t, err)
			assert.Equal(t, uint32(1), v)
		}()
	}
	wg.Wait()

	// read the actor's state on its own goroutine
	var readPings Handler[*testActor, struct{}, int] = func(a *testActor, _ struct{}, _ *testCtx) Future[*testActor, int] {
		return Resolved[*testActor](a.pings)
	}
	pings, err := Ask(t.Context(), ref, readPings, struct{}{})
	require.NoError(t, err)
	require.Equal(t, n, pings)
}

func TestActor_ask_error(t *testing.T) {
	ref := newTestActor(t)
	_, err := Ask(t.Context(), ref, failH, fail{})
	require.Equal(t, errUups, err)
}

func TestActor_multi_tick(t *testing.T) {
	ref := newTestActor(t)
	v, err := Ask(t.Context(), ref, slowH, slow{Ticks: 5, V: 7})
	require.NoError(t, err)
	require.Equal(t, uint32(7), v)
}

func TestActor_completion_order(t *testing.T) {
	ref := newTestActor(t)

	slowRx, err := AskAsync(t.Context(), ref, slowH, slow{Ticks: 50, V: 1})
	require.NoError(t, err)
	fastRx, err := AskAsync(t.Context(), ref, slowH, slow{Ticks: 0, V: 2})
	require.NoError(t, err)

	v, err := fastRx.Recv(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint32(2), v)

	_, ready, _ := slowRx.TryRecv()
	require.False(t, ready)

	v, err = slowRx.Recv(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
}

func TestActor_tell(t *testing.T) {
	ref := newTestActor(t)
	done := make(chan struct{})
	var h Handler[*testActor, ping, struct{}] = func(*testActor, ping, *testCtx) Future[*testActor, struct{}] {
		close(done)
		return Rejected[*testActor, struct{}](errUups)
	}

	require.NoError(t, Tell(t.Context(), ref, h, ping{}))
	select {
	case <-time.After(time.Second):
		t.Fatal("timeout")
	case <-done:
	}
}

func TestActor_ask_self(t *testing.T) {
	ref := newTestActor(t)
	var h Handler[*testActor, echo, uint32] = func(_ *testActor, _ echo, ctx *testCtx) Future[*testActor, uint32] {
		return Then(AskSelf(ctx, pingH, ping{}), func(_ *testActor, ctx *testCtx, n uint32) Future[*testActor, uint32] {
			return AskSelf(ctx, slowH, slow{Ticks: 2, V: n + 1})
		})
	}

	v, err := Ask(t.Context(), ref, h, echo{})
	require.NoError(t, err)
	require.Equal(t, uint32(2), v)
}

func TestActor_stop_drops_pending(t *testing.T) {
	ref := newTestActor(t)

	rx, err := AskAsync(t.Context(), ref, slowH, slow{Ticks: 1_000_000})
	require.NoError(t, err)

	// make sure it was dispatched before stopping
	_, err = Ask(t.Context(), ref, pingH, ping{})
	require.NoError(t, err)

	ref.Stop()
	_, err = rx.Recv(t.Context())
	require.ErrorIs(t, err, ErrSenderDropped)

	_, err = Ask(t.Context(), ref, pingH, ping{})
	require.ErrorIs(t, err, ErrActorStopped)
	require.ErrorIs(t, ref.Pause(), ErrActorStopped)
	require.False(t, ref.TrySend(Remote[*testActor, ping, uint32](pingH, ping{}, nil)))
}

func TestActor_stop_drops_mailbox(t *testing.T) {
	ref := newTestActor(t)
	require.NoError(t, ref.EnableStepMode())

	rxs := make([]*Receiver[uint32], 10)
	for i := range rxs {
		var err error
		rxs[i], err = AskAsync(t.Context(), ref, pingH, ping{})
		require.NoError(t, err)
	}

	ref.Stop()
	for _, rx := range rxs {
		_, err := rx.Recv(t.Context())
		require.ErrorIs(t, err, ErrSenderDropped)
	}
}

func TestActor_stop_while_paused(t *testing.T) {
	ref := newTestActor(t)
	require.NoError(t, ref.Pause())

	stopped := make(chan struct{})
	go func() {
		ref.Stop()
		close(stopped)
	}()

	select {
	case <-time.After(time.Second):
		t.Fatal("timeout")
	case <-stopped:
	}
	require.ErrorIs(t, ref.Resume(), ErrActorStopped)
	require.ErrorIs(t, ref.Step(), ErrActorStopped)
}

func TestActor_context_cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	ref := newTestActor(t, func(o *Options) { o.Context = ctx })

	rx, err := AskAsync(t.Context(), ref, slowH, slow{Ticks: 1_000_000})
	require.NoError(t, err)
	cancel()

	select {
	case <-time.After(time.Second):
		t.Fatal("timeout")
	case <-ref.Done():
	}
	_, err = rx.Recv(t.Context())
	require.ErrorIs(t, err, ErrSenderDropped)
}

func TestActor_step(t *testing.T) {
	ref := newTestActor(t)
	require.NoError(t, ref.EnableStepMode())

	rx, err := AskAsync(t.Context(), ref, pingH, ping{})
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, ready, _ := rx.TryRecv()
	require.False(t, ready)

	// one step dispatches the message and runs one tick
	require.NoError(t, ref.Step())
	v, err := rx.Recv(t.Context())
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)

	require.NoError(t, ref.Resume())
	v, err = Ask(t.Context(), ref, pingH, ping{})
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
}

func TestActor_handler_panic(t *testing.T) {
	panics := make(chan any, 1)
	ref := newTestActor(t, func(o *Options) {
		o.OnPanic = func(recovered any, _ []byte, _ any) { panics <- recovered }
	})

	_, err := Ask(t.Context(), ref, boomH, boom{})
	require.ErrorIs(t, err, ErrSenderDropped)
	require.Equal(t, "boom", <-panics)

	// containment: keep running
	v, err := Ask(t.Context(), ref, pingH, ping{})
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
}

type recordingMetrics struct {
	nopActorMetrics
	mu         sync.Mutex
	dispatched map[Flavor]int
	completed  map[bool]int
	panics     int
}

func (m *recordingMetrics) MessageDispatched(_ string, f Flavor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched[f]++
}

func (m *recordingMetrics) MessageCompleted(_ string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed[success]++
}

func (m *recordingMetrics) MessagePanic(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panics++
}

func TestActor_metrics(t *testing.T) {
	m := &recordingMetrics{dispatched: map[Flavor]int{}, completed: map[bool]int{}}
	ref := newTestActor(t, func(o *Options) { o.Metrics = m })

	var self Handler[*testActor, echo, uint32] = func(_ *testActor, _ echo, ctx *testCtx) Future[*testActor, uint32] {
		return AskSelf(ctx, pingH, ping{})
	}
	_, err := Ask(t.Context(), ref, self, echo{})
	require.NoError(t, err)
	_, err = Ask(t.Context(), ref, failH, fail{})
	require.Error(t, err)
	_, err = Ask(t.Context(), ref, boomH, boom{})
	require.ErrorIs(t, err, ErrSenderDropped)

	ref.Stop()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Equal(t, 3, m.dispatched[FlavorRemote])
	require.Equal(t, 1, m.dispatched[FlavorLocal])
	require.Equal(t, 2, m.completed[true])
	require.Equal(t, 1, m.completed[false])
	require.Equal(t, 1, m.panics)
}
