package actor

import (
	"errors"
	"testing"
)

type (
	ping struct{}
	echo struct{ V string }
	slow struct {
		Ticks int
		V     uint32
	}
	fail  struct{}
	boom  struct{}
	order struct{ N int }

	testActor struct {
		pings int
		order []int
	}

	testCtx = Context[*testActor]
)

var errUups = errors.New("uups")

var (
	pingH Handler[*testActor, ping, uint32] = func(a *testActor, _ ping, _ *testCtx) Future[*testActor, uint32] {
		a.pings++
		return Resolved[*testActor, uint32](1)
	}
	echoH Handler[*testActor, echo, string] = func(_ *testActor, m echo, _ *testCtx) Future[*testActor, string] {
		return Resolved[*testActor](m.V)
	}
	slowH Handler[*testActor, slow, uint32] = func(_ *testActor, m slow, _ *testCtx) Future[*testActor, uint32] {
		return afterTicks[*testActor](m.Ticks, m.V)
	}
	failH Handler[*testActor, fail, uint32] = func(_ *testActor, _ fail, _ *testCtx) Future[*testActor, uint32] {
		return Rejected[*testActor, uint32](errUups)
	}
	boomH Handler[*testActor, boom, uint32] = func(_ *testActor, _ boom, _ *testCtx) Future[*testActor, uint32] {
		panic("boom")
	}
	orderH Handler[*testActor, order, int] = func(a *testActor, m order, _ *testCtx) Future[*testActor, int] {
		a.order = append(a.order, m.N)
		return Resolved[*testActor](m.N)
	}
)

// afterTicks stays pending for n polls and resolves with v on the next one.
func afterTicks[A any, T any](n int, v T) Future[A, T] {
	polls := 0
	return FutureFunc[A, T](func(A, *Context[A]) (T, bool, error) {
		if polls < n {
			polls++
			var zero T
			return zero, false, nil
		}
		return v, true, nil
	})
}

func newTestContext(t *testing.T) *testCtx {
	c := NewContext[*testActor](Options{
		ID:      "test",
		Context: t.Context(),
	})
	t.Cleanup(c.Close)
	return c
}

// runUntilIdle ticks until nothing is pending and returns the tick count.
func runUntilIdle(t *testing.T, a *testActor, c *testCtx) int {
	t.Helper()
	for i := 1; i <= 1000; i++ {
		if c.Tick(a) == 0 {
			return i
		}
	}
	t.Fatal("scheduler did not become idle")
	return 0
}
