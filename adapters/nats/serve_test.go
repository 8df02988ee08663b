package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/actenv-go/core/actor"
)

type (
	deposit struct {
		Amount int `json:"amount"`
	}
	balance  struct{}
	withdraw struct {
		Amount int `json:"amount"`
	}
	hang struct{}

	account struct{ total int }
)

var errInsufficient = errors.New("insufficient funds")

var (
	depositH actor.Handler[*account, deposit, int] = func(a *account, m deposit, _ *actor.Context[*account]) actor.Future[*account, int] {
		a.total += m.Amount
		return actor.Resolved[*account](a.total)
	}
	balanceH actor.Handler[*account, balance, int] = func(a *account, _ balance, _ *actor.Context[*account]) actor.Future[*account, int] {
		return actor.Resolved[*account](a.total)
	}
	withdrawH actor.Handler[*account, withdraw, int] = func(a *account, m withdraw, _ *actor.Context[*account]) actor.Future[*account, int] {
		if m.Amount > a.total {
			return actor.Rejected[*account, int](errInsufficient)
		}
		a.total -= m.Amount
		return actor.Resolved[*account](a.total)
	}
	// hangH never completes.
	hangH actor.Handler[*account, hang, int] = func(*account, hang, *actor.Context[*account]) actor.Future[*account, int] {
		return actor.FutureFunc[*account, int](func(*account, *actor.Context[*account]) (int, bool, error) {
			return 0, false, nil
		})
	}
)

func newAccount(t *testing.T) *actor.Ref[*account] {
	ref := actor.New(&account{}, actor.Options{Context: t.Context()})
	t.Cleanup(ref.Stop)
	return ref
}

func serve[M any](t *testing.T, connect Connector, ref *actor.Ref[*account], subject string, h actor.Handler[*account, M, int]) Subscription {
	t.Helper()
	sub, err := Serve(t.Context(), ServeConfig{Connect: connect, Subject: subject}, ref, h)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })
	return sub
}

func TestNats_Serve(t *testing.T) {
	connect := ReuseConnection(NewTestContainer(t))

	client, release, err := connect()
	require.NoError(t, err)
	t.Cleanup(release)

	t.Run("request reply", func(t *testing.T) {
		ref := newAccount(t)
		serve(t, connect, ref, "acc.1.deposit", depositH)

		v, err := Request[deposit, int](t.Context(), client, "acc.1.deposit", deposit{Amount: 5})
		require.NoError(t, err)
		require.Equal(t, 5, v)

		v, err = Request[deposit, int](t.Context(), client, "acc.1.deposit", deposit{Amount: 3})
		require.NoError(t, err)
		require.Equal(t, 8, v)
	})

	t.Run("handler error", func(t *testing.T) {
		ref := newAccount(t)
		serve(t, connect, ref, "acc.2.withdraw", withdrawH)

		_, err := Request[withdraw, int](t.Context(), client, "acc.2.withdraw", withdraw{Amount: 1})
		require.EqualError(t, err, errInsufficient.Error())
	})

	t.Run("undecodable request", func(t *testing.T) {
		ref := newAccount(t)
		serve(t, connect, ref, "acc.3.deposit", depositH)

		res, err := client.RequestWithContext(t.Context(), "acc.3.deposit", []byte("not json"))
		require.NoError(t, err)
		_, err = decodeReply[int](res.Data)
		require.ErrorContains(t, err, "decode message")
	})

	t.Run("publish is fire and forget", func(t *testing.T) {
		ref := newAccount(t)
		serve(t, connect, ref, "acc.4.deposit", depositH)
		serve(t, connect, ref, "acc.4.balance", balanceH)

		require.NoError(t, Publish(client, "acc.4.deposit", deposit{Amount: 7}))
		require.NoError(t, client.Flush())

		require.Eventually(t, func() bool {
			v, err := Request[balance, int](t.Context(), client, "acc.4.balance", balance{})
			return err == nil && v == 7
		}, 5*time.Second, 20*time.Millisecond)
	})

	t.Run("actor stopped while pending", func(t *testing.T) {
		ref := newAccount(t)
		serve(t, connect, ref, "acc.5.hang", hangH)

		errCh := make(chan error, 1)
		go func() {
			_, err := Request[hang, int](t.Context(), client, "acc.5.hang", hang{})
			errCh <- err
		}()

		// wait until the request is pending inside the actor
		time.Sleep(200 * time.Millisecond)
		ref.Stop()

		select {
		case err := <-errCh:
			require.ErrorIs(t, err, actor.ErrSenderDropped)
		case <-time.After(5 * time.Second):
			t.Fatal("request did not complete")
		}
	})

	t.Run("unsubscribes when context is done", func(t *testing.T) {
		ref := newAccount(t)
		ctx, cancel := context.WithCancel(t.Context())
		_, err := Serve(ctx, ServeConfig{Connect: connect, Subject: "acc.6.balance"}, ref, balanceH)
		require.NoError(t, err)

		_, err = Request[balance, int](t.Context(), client, "acc.6.balance", balance{})
		require.NoError(t, err)

		cancel()
		require.Eventually(t, func() bool {
			reqCtx, reqCancel := context.WithTimeout(t.Context(), 200*time.Millisecond)
			defer reqCancel()
			_, err := Request[balance, int](reqCtx, client, "acc.6.balance", balance{})
			return err != nil
		}, 5*time.Second, 50*time.Millisecond)
	})

	t.Run("subject required", func(t *testing.T) {
		_, err := Serve(t.Context(), ServeConfig{Connect: connect}, newAccount(t), balanceH)
		require.ErrorIs(t, err, ErrSubjectRequired)
	})
}
