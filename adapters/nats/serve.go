package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/actenv-go/core/actor"
)

var ErrSubjectRequired = errors.New("subject is required")

type ServeConfig struct {
	Connect Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log     *slog.Logger // Log for diagnostics (optional)
	Subject string       // Subject the handler listens on
	Queue   string       // Queue group, for load-balancing between processes (optional)
}

type Subscription interface {
	Unsubscribe() error
}

// Serve exposes handler h of the actor behind ref on a NATS subject. Every
// request is decoded from JSON into M and delivered as a remote envelope;
// its reply goes back to the request's reply subject. Messages without a
// reply subject are handled fire-and-forget.
func Serve[A any, M any, T any](ctx context.Context, cfg ServeConfig, ref *actor.Ref[A], h actor.Handler[A, M, T]) (Subscription, error) {
	if cfg.Subject == "" {
		return nil, ErrSubjectRequired
	}
	connFn := cfg.Connect
	if connFn == nil {
		connFn = ConnectDefault()
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	log = log.With(
		slog.String("transport", "nats"),
		slog.String("subject", cfg.Subject),
		slog.String("actor", ref.ID()),
	)

	nc, closeNc, err := connFn()
	if err != nil {
		return nil, err
	}

	handle := func(msg *natsgo.Msg) {
		var m M
		if err := json.Unmarshal(msg.Data, &m); err != nil {
			log.Error("failed to decode message", slog.Any("error", err))
			if msg.Reply != "" {
				_ = NewReplySender[T](nc, msg.Reply).Send(actor.Fail[T](fmt.Errorf("decode message: %w", err)))
			}
			return
		}

		var tx actor.SyncSender[T]
		if msg.Reply != "" {
			tx = NewReplySender[T](nc, msg.Reply)
		}
		// a failed send drops the envelope, which answers with a dropped frame
		if err := ref.Send(ctx, actor.Remote(h, m, tx)); err != nil {
			log.Warn("failed to deliver message", slog.Any("error", err))
		}
	}

	var sub *natsgo.Subscription
	if cfg.Queue != "" {
		sub, err = nc.QueueSubscribe(cfg.Subject, cfg.Queue, handle)
	} else {
		sub, err = nc.Subscribe(cfg.Subject, handle)
	}
	if err != nil {
		closeNc()
		return nil, fmt.Errorf("nats: subscribe: %w", err)
	}

	s := &subscription{sub: sub, nc: nc, closeNc: closeNc, done: make(chan struct{})}

	// Handle context cancellation by auto-unsubscribing
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Unsubscribe()
		case <-ref.Done():
			_ = s.Unsubscribe()
		case <-s.done:
		}
	}()

	return s, nil
}

type subscription struct {
	sub     *natsgo.Subscription
	nc      *natsgo.Conn
	closeNc closeFunc
	once    sync.Once
	done    chan struct{}
	err     error
}

// Unsubscribe stops the subscription and releases its connection.
// Idempotent.
func (s *subscription) Unsubscribe() error {
	s.once.Do(func() {
		s.err = s.sub.Unsubscribe()
		// replies of dropped envelopes may still be buffered
		_ = s.nc.Flush()
		s.closeNc()
		close(s.done)
	})
	return s.err
}

// Request sends msg to subject and waits for the reply of a Serve'd handler.
// A handler error comes back as an error with the same message; a reply
// dropped by the actor as actor.ErrSenderDropped.
func Request[M any, T any](ctx context.Context, nc *natsgo.Conn, subject string, msg M) (T, error) {
	var zero T
	data, err := json.Marshal(msg)
	if err != nil {
		return zero, fmt.Errorf("encode request: %w", err)
	}
	res, err := nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return zero, fmt.Errorf("nats: request: %w", err)
	}
	return decodeReply[T](res.Data)
}

// Publish sends msg to subject without waiting for a reply.
func Publish[M any](nc *natsgo.Conn, subject string, msg M) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := nc.Publish(subject, data); err != nil {
		return fmt.Errorf("nats: publish: %w", err)
	}
	return nil
}
