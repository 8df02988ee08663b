package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/actenv-go/core/actor"
)

// errRemoteFailed stands in for a handler error without a message.
var errRemoteFailed = errors.New("remote handler failed")

// replyFrame is the wire encoding of an actor.Reply.
type replyFrame struct {
	Data    json.RawMessage `json:"data,omitempty"`
	Failed  bool            `json:"failed,omitempty"`
	Err     string          `json:"err,omitempty"`
	Dropped bool            `json:"dropped,omitempty"`
}

// ReplySender completes an actor envelope by publishing the reply to a NATS
// subject, usually the reply inbox of a request. It is an
// actor.SyncSender: safe for use from any goroutine, used at most once.
type ReplySender[T any] struct {
	nc      *natsgo.Conn
	subject string
	once    sync.Once
}

func NewReplySender[T any](nc *natsgo.Conn, subject string) *ReplySender[T] {
	return &ReplySender[T]{nc: nc, subject: subject}
}

// Send publishes r. NATS cannot tell whether anybody still listens, so a
// gone requester is not reported.
func (s *ReplySender[T]) Send(r actor.Reply[T]) error {
	err := actor.ErrSenderClosed
	s.once.Do(func() { err = s.publish(encodeReply(r)) })
	return err
}

// Close publishes a dropped frame unless a reply was already sent.
func (s *ReplySender[T]) Close() {
	s.once.Do(func() { _ = s.publish(replyFrame{Dropped: true}) })
}

func (s *ReplySender[T]) publish(rf replyFrame) error {
	b, err := json.Marshal(rf)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	if err := s.nc.Publish(s.subject, b); err != nil {
		return fmt.Errorf("nats: publish reply: %w", err)
	}
	return nil
}

func encodeReply[T any](r actor.Reply[T]) replyFrame {
	if r.Err != nil {
		return replyFrame{Failed: true, Err: r.Err.Error()}
	}
	data, err := json.Marshal(r.Value)
	if err != nil {
		return replyFrame{Failed: true, Err: fmt.Sprintf("encode reply value: %s", err)}
	}
	return replyFrame{Data: data}
}

func decodeReply[T any](b []byte) (T, error) {
	var zero T
	var rf replyFrame
	if err := json.Unmarshal(b, &rf); err != nil {
		return zero, fmt.Errorf("decode reply: %w", err)
	}
	switch {
	case rf.Dropped:
		return zero, actor.ErrSenderDropped
	case rf.Failed || rf.Err != "":
		if rf.Err == "" {
			return zero, errRemoteFailed
		}
		return zero, errors.New(rf.Err)
	case len(rf.Data) == 0:
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(rf.Data, &v); err != nil {
		return zero, fmt.Errorf("decode reply value: %w", err)
	}
	return v, nil
}

var _ actor.SyncSender[struct{}] = (*ReplySender[struct{}])(nil)
