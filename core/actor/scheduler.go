package actor

import (
	"log/slog"
	"runtime/debug"
)

// scheduler is the cooperative run queue of one actor. It is owned by the
// actor goroutine and never locked: every method runs on that goroutine.
type scheduler[A any] struct {
	log     *slog.Logger
	actorID string
	metrics ActorMetrics

	tasks   []Task[A]
	spawned []Task[A] // polled from the next tick on
	closed  bool
}

func (s *scheduler[A]) spawn(t Task[A]) {
	if s.closed {
		dropTask(t)
		return
	}
	s.spawned = append(s.spawned, t)
	s.metrics.TasksPending(s.actorID, s.len())
}

func (s *scheduler[A]) len() int { return len(s.tasks) + len(s.spawned) }

// tick polls every task spawned before it started exactly once and removes
// the ones that resolved. It returns the number of tasks still pending.
func (s *scheduler[A]) tick(act A, ctx *Context[A]) int {
	if s.closed {
		return 0
	}
	defer s.metrics.TickDuration().ObserveDuration()

	s.tasks = append(s.tasks, s.spawned...)
	clear(s.spawned)
	s.spawned = s.spawned[:0]

	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if s.closed {
			break
		}
		if s.poll(act, ctx, t) == StatusPending {
			kept = append(kept, t)
		}
	}
	if s.closed {
		// close dropped everything, including what we were iterating
		return 0
	}
	clear(s.tasks[len(kept):])
	s.tasks = kept

	n := s.len()
	s.metrics.TasksPending(s.actorID, n)
	return n
}

func (s *scheduler[A]) poll(act A, ctx *Context[A], t Task[A]) (st Status) {
	defer func() {
		if r := recover(); r != nil {
			mt := msgTypeOf(t)
			s.metrics.MessagePanic(mt)
			s.log.Error(
				"scheduled task panicked",
				slog.String("msg_type", mt),
				slog.Any("recovered", r),
				slog.String("stack", string(debug.Stack())),
			)
			dropTask(t)
			st = StatusFailed
		}
	}()
	return t.Poll(act, ctx)
}

// close drops every pending task. Tasks spawned afterwards are dropped
// immediately.
func (s *scheduler[A]) close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, t := range s.tasks {
		dropTask(t)
	}
	for _, t := range s.spawned {
		dropTask(t)
	}
	s.tasks, s.spawned = nil, nil
	s.metrics.TasksPending(s.actorID, 0)
}

func dropTask(t any) {
	if d, ok := t.(Dropper); ok {
		d.Drop()
	}
}
