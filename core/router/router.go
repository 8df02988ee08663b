package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/codewandler/actenv-go/core/actor"
)

var (
	ErrRouterStopped = errors.New("router stopped")
	ErrSpawnRequired = errors.New("spawn func is required")
)

// SpawnFunc starts the actor serving one shard.
type SpawnFunc[A any] func(shard uint32) (*actor.Ref[A], error)

type Options[A any] struct {
	// NumShards defaults to 64.
	NumShards uint32
	// Seed perturbs the key to shard mapping.
	Seed  string
	Spawn SpawnFunc[A]
	Log   *slog.Logger
}

type Router[A any] struct {
	numShards uint32
	seed      string
	spawn     SpawnFunc[A]
	log       *slog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	shards  map[uint32]*actor.Ref[A]
	stopped bool
}

func New[A any](opts Options[A]) (*Router[A], error) {
	if opts.Spawn == nil {
		return nil, ErrSpawnRequired
	}
	if opts.NumShards == 0 {
		opts.NumShards = 64
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Router[A]{
		numShards: opts.NumShards,
		seed:      opts.Seed,
		spawn:     opts.Spawn,
		log:       opts.Log.With(slog.String("component", "router")),
		shards:    make(map[uint32]*actor.Ref[A]),
	}, nil
}

// Shard returns the shard serving key.
func (r *Router[A]) Shard(key string) uint32 {
	return ShardFromString(key, r.numShards, r.seed)
}

// Route returns the actor serving key, starting it if needed.
func (r *Router[A]) Route(key string) (*actor.Ref[A], error) {
	shard := r.Shard(key)

	r.mu.RLock()
	ref, ok := r.shards[shard]
	stopped := r.stopped
	r.mu.RUnlock()
	if stopped {
		return nil, ErrRouterStopped
	}
	if ok {
		return ref, nil
	}

	v, err, _ := r.group.Do(strconv.FormatUint(uint64(shard), 10), func() (any, error) {
		r.mu.RLock()
		ref, ok := r.shards[shard]
		r.mu.RUnlock()
		if ok {
			return ref, nil
		}

		ref, err := r.spawn(shard)
		if err != nil {
			return nil, fmt.Errorf("spawn shard %d: %w", shard, err)
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.stopped {
			go ref.Stop()
			return nil, ErrRouterStopped
		}
		r.shards[shard] = ref
		r.log.Debug("shard started", slog.Uint64("shard", uint64(shard)), slog.String("actor", ref.ID()))
		return ref, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*actor.Ref[A]), nil
}

// Send routes env by key. The envelope is dropped when routing fails.
func (r *Router[A]) Send(ctx context.Context, key string, env actor.Envelope[A]) error {
	ref, err := r.Route(key)
	if err != nil {
		env.Drop()
		return err
	}
	return ref.Send(ctx, env)
}

// Stop stops every started shard and waits for them.
func (r *Router[A]) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	shards := r.shards
	r.shards = make(map[uint32]*actor.Ref[A])
	r.mu.Unlock()

	for _, ref := range shards {
		ref.Stop()
	}
}

// Len returns the number of started shards.
func (r *Router[A]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shards)
}

// Ask is actor.Ask for the shard serving key.
func Ask[A any, M any, T any](ctx context.Context, r *Router[A], key string, h actor.Handler[A, M, T], msg M) (T, error) {
	ref, err := r.Route(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return actor.Ask(ctx, ref, h, msg)
}

// Tell is actor.Tell for the shard serving key.
func Tell[A any, M any, T any](ctx context.Context, r *Router[A], key string, h actor.Handler[A, M, T], msg M) error {
	return r.Send(ctx, key, actor.Remote[A, M, T](h, msg, nil))
}
