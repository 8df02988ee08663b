// Package main drives a sharded set of account actors with concurrent asks
// and reports throughput.
//
// Configuration via environment:
//
//	N             asks per worker (default 10000)
//	C             concurrent workers (default 8)
//	K             distinct account keys (default 256)
//	TICKS         scheduler ticks each deposit stays pending (default 2)
//	METRICS_ADDR  serve Prometheus metrics on this address, e.g. :2121
//	NATS_URL      also serve balances over NATS and query them at the end
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/actenv-go/adapters/nats"
	promadapter "github.com/codewandler/actenv-go/adapters/prometheus"
	"github.com/codewandler/actenv-go/core/actor"
	"github.com/codewandler/actenv-go/core/router"
)

// === Config ===

var (
	logLevel    = slog.LevelInfo
	N           = getEnvInt("N", 10_000)
	C           = getEnvInt("C", 8)
	K           = getEnvInt("K", 256)
	ticks       = getEnvInt("TICKS", 2)
	metricsAddr = getEnv("METRICS_ADDR", "")
	natsURL     = getEnv("NATS_URL", "")
)

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// === Domain ===

type (
	Deposit struct {
		Account string `json:"account"`
		Amount  int    `json:"amount"`
	}
	Balance struct {
		Account string `json:"account"`
	}
	audit struct{ amount int }

	// Account holds the balances of every key routed to its shard.
	Account struct {
		balances map[string]int
		audited  int
	}
)

var (
	// depositH books the amount, waits the configured ticks and confirms
	// through a local audit message before answering.
	depositH actor.Handler[*Account, Deposit, int] = func(a *Account, m Deposit, ctx *actor.Context[*Account]) actor.Future[*Account, int] {
		a.balances[m.Account] += m.Amount
		total := a.balances[m.Account]
		return actor.Then(
			delay[int](ticks, total),
			func(_ *Account, ctx *actor.Context[*Account], total int) actor.Future[*Account, int] {
				return actor.Then(
					actor.AskSelf(ctx, auditH, audit{amount: m.Amount}),
					func(*Account, *actor.Context[*Account], struct{}) actor.Future[*Account, int] {
						return actor.Resolved[*Account](total)
					},
				)
			},
		)
	}
	auditH actor.Handler[*Account, audit, struct{}] = func(a *Account, m audit, _ *actor.Context[*Account]) actor.Future[*Account, struct{}] {
		a.audited += m.amount
		return nil
	}
	balanceH actor.Handler[*Account, Balance, int] = func(a *Account, m Balance, _ *actor.Context[*Account]) actor.Future[*Account, int] {
		return actor.Resolved[*Account](a.balances[m.Account])
	}
)

func delay[T any](n int, v T) actor.Future[*Account, T] {
	polls := 0
	return actor.FutureFunc[*Account, T](func(*Account, *actor.Context[*Account]) (T, bool, error) {
		if polls < n {
			polls++
			var zero T
			return zero, false, nil
		}
		return v, true, nil
	})
}

// === Main ===

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)

	if err := run(ctx, log); err != nil {
		log.Error("loadtest failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	metrics := promadapter.NewActorMetrics(prometheus.DefaultRegisterer)

	if metricsAddr != "" {
		promMux := http.NewServeMux()
		promMux.Handle("/metrics", promhttp.Handler())
		promServer := &http.Server{Addr: metricsAddr, Handler: promMux}
		go func() {
			log.Info("prometheus metrics server starting", slog.String("addr", metricsAddr))
			if err := promServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("prometheus server error", slog.Any("error", err))
			}
		}()
		defer promServer.Shutdown(context.Background())
	}

	var (
		mu      sync.Mutex
		spawned []*actor.Ref[*Account]
	)
	r, err := router.New(router.Options[*Account]{
		Seed: "loadtest",
		Log:  log,
		Spawn: func(shard uint32) (*actor.Ref[*Account], error) {
			ref := actor.New(&Account{balances: map[string]int{}}, actor.Options{
				ID:      fmt.Sprintf("shard-%d", shard),
				Context: ctx,
				Logger:  log,
				Metrics: metrics,
			})
			mu.Lock()
			spawned = append(spawned, ref)
			mu.Unlock()
			return ref, nil
		},
	})
	if err != nil {
		return err
	}
	defer r.Stop()

	fmt.Printf("workers: %d, asks/worker: %d, keys: %d, ticks: %d\n", C, N, K, ticks)

	var done atomic.Int64
	startAt := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	for w := range C {
		g.Go(func() error {
			for i := range N {
				key := fmt.Sprintf("acc-%d", (w*N+i)%K)
				if _, err := router.Ask(gctx, r, key, depositH, Deposit{Account: key, Amount: 1}); err != nil {
					return fmt.Errorf("deposit %s: %w", key, err)
				}
				if n := done.Add(1); n%10_000 == 0 {
					print(".")
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	took := time.Since(startAt)
	runtime.GC()

	println("")
	println("==========================================")
	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("       shards: %d\n", r.Len())
	fmt.Printf("   total asks: %d\n", done.Load())
	fmt.Printf("  avg. asks/s: %d\n", int(float64(done.Load())/took.Seconds()))
	mem := getMemUsage()
	fmt.Printf("          mem: %d / %d MiB (alloc / sys)\n", mem.Alloc/1024/1024, mem.Sys/1024/1024)

	if natsURL != "" {
		mu.Lock()
		refs := append([]*actor.Ref[*Account](nil), spawned...)
		mu.Unlock()
		return queryOverNats(ctx, log, r, refs)
	}
	return nil
}

// queryOverNats serves each shard's balances on its own subject and reads
// back the balance of the first key through a NATS request.
func queryOverNats(ctx context.Context, log *slog.Logger, r *router.Router[*Account], refs []*actor.Ref[*Account]) error {
	connect := nats.ReuseConnection(nats.ConnectURL(natsURL))
	nc, release, err := connect()
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer release()

	for _, ref := range refs {
		sub, err := nats.Serve(ctx, nats.ServeConfig{
			Connect: connect,
			Log:     log,
			Subject: "loadtest.balance." + ref.ID(),
		}, ref, balanceH)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	key := "acc-0"
	ref, err := r.Route(key)
	if err != nil {
		return err
	}
	v, err := nats.Request[Balance, int](ctx, nc, "loadtest.balance."+ref.ID(), Balance{Account: key})
	if err != nil {
		return err
	}
	fmt.Printf("balance of %s over nats: %d\n", key, v)
	return checkConnected(nc)
}

func checkConnected(nc *natsgo.Conn) error {
	if !nc.IsConnected() {
		return fmt.Errorf("nats connection lost: %s", nc.Status())
	}
	return nil
}

// === stats helpers ===

type MemUsage struct {
	Alloc uint64 // bytes allocated and not yet freed (heap)
	Sys   uint64 // total bytes obtained from OS
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{Alloc: m.Alloc, Sys: m.Sys}
}
