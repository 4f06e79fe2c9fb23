// Package main runs a single ticking executor and fans it out to several
// subscribers that join at different times.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dogmatiq/sharedstream"
	"github.com/dogmatiq/sharedstream/zaplog"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// tick is the event produced by the demo executor.
type tick struct {
	Seq int
	At  time.Time
}

// newContext returns a cancelable context that is canceled when the process
// receives a SIGTERM or SIGINT.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	ticks := flag.Int("ticks", 5, "number of ticks produced by the executor")
	subscribers := flag.Int("subscribers", 3, "number of subscribers")
	flag.Parse()

	ctx, cancel := newContext()
	defer cancel()

	if err := run(ctx, *debug, *ticks, *subscribers); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func run(ctx context.Context, debug bool, ticks, subscribers int) error {
	config := zap.NewProductionConfig()
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	z, err := config.Build()
	if err != nil {
		return fmt.Errorf("unable to build logger: %w", err)
	}
	defer z.Sync() // nolint:errcheck

	m := sharedstream.New[tick](
		sharedstream.WithLogger(zaplog.New(z)),
		sharedstream.WithConcurrencyLimit(1),
		sharedstream.WithCancelTimeout(time.Second),
	)

	executor := func(ctx context.Context, em *sharedstream.Emitter[tick]) ([]tick, error) {
		em.Start()

		t := time.NewTicker(200 * time.Millisecond)
		defer t.Stop()

		for seq := 1; seq <= ticks; seq++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case now := <-t.C:
				em.Data(tick{seq, now})
			}
		}

		// A nil result reports the buffered ticks to every subscriber.
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)

	for i := 0; i < subscribers; i++ {
		name := fmt.Sprintf("subscriber-%d", i+1)
		delay := time.Duration(i) * 300 * time.Millisecond
		log := z.With(zap.String("subscriber", name))

		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			h := m.Subscribe(
				"ticker",
				sharedstream.Subscriber[tick]{
					OnStart: func() {
						log.Info("stream started")
					},
					OnData: func(t tick) {
						log.Info("tick", zap.Int("seq", t.Seq), zap.Time("at", t.At))
					},
					OnError: func(err error) {
						log.Error("stream failed", zap.Error(err))
					},
					OnSuccess: func(events []tick) {
						log.Info("stream succeeded", zap.Int("ticks", len(events)))
					},
					OnComplete: func() {
						log.Info("stream complete")
					},
				},
				executor,
				nil,
			)

			_, err := h.Wait(ctx)
			return err
		})
	}

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return multierr.Append(err, m.Shutdown(shutdownCtx))
}
