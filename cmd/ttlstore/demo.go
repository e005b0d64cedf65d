package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ttlstore/internal/store"
)

func newDemoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through lazy expiry, debounced sweeps and forced sweeps",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Signal-aware context is the root of ownership for the walkthrough.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := a.demo(ctx)
			if ctx.Err() != nil {
				a.logger.Info("received shutdown signal")
				return nil
			}
			if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Done.")
			}
			return err
		},
	}
}

func (a *app) demo(ctx context.Context) error {
	log := a.logger

	// -------------------------------------------------------------------
	// 1) Set / Get / Delete
	// -------------------------------------------------------------------
	s := a.newStore(func(c *store.Config) {
		c.MinSweepInterval = time.Second
		c.MaxSweepInterval = 0
	})
	defer s.Stop()
	logEvents(log, s.Emitter())

	s.Set("a", "A")
	if v, ok := s.Get("a"); ok {
		log.Info("GET a", "value", v)
	}
	s.Delete("a")
	if _, ok := s.Get("a"); !ok {
		log.Info("GET a: missing after delete")
	}

	// -------------------------------------------------------------------
	// 2) Lazy expiry vs eager sweep
	// -------------------------------------------------------------------
	// The entry expires after 100ms but the 1s debounce floor keeps the
	// sweep from running, so it still occupies the map.
	s.Set("short", "lived", store.WithTTL(100*time.Millisecond))
	if err := sleep(ctx, 150*time.Millisecond); err != nil {
		return err
	}
	_, fresh := s.Get("short")
	log.Info("after ttl, inside debounce floor", "get_found", fresh, "in_map", s.Has("short"))

	if err := sleep(ctx, time.Second); err != nil {
		return err
	}
	s.RequestSweep()
	if err := sleep(ctx, 20*time.Millisecond); err != nil {
		return err
	}
	log.Info("after debounce floor and sweep", "in_map", s.Has("short"))

	// -------------------------------------------------------------------
	// 3) Forced sweeps reclaim a quiescent store
	// -------------------------------------------------------------------
	forced := a.newStore(func(c *store.Config) {
		c.MinSweepInterval = 3 * time.Millisecond
		c.MaxSweepInterval = 10 * time.Millisecond
	})
	defer forced.Stop()
	logEvents(log, forced.Emitter())

	forced.Set("idle", "x", store.WithTTL(10*time.Millisecond))
	if err := sleep(ctx, 150*time.Millisecond); err != nil {
		return err
	}
	log.Info("forced sweep without traffic", "keys", forced.Keys(), "stats", forced.Stats())
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
