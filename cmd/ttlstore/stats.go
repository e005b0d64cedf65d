package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ttlstore/internal/metrics"
	"ttlstore/internal/store"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		keys  int
		ttlMs int64
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Run a short workload and print store metrics in Prometheus text format",
		RunE: func(cmd *cobra.Command, args []string) error {
			if keys < 0 || ttlMs <= 0 {
				return fmt.Errorf("stats: --keys must be >= 0 and --ttl-ms > 0")
			}
			ttl := time.Duration(ttlMs) * time.Millisecond

			s := a.newStore(func(c *store.Config) {
				c.MinSweepInterval = 0
			})
			defer s.Stop()

			for i := 0; i < keys; i++ {
				k := fmt.Sprintf("key-%d", i)
				s.Set(k, i, store.WithTTL(ttl))
				s.Get(k)
			}
			if err := sleep(cmd.Context(), ttl+10*time.Millisecond); err != nil {
				return err
			}
			s.RequestSweep()
			if err := waitIdle(cmd.Context(), s); err != nil {
				return err
			}
			return metrics.Write(cmd.OutOrStdout(), s.Stats())
		},
	}

	cmd.Flags().IntVar(&keys, "keys", 100, "number of keys to write and read")
	cmd.Flags().Int64Var(&ttlMs, "ttl-ms", 50, "TTL of every key in milliseconds")
	return cmd
}

// waitIdle polls until no sweep is pending.
func waitIdle(ctx context.Context, s *store.Store) error {
	for s.Stats().SweepPending {
		if err := sleep(ctx, time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}
