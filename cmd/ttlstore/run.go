package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ttlstore/internal/config"
	"ttlstore/internal/metrics"
	"ttlstore/internal/store"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Serve a store over a line protocol on stdin/stdout",
		Long: `Reads one command per line from stdin and writes one JSON reply per line:

  set <key> <value> [ttl_ms]
  get <key>
  del <key>
  has <key>
  keys
  sweep
  stats
  metrics

With --config, the file is watched and store settings are reloaded on change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s := a.newStore(nil)
			defer s.Stop()
			logEvents(a.logger, s.Emitter())

			if a.configPath != "" {
				go func() {
					err := config.Watch(ctx, a.configPath, func(c *config.Config) {
						s.Reconfigure(c.Store.Options())
					})
					if err != nil {
						a.logger.Error("config watch stopped", "err", err)
					}
				}()
			}

			sc := a.cfg.Store.Options()
			a.logger.Info("ttlstore ready",
				"ttl", sc.TTL,
				"min_sweep", sc.MinSweepInterval,
				"max_sweep", sc.MaxSweepInterval,
			)
			return serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), &session{store: s})
		},
	}
}

// serve feeds lines from in to sess until EOF or ctx is canceled.
func serve(ctx context.Context, in io.Reader, out io.Writer, sess *session) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	enc := json.NewEncoder(out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := enc.Encode(sess.exec(line)); err != nil {
				return fmt.Errorf("write reply: %w", err)
			}
		}
	}
}

// reply is one JSON line written back to the client.
type reply struct {
	OK      bool   `json:"ok"`
	Found   *bool  `json:"found,omitempty"`
	Value   any    `json:"value,omitempty"`
	Error   string `json:"error,omitempty"`
	Metrics string `json:"metrics,omitempty"`
}

type session struct {
	store *store.Store
}

func (s *session) exec(line string) reply {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return fail("empty command")
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "set":
		if len(args) < 2 || len(args) > 3 {
			return fail("usage: set <key> <value> [ttl_ms]")
		}
		var opts []store.SetOption
		if len(args) == 3 {
			n, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil || n < 0 {
				return fail(fmt.Sprintf("invalid ttl_ms %q", args[2]))
			}
			opts = append(opts, store.WithTTL(time.Duration(n)*time.Millisecond))
		}
		s.store.Set(args[0], args[1], opts...)
		return reply{OK: true}

	case "get":
		if len(args) != 1 {
			return fail("usage: get <key>")
		}
		v, ok := s.store.Get(args[0])
		return reply{OK: true, Found: &ok, Value: v}

	case "del", "delete":
		if len(args) != 1 {
			return fail("usage: del <key>")
		}
		s.store.Delete(args[0])
		return reply{OK: true}

	case "has":
		if len(args) != 1 {
			return fail("usage: has <key>")
		}
		ok := s.store.Has(args[0])
		return reply{OK: true, Found: &ok}

	case "keys":
		return reply{OK: true, Value: s.store.Keys()}

	case "sweep":
		s.store.RequestSweep()
		return reply{OK: true}

	case "stats":
		return reply{OK: true, Value: s.store.Stats()}

	case "metrics":
		var buf bytes.Buffer
		if err := metrics.Write(&buf, s.store.Stats()); err != nil {
			return fail(err.Error())
		}
		return reply{OK: true, Metrics: buf.String()}
	}
	return fail(fmt.Sprintf("unknown command %q", cmd))
}

func fail(msg string) reply {
	return reply{OK: false, Error: msg}
}
