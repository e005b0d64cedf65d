package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"ttlstore/internal/config"
	"ttlstore/internal/events"
	"ttlstore/internal/store"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "ttlstore",
		Short:         "In-memory key/value store with time-limited entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to YAML config file (defaults apply when empty)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level from the config file")

	root.AddCommand(newDemoCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newStatsCmd(a))

	return root
}

func (a *app) init() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}

// newStore builds a store from the loaded config with the given overrides.
func (a *app) newStore(override func(*store.Config)) *store.Store {
	sc := a.cfg.Store.Options()
	sc.Emitter = events.NewBus()
	sc.Logger = a.logger
	if override != nil {
		override(&sc)
	}
	return store.New(sc)
}

// logEvents subscribes a debug log line to every store notification.
func logEvents(logger *slog.Logger, em events.Emitter) {
	for _, name := range []string{
		events.Set, events.Get, events.Delete,
		events.QueueRemove, events.Cleanup, events.Removed,
	} {
		name := name // per-iteration copy (go directive is 1.21)
		em.On(name, func(p any) {
			switch v := p.(type) {
			case store.Entry:
				logger.Debug("event", "name", name, "key", v.Key, "expires_at", v.ExpiresAt)
			default:
				logger.Debug("event", "name", name, "payload", v)
			}
		})
	}
}
