package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ttlstore/internal/events"
)

// Defaults applied by DefaultConfig.
const (
	DefaultTTL              = 30 * time.Minute
	DefaultMinSweepInterval = time.Second
)

// Config controls expiry and sweep scheduling.
//
// Start from DefaultConfig; New uses every field as given, except:
//   - TTL <= 0 falls back to DefaultTTL
//   - MinSweepInterval < 0 is treated as 0 (no debounce floor)
//   - MaxSweepInterval <= 0 disables forced sweeps
//   - a nil Emitter gets a private events.Bus, a nil Logger gets slog.Default()
type Config struct {
	// EmitEvents is the master switch for all notifications.
	EmitEvents bool
	// EmitGetEvents additionally publishes a "get" event on every fresh read.
	EmitGetEvents bool

	TTL              time.Duration
	MinSweepInterval time.Duration
	MaxSweepInterval time.Duration

	Emitter events.Emitter
	Logger  *slog.Logger
}

// DefaultConfig returns the documented defaults: events on, get events off,
// 30 minute TTL, 1 second debounce floor and no forced sweeps.
func DefaultConfig() Config {
	return Config{
		EmitEvents:       true,
		TTL:              DefaultTTL,
		MinSweepInterval: DefaultMinSweepInterval,
	}
}

// Entry is a stored value annotated with its absolute expiry.
//
// Entries are replaced wholesale on Set and handed to subscribers by value.
type Entry struct {
	Key       string
	Value     any
	ExpiresAt time.Time
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is a concurrency-safe map of entries with a time-to-live.
//
// One mutex guards the map and every scheduling field, so Set, Get, Delete,
// the sweep decision and the sweep itself each execute as a unit.
// Notifications are emitted while that mutex is held: handlers must not call
// back into the Store on the same goroutine.
//
// Ownership model:
// Store owns the forced-sweep goroutine. Call Stop to end it.
type Store struct {
	mu sync.Mutex

	entries map[string]Entry

	emitter       events.Emitter
	logger        *slog.Logger
	emitEvents    bool
	emitGetEvents bool

	ttl      time.Duration
	minSweep time.Duration
	maxSweep time.Duration

	lastSweepAt  time.Time
	sweepPending bool

	stats counters
	sf    singleflight.Group

	// Forced-sweep goroutine ownership.
	loopCancel context.CancelFunc
	loopDone   chan struct{}
	stopped    bool

	// Injectable for deterministic tests.
	now      func() time.Time
	schedule func(task func())
}

// New constructs a store and starts the forced-sweep loop (if configured).
//
// New never returns a nil Store.
func New(cfg Config) *Store {
	s := &Store{
		entries: make(map[string]Entry),
		emitter: cfg.Emitter,
		logger:  cfg.Logger,
		now:     time.Now,
	}
	s.schedule = spawn
	if s.emitter == nil {
		s.emitter = events.NewBus()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.mu.Lock()
	s.applyLocked(cfg)
	if s.maxSweep > 0 {
		s.startLoopLocked(s.maxSweep)
	}
	s.mu.Unlock()

	return s
}

func spawn(task func()) {
	go task()
}

func (s *Store) applyLocked(cfg Config) {
	s.emitEvents = cfg.EmitEvents
	s.emitGetEvents = cfg.EmitGetEvents

	s.ttl = cfg.TTL
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	s.minSweep = max(cfg.MinSweepInterval, 0)
	s.maxSweep = max(cfg.MaxSweepInterval, 0)
}

// Emitter returns the sink notifications are published to.
func (s *Store) Emitter() events.Emitter {
	return s.emitter
}

// Set inserts or replaces the entry for key.
//
// The entry expires after the store's default TTL unless WithTTL overrides it.
// Set publishes a "set" event carrying the new Entry, then requests a sweep.
func (s *Store) Set(key string, value any, opts ...SetOption) {
	o := setOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	ttl := o.ttl
	if ttl <= 0 {
		ttl = s.ttl
	}

	e := Entry{Key: key, Value: value, ExpiresAt: now.Add(ttl)}
	s.entries[key] = e
	s.stats.sets++

	s.emitLocked(events.Set, e)
	s.requestSweepLocked(now)
}

// Get returns the value for key if it is present and not yet expired.
//
// Expiry is lazy: a stale entry is reported absent but stays in the map
// until a sweep reclaims it. The check and the returned value come from the
// same critical section, so a concurrent sweep can never be half-observed.
func (s *Store) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.stats.gets++

	e, ok := s.entries[key]
	fresh := ok && !e.Expired(now)
	if fresh {
		s.stats.hits++
		if s.emitGetEvents {
			s.emitLocked(events.Get, e)
		}
	} else {
		s.stats.misses++
	}

	s.requestSweepLocked(now)

	if !fresh {
		return nil, false
	}
	return e.Value, true
}

// Delete removes key if present. Deleting a missing key is not an error.
func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	s.stats.deletes++

	s.emitLocked(events.Delete, key)
	s.requestSweepLocked(s.now())
}

// Has reports whether key physically occupies the map, expired or not.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Len returns the number of stored entries.
//
// Note: Len includes entries that have expired but haven't been swept yet.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Keys returns every stored key in sorted order, including unswept stale ones.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.entries))
	for k := range s.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Reconfigure swaps the scalar settings of a running store.
//
// Emitter and Logger are fixed at construction and ignored here.
// Entries already stored keep their expiry. Changing MaxSweepInterval
// restarts the forced-sweep loop unless the store has been stopped.
func (s *Store) Reconfigure(cfg Config) {
	s.mu.Lock()
	prev := s.maxSweep
	s.applyLocked(cfg)

	var cancel context.CancelFunc
	var done chan struct{}
	if !s.stopped && s.maxSweep != prev {
		cancel, done = s.detachLoopLocked()
		if s.maxSweep > 0 {
			s.startLoopLocked(s.maxSweep)
		}
	}
	s.mu.Unlock()

	// Wait outside the lock: the old loop may be blocked in RequestSweep.
	waitLoop(cancel, done)
}

// Stop cancels the forced-sweep loop and waits for it to exit.
//
// Stop is idempotent and does not clear entries, which stay readable and
// writable. No sweep is scheduled after Stop; one that was already scheduled
// is allowed to complete.
func (s *Store) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cancel, done := s.detachLoopLocked()
	s.mu.Unlock()

	waitLoop(cancel, done)
}

func (s *Store) emitLocked(name string, payload any) {
	if !s.emitEvents {
		return
	}
	s.emitter.Emit(name, payload)
}

type setOptions struct {
	ttl time.Duration
}

// SetOption configures a single Set call.
type SetOption func(*setOptions)

// WithTTL overrides the store's default TTL for one entry.
// A non-positive d keeps the default.
func WithTTL(d time.Duration) SetOption {
	return func(o *setOptions) {
		o.ttl = d
	}
}
