package store

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ttlstore/internal/events"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// manualScheduler queues sweep tasks until the test runs them.
type manualScheduler struct {
	mu    sync.Mutex
	tasks []func()
}

func (m *manualScheduler) Schedule(task func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, task)
}

func (m *manualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// RunPending runs every queued task on the calling goroutine.
func (m *manualScheduler) RunPending() int {
	m.mu.Lock()
	tasks := m.tasks
	m.tasks = nil
	m.mu.Unlock()

	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestStore returns a store driven by a fake clock and a manual scheduler.
func newTestStore(t *testing.T, cfg Config) (*Store, *fakeClock, *manualScheduler) {
	t.Helper()
	require.Zero(t, cfg.MaxSweepInterval, "forced sweeps need the real clock")

	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	s := New(cfg)
	t.Cleanup(s.Stop)

	clock := newFakeClock()
	sched := &manualScheduler{}
	s.now = clock.Now
	s.schedule = sched.Schedule
	return s, clock, sched
}

// waitIdle blocks until no sweep is pending.
func waitIdle(t *testing.T, s *Store) {
	t.Helper()
	require.Eventually(t, func() bool {
		return !s.Stats().SweepPending
	}, time.Second, time.Millisecond)
}

type recorded struct {
	name    string
	payload any
}

// recorder captures every event published by a store.
type recorder struct {
	mu  sync.Mutex
	evs []recorded
}

func record(s *Store) *recorder {
	r := &recorder{}
	for _, name := range []string{
		events.Set, events.Get, events.Delete,
		events.QueueRemove, events.Cleanup, events.Removed,
	} {
		name := name // per-iteration copy (go directive is 1.21)
		s.Emitter().On(name, func(p any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.evs = append(r.evs, recorded{name: name, payload: p})
		})
	}
	return r
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.evs))
	for _, e := range r.evs {
		out = append(out, e.name)
	}
	return out
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.evs {
		if e.name == name {
			n++
		}
	}
	return n
}

func (r *recorder) payloads(name string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, e := range r.evs {
		if e.name == name {
			out = append(out, e.payload)
		}
	}
	return out
}
