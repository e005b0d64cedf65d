package store

import (
	"context"
	"time"

	"ttlstore/internal/events"
)

// RequestSweep asks for an expiration pass to run soon.
//
// Requests are coalesced: nothing happens while a sweep is already pending
// or when the last sweep ran less than MinSweepInterval ago. After Stop,
// requests are ignored.
func (s *Store) RequestSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestSweepLocked(s.now())
}

// requestSweepLocked is the debounced, single-flight scheduling decision.
// It reports whether a new sweep was scheduled.
//
// The debounce floor is evaluated here, at request time. A burst of requests
// inside the floor collapses to at most one sweep.
func (s *Store) requestSweepLocked(now time.Time) bool {
	if s.stopped || s.sweepPending {
		return false
	}
	if s.lastSweepAt.Add(s.minSweep).After(now) {
		return false
	}

	s.sweepPending = true
	s.stats.sweepsQueued++

	// runSweep blocks on s.mu until the caller's critical section ends,
	// so the pass never runs inside the triggering call.
	s.schedule(s.runSweep)

	s.emitLocked(events.QueueRemove, now)
	return true
}

// runSweep executes one scheduled expiration pass.
//
// sweepPending is cleared on every path. A panic from a subscriber is
// recovered and logged; otherwise the store would never sweep again.
func (s *Store) runSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			s.stats.sweepPanics++
			s.logger.Error("store: expiration pass panicked", "panic", r)
		}
		s.sweepPending = false
	}()

	if n := s.removeExpiredLocked(s.now()); n > 0 {
		s.logger.Debug("store: removed expired entries", "count", n)
	}
}

// forcedSweepLoop requests a sweep every interval until ctx is canceled.
//
// Requests still go through the debounce and single-flight checks, so a busy
// store does not get extra passes from this loop.
func (s *Store) forcedSweepLoop(ctx context.Context, interval time.Duration, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RequestSweep()
		}
	}
}

func (s *Store) startLoopLocked(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.loopCancel = cancel
	s.loopDone = done
	go s.forcedSweepLoop(ctx, interval, done)
}

// detachLoopLocked hands the running loop's controls to the caller, who must
// pass them to waitLoop after releasing s.mu.
func (s *Store) detachLoopLocked() (context.CancelFunc, chan struct{}) {
	cancel, done := s.loopCancel, s.loopDone
	s.loopCancel, s.loopDone = nil, nil
	return cancel, done
}

func waitLoop(cancel context.CancelFunc, done chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
