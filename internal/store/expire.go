package store

import (
	"time"

	"ttlstore/internal/events"
)

// removeExpiredLocked is the expiration pass.
//
// It records the sweep time, publishes "cleanup", then removes every entry
// whose expiry is strictly before now and publishes "removed" for each one.
// Victims are collected first and deleted afterwards. Each victim leaves the
// map before its event is published, so a failing subscriber cannot keep it
// alive.
//
// This is O(n) over the whole map. The debounce floor bounds how often it runs.
func (s *Store) removeExpiredLocked(now time.Time) int {
	s.lastSweepAt = now
	s.stats.sweeps++
	s.emitLocked(events.Cleanup, now)

	var victims []Entry
	for _, e := range s.entries {
		if e.ExpiresAt.Before(now) {
			victims = append(victims, e)
		}
	}

	for _, e := range victims {
		delete(s.entries, e.Key)
		s.stats.removed++
		s.emitLocked(events.Removed, e)
	}
	return len(victims)
}
