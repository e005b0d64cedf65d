package store

import "time"

type counters struct {
	sets, gets, hits, misses, deletes uint64
	sweepsQueued, sweeps, removed     uint64
	sweepPanics                       uint64
}

// Stats is a point-in-time snapshot of store activity.
type Stats struct {
	// Entries counts stored entries, including expired ones not yet swept.
	Entries int

	Sets    uint64
	Gets    uint64
	Hits    uint64
	Misses  uint64
	Deletes uint64

	// SweepsQueued counts accepted sweep requests; Sweeps counts passes run.
	SweepsQueued uint64
	Sweeps       uint64
	Removed      uint64
	SweepPanics  uint64

	LastSweepAt  time.Time
	SweepPending bool
}

// Stats returns a snapshot of the store's counters.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.stats
	return Stats{
		Entries:      len(s.entries),
		Sets:         c.sets,
		Gets:         c.gets,
		Hits:         c.hits,
		Misses:       c.misses,
		Deletes:      c.deletes,
		SweepsQueued: c.sweepsQueued,
		Sweeps:       c.sweeps,
		Removed:      c.removed,
		SweepPanics:  c.sweepPanics,
		LastSweepAt:  s.lastSweepAt,
		SweepPending: s.sweepPending,
	}
}
