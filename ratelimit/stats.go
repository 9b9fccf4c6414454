package ratelimit

import "sync/atomic"

// Stats holds atomic counters tracking a middleware instance's lifetime
// activity.
type Stats struct {
	total       atomic.Int64
	blocked     atomic.Int64
	whitelisted atomic.Int64
}

// Snapshot is a point-in-time read of Stats.
type Snapshot struct {
	Total       int64
	Blocked     int64
	Whitelisted int64
	Allowed     int64
	ActiveKeys  int64
}

func (s *Stats) recordTotal()       { s.total.Add(1) }
func (s *Stats) recordBlocked()     { s.blocked.Add(1) }
func (s *Stats) recordWhitelisted() { s.whitelisted.Add(1) }

func (s *Stats) snapshot(activeKeys int64) Snapshot {
	total := s.total.Load()
	blocked := s.blocked.Load()
	return Snapshot{
		Total:       total,
		Blocked:     blocked,
		Whitelisted: s.whitelisted.Load(),
		Allowed:     total - blocked,
		ActiveKeys:  activeKeys,
	}
}
