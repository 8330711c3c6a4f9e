package navstream

import "sync/atomic"

// Stats tracks stream activity.
type Stats struct {
	Blocks          atomic.Int64
	BytesRead       atomic.Int64
	PacketsSent     atomic.Int64
	PacketsRejected atomic.Int64
	events          [numKinds]atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Blocks          int64            `json:"blocks"`
	BytesRead       int64            `json:"bytes_read"`
	PacketsSent     int64            `json:"packets_sent"`
	PacketsRejected int64            `json:"packets_rejected"`
	Events          map[string]int64 `json:"events"`
}

func (s *Stats) recordEvent(k Kind) {
	if k < numKinds {
		s.events[k].Add(1)
	}
}

// Events returns how many events of kind k were seen.
func (s *Stats) Events(k Kind) int64 {
	if k >= numKinds {
		return 0
	}
	return s.events[k].Load()
}

// Snapshot creates a point-in-time copy of the stats.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Blocks:          s.Blocks.Load(),
		BytesRead:       s.BytesRead.Load(),
		PacketsSent:     s.PacketsSent.Load(),
		PacketsRejected: s.PacketsRejected.Load(),
		Events:          make(map[string]int64),
	}
	for k := Kind(0); k < numKinds; k++ {
		if n := s.events[k].Load(); n > 0 {
			snap.Events[k.String()] = n
		}
	}
	return snap
}
