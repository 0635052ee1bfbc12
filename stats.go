// SPDX-License-Identifier: Apache-2.0

package malloc

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats is a snapshot of a heap's bookkeeping.
type Stats struct {
	Mallocs uint64 // non-zero allocation requests, including failed ones
	Frees   uint64 // blocks returned to the free list
	Reused  uint64 // requests served from the free list
	Bumped  uint64 // requests served by carving new blocks
	Failed  uint64 // requests that returned nil for lack of space or on overflow

	LiveBlocks int
	LiveBytes  uint64 // usable bytes in live blocks
	FreeBlocks int
	FreeBytes  uint64 // usable bytes waiting on the free list

	Carved   uint64 // arena bytes consumed by the bump cursor, headers included
	Peak     uint64
	Capacity uint64
}

// Stats returns the current statistics.
func (h *Heap) Stats() Stats {
	return Stats{
		Mallocs:    h.stats.mallocs,
		Frees:      h.stats.frees,
		Reused:     h.stats.reused,
		Bumped:     h.stats.bumped,
		Failed:     h.stats.failed,
		LiveBlocks: h.used.count,
		LiveBytes:  uint64(h.used.bytes),
		FreeBlocks: h.free.count,
		FreeBytes:  uint64(h.free.bytes),
		Carved:     uint64(h.bump),
		Peak:       uint64(h.peak),
		Capacity:   uint64(h.Cap()),
	}
}

// Utilization returns the share of carved arena bytes held by live payloads (0.0 to 1.0).
func (s Stats) Utilization() float64 {
	if s.Carved == 0 {
		return 0
	}
	return float64(s.LiveBytes) / float64(s.Carved)
}

func (s Stats) String() string {
	return fmt.Sprintf(
		"Heap{live: %d blocks/%s, free: %d blocks/%s, carved: %s of %s, peak: %s, mallocs: %d (reused %d, bumped %d, failed %d), frees: %d}",
		s.LiveBlocks, humanize.IBytes(s.LiveBytes),
		s.FreeBlocks, humanize.IBytes(s.FreeBytes),
		humanize.IBytes(s.Carved), humanize.IBytes(s.Capacity),
		humanize.IBytes(s.Peak),
		s.Mallocs, s.Reused, s.Bumped, s.Failed,
		s.Frees,
	)
}
