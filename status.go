// status.go - runtime status aggregation (spec.md §3, §4.9).
//
// Grounded on the teacher's SoundChip read-back pattern: a small
// snapshot struct filled under a brief RLock so the dashboard/devpreview
// consumers never hold the audio loop's lock for longer than a copy.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import (
	"sync"
	"sync/atomic"
)

// CoreLoad is one core's fraction of its packet-period budget spent
// actually computing, sampled once per packet (spec.md §4.9).
type CoreLoad struct {
	FractionBusy float64
}

// Status is the full read-back snapshot exposed to the dashboard and
// dev-preview backends. It is rebuilt fresh on every Snapshot call
// rather than held live, so a slow consumer can never block the
// producer.
type Status struct {
	Peaks        PeakMeters
	Counters     Counters
	CoreALoad    CoreLoad
	CoreBLoad    CoreLoad
	SampleRateHz float64
	NumericMode  string
	Feedback     struct {
		Value       uint32
		Stabilizing bool
	}
	PDMQueueLen   int
	SPDIFReady    int
	CrossfeedName string
}

// StatusBoard is the shared, mutex-guarded holder both cores publish
// into and both dashboard backends read from. One mutex covers the
// packet-cadence snapshot (Core B's load is kept apart, see coreBLoad)
// since status updates happen at most once per packet,
// far below any contention threshold that would justify finer-grained
// atomics (unlike pdm_queue.go's head/tail, which are on the per-sample
// path).
type StatusBoard struct {
	mu   sync.RWMutex
	last Status

	// coreBLoad is published independently of last: Core A's Publish
	// replaces the whole snapshot once per packet, while Core B publishes
	// its own per-tick load on a different cadence from a different
	// goroutine (spec.md §4.2 "the PDM loop does the same on Core B").
	// Keeping it out of the mutex-guarded snapshot means neither core's
	// publish can clobber the other's most recent value.
	coreBLoad atomic.Value // CoreLoad
}

func newStatusBoard() *StatusBoard {
	b := &StatusBoard{}
	b.coreBLoad.Store(CoreLoad{})
	return b
}

// Publish replaces the current snapshot. Called once per packet by the
// audio loop, as the last step of Engine.ProcessPacket.
func (s *StatusBoard) Publish(st Status) {
	s.mu.Lock()
	s.last = st
	s.mu.Unlock()
}

// PublishCoreBLoad records Core B's most recent per-tick CPU load,
// independently of the packet-cadence snapshot Publish replaces.
func (s *StatusBoard) PublishCoreBLoad(load CoreLoad) {
	s.coreBLoad.Store(load)
}

// Snapshot returns a copy of the most recently published status, with
// Core B's independently-published load folded in, safe to call from any
// goroutine at any rate.
func (s *StatusBoard) Snapshot() Status {
	s.mu.RLock()
	st := s.last
	s.mu.RUnlock()
	st.CoreBLoad = s.coreBLoad.Load().(CoreLoad)
	return st
}
