// pdm_queue.go - single-producer single-consumer PCM->PDM queue
// (spec.md §3, §4.4, §5).
//
// No third-party concurrency library fits a wait-free, allocation-free
// SPSC ring the way Go channels would (a channel would allocate and can
// block the producer, which is the audio ISR - unacceptable). The
// teacher's own concurrency idiom never reaches for a concurrency
// library either: audio_backend_oto.go's hot path is a bare
// atomic.Pointer load, and SoundChip's filter state is a bare
// sync.RWMutex. This file follows that same "plain sync/atomic" texture
// for the one structure in this repo that is genuinely a from-scratch
// lock-free data structure. See DESIGN.md for the explicit stdlib
// justification this repo's instructions require.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import "sync/atomic"

// PDMMessage is one subwoofer PCM sample handed from Core A to Core B.
// Reset is carried but not currently asserted by the producer; the
// consumer treats a set Reset as "zero the integrators and emit silence
// this sample" (spec.md §3).
type PDMMessage struct {
	Sample int32 // Q28
	Reset  bool
}

// PDMQueue is the bounded SPSC ring described in spec.md §3/§4.4: 256
// entries, with uint32 head/tail wrapped modulo pdmQueueSize on every
// advance.
// Full: next_head == tail. Empty: head == tail. Only the producer core
// writes head; only the consumer core writes tail.
type PDMQueue struct {
	entries [pdmQueueSize]PDMMessage
	head    atomic.Uint32
	tail    atomic.Uint32

	// overrunCount is incremented by the producer when the ring is full
	// and a sample is dropped (spec.md §4.4).
	overrunCount atomic.Uint32
}

// Push is called only from the producer (the audio callback on Core A).
// It writes the payload first, then publishes head with a
// release-ordered store so a reader on the other core never observes a
// head advance before the payload it points to (spec.md §4.4 Ordering).
// Go's atomic package gives sequential consistency for these ops, which
// is at least as strong as the release/acquire pairing the spec asks
// for.
func (q *PDMQueue) Push(msg PDMMessage) bool {
	head := q.head.Load()
	nextHead := (head + 1) % pdmQueueSize
	if nextHead == q.tail.Load() {
		q.overrunCount.Add(1)
		return false
	}
	q.entries[head] = msg
	q.head.Store(nextHead)
	return true
}

// Pop is called only from the consumer (the PDM loop on Core B). It
// returns ok=false when the queue is empty (head == tail).
func (q *PDMQueue) Pop() (PDMMessage, bool) {
	tail := q.tail.Load()
	if tail == q.head.Load() {
		return PDMMessage{}, false
	}
	msg := q.entries[tail]
	q.tail.Store((tail + 1) % pdmQueueSize)
	return msg, true
}

// Len reports an instantaneous (possibly stale) occupancy count, for
// status read-back.
func (q *PDMQueue) Len() int {
	head, tail := int(q.head.Load()), int(q.tail.Load())
	if head >= tail {
		return head - tail
	}
	return pdmQueueSize - tail + head
}

// OverrunCount reports the cumulative number of dropped samples.
func (q *PDMQueue) OverrunCount() uint32 {
	return q.overrunCount.Load()
}
