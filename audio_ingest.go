// audio_ingest.go - incoming USB packet handling (spec.md §3, §4.1).
//
// Grounded on the teacher's SoundChip.HandleRegisterWrite entry path:
// one function validates and timestamps an incoming event before
// anything downstream touches shared state. Here the "event" is a
// variable-length isochronous audio packet instead of a register write.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// AudioPacket is one incoming isochronous PCM packet: interleaved s16
// stereo samples, MinPacketSamples..MaxPacketSamples frames per spec.md
// §2, with the host-clock timestamp it arrived at.
type AudioPacket struct {
	Frames       [][2]int16
	ArrivalMicros int64
}

// IngestStats accumulates the counters spec.md §4.1 requires: gaps,
// under/overruns, and the current drift epoch (incremented on every
// hard-gap reset; a sample-rate change also resets the feedback
// controller but does not advance it).
type IngestStats struct {
	counters  Counters
	lastMicros int64
	haveLast   bool
	driftEpoch uint32
}

// Ingest validates one packet's size and timing, updates IngestStats,
// and reports whether the downstream pipeline should treat this as a
// hard reset point (a gap large enough to invalidate filter/delay state
// and the feedback controller, per spec.md §4.1
// gapResetThresholdMicros).
func (s *IngestStats) Ingest(p AudioPacket) (resetRequired bool) {
	n := len(p.Frames)
	if n < MinPacketSamples || n > MaxPacketSamples {
		s.counters.Overruns++
		if n > MaxPacketSamples {
			p.Frames = p.Frames[:MaxPacketSamples]
		}
	}

	if s.haveLast {
		gap := p.ArrivalMicros - s.lastMicros
		switch {
		case gap > gapResetThresholdMicros:
			s.driftEpoch++
			resetRequired = true
		case gap >= underrunGapMinMicros:
			// 2-50ms gap: an underrun per spec.md §4.1, but not large
			// enough to invalidate filter/delay/feedback state.
			s.counters.Underruns++
		}
	}

	s.lastMicros = p.ArrivalMicros
	s.haveLast = true
	s.counters.PacketsReceived++
	return resetRequired
}

// CountersSnapshot returns the accumulated packet statistics for status
// read-back.
func (s *IngestStats) CountersSnapshot() Counters {
	return s.counters
}

// DriftEpoch reports how many hard resets have occurred since startup.
func (s *IngestStats) DriftEpoch() uint32 {
	return s.driftEpoch
}
