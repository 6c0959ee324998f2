// audio_ingest_test.go - coverage for isochronous packet gap handling
// (spec.md §4.1).

package main

import "testing"

func packet(arrivalMicros int64) AudioPacket {
	return AudioPacket{Frames: make([][2]int16, 48), ArrivalMicros: arrivalMicros}
}

func TestIngestFirstPacketNeverRequiresReset(t *testing.T) {
	var s IngestStats
	if s.Ingest(packet(0)) {
		t.Fatalf("expected the first packet (no prior timestamp) to never request a reset")
	}
	if s.CountersSnapshot().PacketsReceived != 1 {
		t.Fatalf("expected PacketsReceived=1 after one packet")
	}
}

func TestIngestSmallGapCountsUnderrun(t *testing.T) {
	var s IngestStats
	s.Ingest(packet(0))
	if s.Ingest(packet(10_000)) {
		t.Fatalf("a 10ms gap should not require a hard reset")
	}
	if s.CountersSnapshot().Underruns != 1 {
		t.Fatalf("expected one underrun counted for a 2-50ms gap, got %d", s.CountersSnapshot().Underruns)
	}
}

func TestIngestLargeGapRequiresResetAndAdvancesEpoch(t *testing.T) {
	var s IngestStats
	s.Ingest(packet(0))
	if !s.Ingest(packet(60_000)) {
		t.Fatalf("a 60ms gap should require a hard reset")
	}
	if s.DriftEpoch() != 1 {
		t.Fatalf("expected DriftEpoch to advance on a hard reset, got %d", s.DriftEpoch())
	}
}

func TestIngestNormalCadenceCountsNoFaults(t *testing.T) {
	var s IngestStats
	t0 := int64(0)
	for i := 0; i < 100; i++ {
		if s.Ingest(packet(t0)) {
			t.Fatalf("packet %d: unexpected reset at steady 1ms cadence", i)
		}
		t0 += 1000
	}
	c := s.CountersSnapshot()
	if c.Underruns != 0 || c.Overruns != 0 {
		t.Fatalf("expected no faults at steady cadence, got %+v", c)
	}
	if c.PacketsReceived != 100 {
		t.Fatalf("expected PacketsReceived=100, got %d", c.PacketsReceived)
	}
}

func TestIngestOversizePacketCountsOverrun(t *testing.T) {
	var s IngestStats
	p := AudioPacket{Frames: make([][2]int16, MaxPacketSamples+10)}
	s.Ingest(p)
	if s.CountersSnapshot().Overruns != 1 {
		t.Fatalf("expected an oversize packet to count one overrun, got %d", s.CountersSnapshot().Overruns)
	}
}
