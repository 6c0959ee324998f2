// loudness_test.go - coverage for the double-buffered loudness table.

package main

import "testing"

func TestLoudnessTableZeroOffsetAtReferenceVolume(t *testing.T) {
	table := newLoudnessTable()
	table.Recompute(SampleRate48000, 83.0)

	refIdx := volumeIndex(volumeStepCount - 1) // 0dB step == reference SPL
	entry := table.Active()[refIdx]
	if !entry.low.isIdentity() || !entry.high.isIdentity() {
		t.Fatalf("expected identity filters at the reference volume step, got low=%+v high=%+v", entry.low, entry.high)
	}
}

func TestLoudnessTableRecomputeFlipsActiveBuffer(t *testing.T) {
	table := newLoudnessTable()
	table.Recompute(SampleRate48000, 83.0)
	first := table.activeIndex.Load()

	table.Recompute(SampleRate48000, 90.0)
	second := table.activeIndex.Load()

	if first == second {
		t.Fatalf("expected activeIndex to flip between the two buffers, got %d both times", first)
	}
}

func TestEqualLoudnessOffsetMonotonicTowardBass(t *testing.T) {
	// Below the reference phon, low frequencies should need more boost
	// than midrange, reflecting reduced low-frequency sensitivity at
	// lower listening levels.
	lowBoost := equalLoudnessOffsetDB(60, 50, 83)
	midBoost := equalLoudnessOffsetDB(1000, 50, 83)
	if lowBoost <= midBoost {
		t.Fatalf("expected bass boost (%v dB at 60Hz) to exceed midrange boost (%v dB at 1kHz) below reference phon", lowBoost, midBoost)
	}
}

func TestVolumeIndexClampsToTableBounds(t *testing.T) {
	if got := volumeIndex(-5); got != 0 {
		t.Errorf("volumeIndex(-5) = %d, want 0", got)
	}
	if got := volumeIndex(1000); got != volumeStepCount-1 {
		t.Errorf("volumeIndex(1000) = %d, want %d", got, volumeStepCount-1)
	}
}
