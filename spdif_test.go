// spdif_test.go - coverage for the biphase-mark LUT and subframe pool.

package main

import "testing"

func TestBiphaseLUTEveryCellStartsWithTransition(t *testing.T) {
	for b := 0; b < 256; b++ {
		cells := biphaseCellsForSample(uint8(b))
		for bitPos := 1; bitPos < 8; bitPos++ {
			start := cells[bitPos*2]
			prevEnd := cells[bitPos*2-1]
			if start == prevEnd {
				t.Fatalf("byte %d bit %d: expected a transition at every cell start, got level %d both before and after", b, bitPos, start)
			}
		}
	}
}

func TestBiphaseLUTOneBitAddsMidCellTransition(t *testing.T) {
	cells := biphaseCellsForSample(0x01) // bit 0 set
	start := cells[0]
	mid := cells[1]
	if start == mid {
		t.Fatalf("expected a 1-bit to add a mid-cell transition, got same level %d at start and mid", start)
	}
}

func TestBiphaseLUTZeroBitNoMidCellTransition(t *testing.T) {
	cells := biphaseCellsForSample(0x00)
	start := cells[0]
	mid := cells[1]
	if start != mid {
		t.Fatalf("expected a 0-bit to have no mid-cell transition, got levels %d then %d", start, mid)
	}
}

func TestEncodeSubframeParityIsEven(t *testing.T) {
	sf := EncodeSubframe(preambleB, 0b10110)
	ones := 0
	for v := uint32(sf.Sample); v != 0; v &= v - 1 {
		ones++
	}
	total := ones
	if sf.Parity == 1 {
		total++
	}
	if total%2 != 0 {
		t.Fatalf("expected sample-bits + parity to have even total parity, got %d ones + parity=%d", ones, sf.Parity)
	}
}

func TestSPDIFBlockPoolCommitAndDrain(t *testing.T) {
	pool := newSPDIFBlockPool()
	for pos := 0; pos < spdifSamplesPerBlock; pos++ {
		pool.PushFrame(pos, int32(pos), int32(-pos))
	}
	pool.CommitBuffer()

	if pool.ReadyCount() != 1 {
		t.Fatalf("expected exactly one ready buffer after one commit, got %d", pool.ReadyCount())
	}

	buf, ok := pool.TakeBuffer()
	if !ok {
		t.Fatalf("expected TakeBuffer to succeed after a commit")
	}
	if buf[0].Preamble != preambleB {
		t.Fatalf("expected the first frame's left subframe to carry preambleB, got %v", buf[0].Preamble)
	}
	if buf[1].Preamble != preambleW {
		t.Fatalf("expected every right subframe to carry preambleW, got %v", buf[1].Preamble)
	}

	if _, ok := pool.TakeBuffer(); ok {
		t.Fatalf("expected no second buffer ready after draining the only committed one")
	}
}

func TestSPDIFClockDividerScalesWithRate(t *testing.T) {
	div44 := spdifClockDivider(systemClockHz, SampleRate44100)
	div96 := spdifClockDivider(systemClockHz, SampleRate96000)
	if div96 >= div44 {
		t.Fatalf("expected a higher sample rate to need a smaller clock divider, got div44=%v div96=%v", div44, div96)
	}
}
