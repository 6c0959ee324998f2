// pdm_modulator_test.go - statistical (golden-style) coverage for the
// sigma-delta modulator, matching the teacher's audio_golden_test.go
// approach: check average/bounds properties of a bitstream rather than
// exact bit patterns.

package main

import "testing"

// oneBitsRatio returns the fraction of set bits across every word Step
// wrote for one PCM sample (pdmWordsPerSample words x 32 bits each).
func oneBitsRatio(m *PDMModulator, sampleQ28 int32) float64 {
	before := m.writeIndex
	m.Step(sampleQ28)
	ones := 0
	for i := 0; i < pdmWordsPerSample; i++ {
		idx := (before + uint32(i)) & pdmDMARingMask
		word := m.ring[idx]
		for b := 0; b < 32; b++ {
			if word&(1<<uint(b)) != 0 {
				ones++
			}
		}
	}
	return float64(ones) / float64(pdmWordsPerSample*32)
}

func TestPDMModulatorFullScalePositiveBiasesHighBits(t *testing.T) {
	m := newPDMModulator()
	var total float64
	const n = 2000
	for i := 0; i < n; i++ {
		total += oneBitsRatio(m, int32(q28One))
	}
	ratio := total / n
	if ratio < 0.9 {
		t.Fatalf("expected a near-full-scale positive input to bias the bitstream heavily toward 1s, got ratio=%v", ratio)
	}
}

func TestPDMModulatorFullScaleNegativeBiasesLowBits(t *testing.T) {
	m := newPDMModulator()
	var total float64
	const n = 2000
	for i := 0; i < n; i++ {
		total += oneBitsRatio(m, -int32(q28One))
	}
	ratio := total / n
	if ratio > 0.1 {
		t.Fatalf("expected a near-full-scale negative input to bias the bitstream heavily toward 0s, got ratio=%v", ratio)
	}
}

func TestPDMModulatorSilenceSettlesNearHalf(t *testing.T) {
	m := newPDMModulator()
	var total float64
	const n = 2000
	for i := 0; i < n; i++ {
		total += oneBitsRatio(m, 0)
	}
	ratio := total / n
	if ratio < 0.35 || ratio > 0.65 {
		t.Fatalf("expected silence to average near 50%% density, got ratio=%v", ratio)
	}
}

func TestPDMModulatorResetClearsIntegrators(t *testing.T) {
	m := newPDMModulator()
	for i := 0; i < 1000; i++ {
		m.Step(int32(q28One))
	}
	m.Reset()
	if m.integrator1 != 0 || m.integrator2 != 0 || m.lastBit != 0 {
		t.Fatalf("expected Reset to zero all modulator state, got i1=%v i2=%v lastBit=%v", m.integrator1, m.integrator2, m.lastBit)
	}
}

func TestPDMModulatorStepWritesPreFilledRingForward(t *testing.T) {
	m := newPDMModulator()
	if m.ring[0] != 0xAAAAAAAA {
		t.Fatalf("expected the DMA ring to be pre-filled with 0xAAAAAAAA before any Step, got %#x", m.ring[0])
	}
	m.Step(0)
	if m.writeIndex != pdmWordsPerSample {
		t.Fatalf("expected one Step to advance writeIndex by pdmWordsPerSample, got %d", m.writeIndex)
	}
}

func TestPDMModulatorLeadAndAdvanceDMA(t *testing.T) {
	m := newPDMModulator()
	m.Step(0) // writeIndex now pdmWordsPerSample ahead of readIndex=0
	if lead := m.Lead(); lead != pdmWordsPerSample {
		t.Fatalf("expected lead=%d after one Step with no DMA advance, got %d", pdmWordsPerSample, lead)
	}
	m.AdvanceDMA(pdmWordsPerSample)
	if lead := m.Lead(); lead != 0 {
		t.Fatalf("expected lead=0 after the DMA catches up exactly, got %d", lead)
	}
}

func TestPDMModulatorDrainRecoversFromUnderrun(t *testing.T) {
	m := newPDMModulator()
	q := &PDMQueue{}
	// Starve the queue and let DMA run far ahead of an empty producer so
	// Lead() (write-read, masked to the ring) wraps past half the ring and
	// crosses the underrun threshold. The reset puts the write pointer
	// pdmTargetLead words ahead of the read pointer, so the cushion is
	// already healthy and Drain has nothing to synthesize.
	m.AdvanceDMA(pdmDMARingWords/2 - 1)
	if m.Drain(q) {
		t.Fatalf("expected Drain to emit nothing once the underrun reset restores the cushion to pdmTargetLead")
	}
	if lead := m.Lead(); lead != pdmTargetLead {
		t.Fatalf("expected post-recovery lead=%d, got %d", pdmTargetLead, lead)
	}
}

func TestPDMModulatorDrainIdlesWhenCushionHealthy(t *testing.T) {
	m := newPDMModulator()
	q := &PDMQueue{}
	for m.Lead() < pdmTargetLead {
		m.Step(0)
	}
	if m.Drain(q) {
		t.Fatalf("expected Drain to report idle once the cushion is already healthy and the queue is empty")
	}
}

func TestPDMModulatorDrainConsumesQueuedSample(t *testing.T) {
	m := newPDMModulator()
	q := &PDMQueue{}
	q.Push(PDMMessage{Sample: int32(q28One)})
	before := m.writeIndex
	if !m.Drain(q) {
		t.Fatalf("expected Drain to consume the queued sample")
	}
	if m.writeIndex == before {
		t.Fatalf("expected Drain to advance writeIndex via Step when a sample was queued")
	}
}

func TestLFSRProducesVaryingBits(t *testing.T) {
	l := newLFSR(1)
	seen := map[uint32]bool{}
	for i := 0; i < 100; i++ {
		seen[l.next()] = true
	}
	if len(seen) != 2 {
		t.Fatalf("expected LFSR to produce both 0 and 1 bits over 100 draws, saw %d distinct values", len(seen))
	}
}
