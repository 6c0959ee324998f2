// pdm_modulator.go - second-order sigma-delta PDM modulator with TPDF
// dither, a modeled DMA ring, and lead/underrun-recovery tracking
// (spec.md §3, §4.4, §4.5).
//
// Grounded on the teacher's noise-channel LFSR (audio_chip.go's
// noiseSR/NOISE_LFSR_SEED): the dither generator here reuses the same
// LFSR shift-and-tap construction (Fibonacci form), instantiated twice so two
// independent draws can be summed into a triangular (TPDF) distribution
// instead of the teacher's single rectangular-dither noise channel. The
// ring itself has no teacher precedent (no delta-sigma modulator exists
// in the retrieved pack); its shape follows spec.md §3/§4.5's own
// numbered description directly.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// lfsr is a 16-bit Fibonacci linear feedback shift register (taps at
// bits 0, 2, 3 and 5 XORed and shifted in at bit 15), the same
// shift-and-tap idea the teacher's noise channel uses for its
// pseudorandom bitstream.
type lfsr struct {
	state uint16
}

func newLFSR(seed uint16) *lfsr {
	if seed == 0 {
		seed = 0xACE1
	}
	return &lfsr{state: seed}
}

// next advances the register and returns a bit in {0,1}.
func (l *lfsr) next() uint32 {
	bit := (l.state ^ (l.state >> 2) ^ (l.state >> 3) ^ (l.state >> 5)) & 1
	l.state = (l.state >> 1) | (bit << 15)
	return uint32(l.state & 1)
}

// PDMModulator is a second-order sigma-delta modulator: two leaky
// integrators in series feeding a 1-bit quantizer, with the quantization
// error fed back into both integrators (spec.md §4.5). It also owns the
// modeled DMA ring a real PIO/DMA peripheral would drain: Step packs
// pdmWordsPerSample 32-bit words per PCM sample into ring at the current
// write index; AdvanceDMA simulates the hardware consumer advancing
// through it; Drain is the per-iteration run loop of spec.md §4.5 steps
// 1-3 that ties the queue, the lead calculation, and Step together.
type PDMModulator struct {
	integrator1 int64
	integrator2 int64
	lastBit     uint32
	ditherA     *lfsr
	ditherB     *lfsr

	// ring is the PDM DMA ring buffer (spec.md §3): pdmDMARingWords
	// 32-bit words a DMA channel would cycle through forever at the PDM
	// bit clock. writeIndex is Core B's position (this modulator);
	// readIndex simulates the DMA hardware's consumption position,
	// advanced externally by AdvanceDMA since there is no real DMA
	// engine in a host build.
	ring       [pdmDMARingWords]uint32
	writeIndex uint32
	readIndex  uint32
}

func newPDMModulator() *PDMModulator {
	m := &PDMModulator{
		ditherA: newLFSR(0xACE1),
		ditherB: newLFSR(0xBEEF),
	}
	for i := range m.ring {
		// Pre-fill with 0xAAAAAAAA (50% duty) before DMA starts so the
		// pin doesn't sit at DC during boot (spec.md §6).
		m.ring[i] = 0xAAAAAAAA
	}
	return m
}

// ditherTPDF returns a triangular-distributed dither sample in {-2, 0, 2}
// (unscaled integrator units), as the sum of two independent +/-1
// draws (spec.md §9 "true TPDF requires summing two
// independent draws"). Sampled once per 32-bit chunk, not per comparator
// decision (spec.md §9's sample-and-hold caveat).
func (m *PDMModulator) ditherTPDF() int64 {
	a := int64(m.ditherA.next()<<1) - 1
	b := int64(m.ditherB.next()<<1) - 1
	return a + b
}

// Lead reports how far the producer (writeIndex) is ahead of the
// simulated DMA read index, in ring words (spec.md §4.5 step 1).
func (m *PDMModulator) Lead() uint32 {
	return (m.writeIndex - m.readIndex) & pdmDMARingMask
}

// AdvanceDMA simulates the DMA channel consuming words from the ring at
// the PDM bit clock; the host-simulation driver loop (main.go) calls
// this once per tick in proportion to elapsed time and the configured
// sample rate, standing in for the hardware read pointer a real PIO/DMA
// peripheral would advance on its own.
func (m *PDMModulator) AdvanceDMA(words uint32) {
	m.readIndex = (m.readIndex + words) & pdmDMARingMask
}

// Drain implements spec.md §4.5's per-iteration run loop. It observes
// the simulated DMA lead, recovers from a producer underrun if the write
// pointer has fallen behind consumption, then acquires one sample: a
// queued PCM sample if one is waiting, synthesized silence if the
// cushion needs topping up (spec.md §4.4 "Idle behavior"), or nothing if
// the cushion is already healthy. Returns whether a burst was produced.
func (m *PDMModulator) Drain(queue *PDMQueue) bool {
	lead := m.Lead()

	// 2. Underrun recovery: the write pointer fell behind DMA
	// consumption by more than half the ring.
	if lead > pdmDMARingWords/2 {
		m.integrator1, m.integrator2, m.lastBit = 0, 0, 0
		m.writeIndex = (m.readIndex + pdmTargetLead) & pdmDMARingMask
		lead = pdmTargetLead
	}

	// 3. Acquire a sample.
	if msg, ok := queue.Pop(); ok {
		if msg.Reset {
			m.Reset()
			m.Step(0) // "zero the integrators and emit silence this sample"
		} else {
			m.Step(msg.Sample)
		}
		return true
	}
	if lead < pdmTargetLead {
		m.Step(0) // maintain the cushion ahead of the DMA read pointer
		return true
	}
	return false // cushion already healthy; nothing to do this tick
}

// Step consumes one Q28 PCM sample and runs spec.md §4.5 steps 4-7: clip
// to the load-bearing stability limit, center on the unsigned feedback
// midpoint, 256x oversample (8 chunks of 32 bits each, one TPDF dither
// draw per chunk), pack each chunk MSB-first into a ring word, and leak
// the integrators once per sample. The resulting words are written into
// ring at the current write index, which advances by pdmWordsPerSample.
func (m *PDMModulator) Step(sampleQ28 int32) {
	// 4. Limit: clamp to +/-PDM_CLIP_THRESH (~90% of full scale). The
	// 2nd-order loop is unstable above ~95% modulation depth; this is
	// load-bearing for stability (spec.md §4.5, §9 Open Question).
	pcm := clampI32(int32(sampleQ28>>q28ToPDMShift), -pdmClipThreshold, pdmClipThreshold)

	// 5. Offset-center for symmetric feedback around the midpoint.
	target := int64(pcm) + int64(pdmFullScale)

	for c := 0; c < pdmWordsPerSample; c++ {
		dither := m.ditherTPDF()
		var word uint32
		for bit := 0; bit < 32; bit++ {
			fb := int64(pdmFeedbackLow)
			outBit := uint32(0)
			if m.integrator2+dither >= 0 {
				fb = int64(pdmFeedbackHigh)
				outBit = 1
				m.lastBit = 1
			} else {
				m.lastBit = 0
			}
			word = word<<1 | outBit // MSB-first, 32 bits per word (spec.md §6)

			m.integrator1 += target - fb
			m.integrator2 += m.integrator1 - fb
		}
		m.ring[m.writeIndex] = word
		m.writeIndex = (m.writeIndex + 1) & pdmDMARingMask
	}

	// 7. Leakage: once per PCM sample, time constant L=16 (~1.4s at
	// 48kHz), preventing integrator latch-up on sustained DC input.
	m.integrator1 -= m.integrator1 >> pdmLeakageShift
	m.integrator2 -= m.integrator2 >> pdmLeakageShift
}

// Reset zeroes the integrators and last bit, used on a >50ms packet gap
// (spec.md §4.1) and on rate change. The ring and its indices are left
// alone: the DMA peripheral keeps cycling through whatever was last
// written rather than being reinitialized.
func (m *PDMModulator) Reset() {
	m.integrator1 = 0
	m.integrator2 = 0
	m.lastBit = 0
}
