// delay.go - per-channel delay line (spec.md §3, §4.2 step 10).
//
// Grounded on the teacher's CombFilter (audio_chip.go): a fixed-size
// buffer plus a wrapping position index. Here the buffer size is a
// power of two (delayLineSize) so the read offset is masked instead of
// taken modulo, and there is one shared write index across L/R/Sub per
// spec.md §3 ("One shared monotonic write index").
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// DelayLine is one channel's 8192-sample circular buffer. Multiple
// DelayLines in the same Engine share one write index (see dsp_pipeline.go)
// but each keeps its own delaySamples read offset.
type DelayLine struct {
	buffer       [delayLineSize]float32
	delaySamples int

	// autoAlignSamples is a fixed baseline added on top of any
	// user-configured delay (spec.md §3: "the Sub channel carries an
	// additional automatic alignment offset that compensates for the
	// latency difference between the S/PDIF buffer pipeline and the PDM
	// DMA ring"). Zero for every channel except Sub.
	autoAlignSamples int
}

// Write stores x at writeIndex (masked) and returns the sample delayed by
// delaySamples, i.e. buffer[(writeIndex-delaySamples) & mask]. Per
// spec.md §8: writing x at index i and reading at offset d yields x
// after exactly d samples have been produced.
func (d *DelayLine) Write(writeIndex uint32, x float32) float32 {
	d.buffer[writeIndex&delayLineMask] = x
	readIndex := writeIndex - uint32(d.delaySamples)
	return d.buffer[readIndex&delayLineMask]
}

// SetDelayMillis converts a millisecond delay to a sample count at the
// given rate, clamped to stay inside the ring per spec.md §3 invariant
// (channel_delay_samples[i] <= MAX_DELAY_SAMPLES - 1).
func (d *DelayLine) SetDelayMillis(ms float64, sampleRateHz float64) {
	samples := int(ms*sampleRateHz/1000.0) + d.autoAlignSamples
	if samples < 0 {
		samples = 0
	}
	if samples > delayLineSize-1 {
		samples = delayLineSize - 1
	}
	d.delaySamples = samples
}

// SetDelaySamples sets the read offset directly, clamped to the ring,
// without adding autoAlignSamples (unlike SetDelayMillis).
func (d *DelayLine) SetDelaySamples(samples int) {
	if samples < 0 {
		samples = 0
	}
	if samples > delayLineSize-1 {
		samples = delayLineSize - 1
	}
	d.delaySamples = samples
}
