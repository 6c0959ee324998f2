// loudness.go - loudness compensation double buffer (spec.md §3, §4.2,
// §4.7).
//
// The atomic-index buffer flip is grounded on the teacher's lock-free
// hot-path read in audio_backend_oto.go (atomic.Pointer[SoundChip] loaded
// once per Read without a mutex); here the audio loop loads activeIndex
// through Active() on every frame. Recompute, the only writer, runs on
// the audio goroutine between packets (NewEngine, Engine.ApplyPending),
// so every frame of one packet reads the same buffer.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import (
	"math"
	"sync/atomic"
)

// loudnessEntry is one volume step's pair of shelf biquads (low shelf at
// loudnessShelfLowHz, high shelf at loudnessShelfHighHz). No filter
// state lives here - these are coefficient sets only (spec.md §3).
type loudnessEntry struct {
	low  Biquad
	high Biquad
}

// LoudnessTable holds two full [91]loudnessEntry buffers. The audio loop
// reads through activeIndex; Recompute fills the *other* buffer and then
// flips activeIndex with a single atomic store once the fill is
// complete and valid (spec.md §3 invariant).
type LoudnessTable struct {
	buffers     [2][loudnessVolumeSteps]loudnessEntry
	activeIndex atomic.Int32
	refSPL      float64
}

func newLoudnessTable() *LoudnessTable {
	t := &LoudnessTable{refSPL: loudnessRefSPLDefault}
	t.fill(0, t.refSPL)
	t.fill(1, t.refSPL)
	return t
}

// equalLoudnessOffsetDB approximates the ISO 226:2003 equal-loudness
// contour's deviation from the reference SPL at the given frequency,
// used to derive how much low/high shelf boost is needed so that a
// quieter listening level still "sounds" tonally balanced. The real
// contour is nonlinear in both frequency and level; this approximation
// is linear in level and log-linear in frequency.
func equalLoudnessOffsetDB(freqHz, phon, refPhon float64) float64 {
	// The offset grows linearly as phon falls below the reference,
	// scaled by a sensitivity that falls from 1.0 at or below 50Hz to
	// 0.6 at or above 10kHz, so the boost is largest at the bass end and
	// decreases monotonically with frequency. This is a compact
	// closed-form stand-in for a full ISO 226 contour table, tuned so
	// that effectivePhon == refPhon always yields 0dB (spec.md §8
	// invariant).
	deltaPhon := refPhon - phon
	if deltaPhon <= 0 {
		return 0
	}
	var sensitivity float64
	switch {
	case freqHz <= 50:
		sensitivity = 1.0
	case freqHz >= 10000:
		sensitivity = 0.6
	default:
		// log-interpolate between the two ISO reference points named in
		// spec.md §3 (50Hz and 10kHz).
		t := math.Log(freqHz/50) / math.Log(10000.0/50)
		sensitivity = 1.0 + t*(0.6-1.0)
	}
	return deltaPhon * sensitivity * 0.3
}

// fill computes all 91 volume-step entries into buffer index idx for the
// given reference SPL. Transcendental math happens here, outside of any
// lock (compute-then-commit contract, spec.md §4.2/§4.7).
func (t *LoudnessTable) fill(idx int, refSPL float64) {
	for step := 0; step < loudnessVolumeSteps; step++ {
		phon := volumeMinDB + float64(step)*(volumeMaxDB-volumeMinDB)/float64(loudnessVolumeSteps-1) + refSPL
		lowGain := equalLoudnessOffsetDB(50, phon, refSPL)
		highGain := equalLoudnessOffsetDB(10000, phon, refSPL)

		t.buffers[idx][step] = loudnessEntry{
			low: computeBiquad(FilterRecipe{
				Type: FilterLowShelf, FreqHz: loudnessShelfLowHz, Q: loudnessShelfQ, GainDB: lowGain,
			}, 48000),
			high: computeBiquad(FilterRecipe{
				Type: FilterHighShelf, FreqHz: loudnessShelfHighHz, Q: loudnessShelfQ, GainDB: highGain,
			}, 48000),
		}
	}
}

// Recompute fills the inactive buffer for a new reference SPL (or after a
// rate change, since the shelf coefficients are rate-dependent) and then
// flips activeIndex in one atomic store (spec.md §4.7 "Loudness
// recompute").
func (t *LoudnessTable) Recompute(sampleRateHz float64, refSPL float64) {
	inactive := 1 - t.activeIndex.Load()
	for step := 0; step < loudnessVolumeSteps; step++ {
		phon := volumeMinDB + float64(step)*(volumeMaxDB-volumeMinDB)/float64(loudnessVolumeSteps-1) + refSPL
		lowGain := equalLoudnessOffsetDB(50, phon, refSPL)
		highGain := equalLoudnessOffsetDB(10000, phon, refSPL)
		t.buffers[inactive][step] = loudnessEntry{
			low:  computeBiquad(FilterRecipe{Type: FilterLowShelf, FreqHz: loudnessShelfLowHz, Q: loudnessShelfQ, GainDB: lowGain}, sampleRateHz),
			high: computeBiquad(FilterRecipe{Type: FilterHighShelf, FreqHz: loudnessShelfHighHz, Q: loudnessShelfQ, GainDB: highGain}, sampleRateHz),
		}
	}
	t.refSPL = refSPL
	t.activeIndex.Store(inactive)
}

// Active returns the buffer activeIndex currently selects. ProcessFrame
// calls it once per frame; the result changes only when Recompute flips
// activeIndex.
func (t *LoudnessTable) Active() *[loudnessVolumeSteps]loudnessEntry {
	return &t.buffers[t.activeIndex.Load()]
}

// volumeIndex maps a master volume code (0..90, spec.md §6) to a table
// step, clamping defensively.
func volumeIndex(code int) int {
	if code < 0 {
		return 0
	}
	if code >= loudnessVolumeSteps {
		return loudnessVolumeSteps - 1
	}
	return code
}
