// crossfeed.go - headphone crossfeed stage (spec.md §3, §4.2).
//
// The lowpass+allpass pair is grounded directly on the teacher's reverb
// diffusion stages in audio_chip.go (applyReverb's comb/allpass delay
// lines): same single-pole-plus-allpass shape, repurposed here for
// interaural crossfeed instead of spatial diffusion.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import "math"

// crossfeedEar holds one ear's single-pole lowpass and first-order
// all-pass state (spec.md §3 Crossfeed state).
type crossfeedEar struct {
	lpA0, lpB1 float32
	lpState    float32
	apA        float32
	apState    float32
}

func (e *crossfeedEar) lowpass(x float32) float32 {
	y := e.lpA0*x + e.lpB1*e.lpState
	e.lpState = y
	return y
}

func (e *crossfeedEar) allpass(x float32) float32 {
	y := -e.apA*x + e.apState
	e.apState = x + e.apA*y
	return y
}

// CrossfeedPreset names a {cutoff_hz, feed_db} pair (spec.md §3).
type CrossfeedPreset struct {
	Name     string
	CutoffHz float64
	FeedDB   float64
}

// Named presets; Custom accepts any {500-2000Hz, 0-15dB} pair.
var (
	CrossfeedGentle  = CrossfeedPreset{Name: "Gentle", CutoffHz: 700, FeedDB: 4}
	CrossfeedNatural = CrossfeedPreset{Name: "Natural", CutoffHz: 1000, FeedDB: 6}
	CrossfeedStrong  = CrossfeedPreset{Name: "Strong", CutoffHz: 1400, FeedDB: 9}
)

// Crossfeed implements the complementary-lowpass/allpass headphone
// crossfeed described in spec.md §4.2 step 5:
//
//	direct = input - lowpass(input)
//	cross  = allpass(lowpass(opposite_input))
//	out_L  = direct_L + cross_R
//	out_R  = direct_R + cross_L
type Crossfeed struct {
	left, right crossfeedEar
	Enabled     bool
	preset      CrossfeedPreset
}

func newCrossfeed() *Crossfeed {
	c := &Crossfeed{}
	c.SetPreset(CrossfeedNatural, 48000)
	return c
}

// SetPreset computes new lowpass/allpass coefficients off to the side
// (compute-then-commit) for the given cutoff/feed pair at sampleRateHz,
// then installs them. The all-pass coefficient is derived from the fixed
// 220us interaural time delay (spec.md §3) rather than from FeedDB
// directly; FeedDB instead scales how much cross signal is summed in.
func (c *Crossfeed) SetPreset(p CrossfeedPreset, sampleRateHz float64) {
	p.CutoffHz = clampF64(p.CutoffHz, crossfeedMinCutoff, crossfeedMaxCutoff)
	p.FeedDB = clampF64(p.FeedDB, crossfeedMinFeedDB, crossfeedMaxFeedDB)

	omega := 2 * math.Pi * p.CutoffHz / sampleRateHz
	b1 := math.Exp(-omega)
	a0 := 1 - b1

	itdSamples := crossfeedITDMicros * 1e-6 * sampleRateHz
	apA := (1 - itdSamples) / (1 + itdSamples)

	feedGain := math.Pow(10, p.FeedDB/20)

	newLeft := crossfeedEar{lpA0: float32(a0 * feedGain), lpB1: float32(b1), apA: float32(apA)}
	newRight := crossfeedEar{lpA0: float32(a0 * feedGain), lpB1: float32(b1), apA: float32(apA)}
	newLeft.lpState, newLeft.apState = c.left.lpState, c.left.apState
	newRight.lpState, newRight.apState = c.right.lpState, c.right.apState

	c.left, c.right = newLeft, newRight
	c.preset = p
}

// Process applies the complementary crossfeed to one stereo frame.
func (c *Crossfeed) Process(l, r float32) (float32, float32) {
	if !c.Enabled {
		return l, r
	}

	lpL := c.left.lowpass(l)
	lpR := c.right.lowpass(r)

	directL := l - lpL
	directR := r - lpR

	// cross fed into L is derived from R's lowpass, and vice versa -
	// this is what gives the complementary lowpass+allpass its
	// mono-unity-at-DC property (spec.md §4.2 step 5).
	crossIntoL := c.right.allpass(lpR)
	crossIntoR := c.left.allpass(lpL)

	outL := directL + crossIntoL
	outR := directR + crossIntoR
	return outL, outR
}

// Preset reports the currently active preset, for status read-back.
func (c *Crossfeed) Preset() CrossfeedPreset {
	return c.preset
}
