// channel_eq.go - per-channel cascade of biquad stages (spec.md §3, §4.2).
//
// Grounded on the teacher's per-channel array pattern
// (audio_chip.go: channels [NUM_CHANNELS]*Channel) generalized from a
// fixed 4-oscillator bank to a variable-length biquad cascade.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// EQBank is a cascade of up to maxBands Biquad stages for one logical
// channel. A channel-level Bypassed flag short-circuits the whole chain
// in one branch instead of testing each stage (spec.md §4.2 step 4).
type EQBank struct {
	recipes  []FilterRecipe
	biquads  []Biquad
	Bypassed bool
}

// newEQBank allocates a bank sized for maxBands; all stages start flat.
func newEQBank(maxBands int) *EQBank {
	bank := &EQBank{
		recipes: make([]FilterRecipe, maxBands),
		biquads: make([]Biquad, maxBands),
	}
	for i := range bank.biquads {
		bank.biquads[i] = identityBiquad()
	}
	return bank
}

// Process runs x through every non-bypassed stage in band order.
func (b *EQBank) Process(x float32) float32 {
	if b.Bypassed {
		return x
	}
	for i := range b.biquads {
		x = b.biquads[i].Process(x)
	}
	return x
}

// SetBand compiles a recipe for one band and installs it. Compilation
// happens here, outside of any lock (compute-then-commit contract,
// spec.md §4.2); the caller is expected to hold whatever brief
// interrupt-suspension discipline the control plane uses around the
// final struct copy.
func (b *EQBank) SetBand(band int, recipe FilterRecipe, sampleRateHz float64) {
	if band < 0 || band >= len(b.biquads) {
		return
	}
	b.recipes[band] = recipe
	b.biquads[band] = computeBiquad(recipe, sampleRateHz)
}

// Recompute rebuilds every band's Biquad from its stored recipe at a new
// sample rate (spec.md §4.7 rate-change handling: "recompute all biquad
// coefficients at the new rate").
func (b *EQBank) Recompute(sampleRateHz float64) {
	for i, r := range b.recipes {
		if r.Type == FilterFlat {
			b.biquads[i] = identityBiquad()
			continue
		}
		b.biquads[i] = computeBiquad(r, sampleRateHz)
	}
}

// BandCount reports how many bands this bank was built for, satisfying
// the invariant `0 <= band < channel_band_count[channel]` (spec.md §8).
func (b *EQBank) BandCount() int {
	return len(b.biquads)
}
