// biquad_float.go - second-order IIR filter stage, float32 numeric
// strategy (spec.md §3, §4.2, §9 "compile-time dispatch on precision").
//
// Licensed under the GNU General Public License v3.0 or later.

//go:build !q28

package main

import "math"

// Biquad is a Transposed Direct Form II second-order IIR section.
// Coefficients are normalized by a0 at computation time; Process keeps
// two running state accumulators. Bypass is kept consistent with the
// coefficients: when set, (b0,b1,b2,a1,a2) is the identity filter
// (spec.md §8 invariant).
type Biquad struct {
	b0, b1, b2 float32
	a1, a2     float32
	s1, s2     float64 // wider accumulator than the coefficients, as spec.md §4.2 requires
	bypass     bool
}

func identityBiquad() Biquad {
	return Biquad{b0: 1, bypass: true}
}

// Process runs one sample through the filter using the canonical TDF-II
// recurrence from spec.md §4.2:
//
//	y  = b0*x + s1
//	s1 = b1*x - a1*y + s2
//	s2 = b2*x - a2*y
func (bq *Biquad) Process(x float32) float32 {
	if bq.bypass {
		return x
	}
	xf := float64(x)
	y := float64(bq.b0)*xf + bq.s1
	bq.s1 = float64(bq.b1)*xf - float64(bq.a1)*y + bq.s2
	bq.s2 = float64(bq.b2)*xf - float64(bq.a2)*y
	return float32(y)
}

// LoudnessState is a bare pair of state accumulators with no
// coefficients of its own: the loudness table (loudness.go) stores
// coefficients only, shared read-only across both stereo channels, while
// each channel keeps its own running state and supplies the table's
// current entry by value on every call.
type LoudnessState struct {
	s1, s2 float64
}

// ProcessWithCoeffs runs the TDF-II recurrence using coeffs' coefficients
// but this state's accumulators, so two channels can share one
// coefficient set without sharing filter history.
func (ls *LoudnessState) ProcessWithCoeffs(coeffs Biquad, x float32) float32 {
	if coeffs.bypass {
		return x
	}
	xf := float64(x)
	y := float64(coeffs.b0)*xf + ls.s1
	ls.s1 = float64(coeffs.b1)*xf - float64(coeffs.a1)*y + ls.s2
	ls.s2 = float64(coeffs.b2)*xf - float64(coeffs.a2)*y
	return float32(y)
}

// Reset zeroes the filter's history without touching its coefficients.
// Used on a >50ms packet gap (spec.md §4.1) and on rate change.
func (bq *Biquad) Reset() {
	bq.s1 = 0
	bq.s2 = 0
}

// computeBiquad compiles a FilterRecipe into Biquad coefficients at the
// given sample rate. This is the "compute" half of the compute-then-commit
// contract (spec.md §4.2): it does all the sin/cos/pow work and returns a
// value; callers decide how to commit it (brief interrupt suspension for
// a single channel slot, atomic buffer flip for the loudness table).
func computeBiquad(r FilterRecipe, sampleRateHz float64) Biquad {
	if r.Type == FilterFlat || (isGainedType(r.Type) && math.Abs(r.GainDB) < 0.01) {
		return identityBiquad()
	}

	freq := clampF64(r.FreqHz, 1, sampleRateHz/2-1)
	q := r.Q
	if q <= 0 {
		q = 0.707
	}

	omega := 2 * math.Pi * freq / sampleRateHz
	sinW, cosW := math.Sin(omega), math.Cos(omega)
	alpha := sinW / (2 * q)
	a := math.Pow(10, r.GainDB/40)

	var b0, b1, b2, a0, a1, a2 float64

	switch r.Type {
	case FilterPeaking:
		b0 = 1 + alpha*a
		b1 = -2 * cosW
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW
		a2 = 1 - alpha/a

	case FilterLowShelf:
		sq := math.Sqrt(a)
		b0 = a * ((a + 1) - (a-1)*cosW + 2*sq*alpha)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW)
		b2 = a * ((a + 1) - (a-1)*cosW - 2*sq*alpha)
		a0 = (a + 1) + (a-1)*cosW + 2*sq*alpha
		a1 = -2 * ((a - 1) + (a+1)*cosW)
		a2 = (a + 1) + (a-1)*cosW - 2*sq*alpha

	case FilterHighShelf:
		sq := math.Sqrt(a)
		b0 = a * ((a + 1) + (a-1)*cosW + 2*sq*alpha)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW)
		b2 = a * ((a + 1) + (a-1)*cosW - 2*sq*alpha)
		a0 = (a + 1) - (a-1)*cosW + 2*sq*alpha
		a1 = 2 * ((a - 1) - (a+1)*cosW)
		a2 = (a + 1) - (a-1)*cosW - 2*sq*alpha

	case FilterLowPass:
		b0 = (1 - cosW) / 2
		b1 = 1 - cosW
		b2 = (1 - cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha

	case FilterHighPass:
		b0 = (1 + cosW) / 2
		b1 = -(1 + cosW)
		b2 = (1 + cosW) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW
		a2 = 1 - alpha

	default:
		return identityBiquad()
	}

	return Biquad{
		b0: float32(b0 / a0),
		b1: float32(b1 / a0),
		b2: float32(b2 / a0),
		a1: float32(a1 / a0),
		a2: float32(a2 / a0),
	}
}

func isGainedType(t FilterType) bool {
	return t == FilterPeaking || t == FilterLowShelf || t == FilterHighShelf
}

// isIdentity reports whether a coefficient set equals the pass-through
// filter, used by the property test for the bypass invariant.
func (bq Biquad) isIdentity() bool {
	return bq.b0 == 1 && bq.b1 == 0 && bq.b2 == 0 && bq.a1 == 0 && bq.a2 == 0
}
