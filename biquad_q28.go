// biquad_q28.go - second-order IIR filter stage, Q28 fixed-point numeric
// strategy (spec.md §3, §4.2, §9 "compile-time dispatch on precision").
//
// Selected with `go build -tags q28`. Coefficients are Q28 (28 fractional
// bits, signed 32-bit word, ±8.0 range); the accumulator is int64 so the
// multiply-accumulate cannot overflow across cascaded stages.
//
// Licensed under the GNU General Public License v3.0 or later.

//go:build q28

package main

import "math"

// Biquad mirrors the float32 build's API exactly; only the storage and
// arithmetic differ. No caller outside this file and biquad_float.go
// knows which strategy is active.
type Biquad struct {
	b0, b1, b2 int32 // Q28
	a1, a2     int32 // Q28
	s1, s2     int64 // wider than Q28 to absorb MAC growth
	bypass     bool
}

func toQ28(x float64) int32 {
	return int32(math.Round(x * float64(q28One)))
}

func identityBiquad() Biquad {
	return Biquad{b0: int32(q28One), bypass: true}
}

// Process runs one float sample (nominally +/-1.0, scaled to Q28 by
// q28One on entry) through the filter using the same TDF-II recurrence as the float
// build, with the multiply-accumulate carried out in int64 and the
// result rescaled back down by the fractional width.
func (bq *Biquad) Process(x float32) float32 {
	if bq.bypass {
		return x
	}
	xi := int64(x * float32(q28One))
	y := (int64(bq.b0)*xi)>>q28FractionalBits + bq.s1
	bq.s1 = (int64(bq.b1)*xi)>>q28FractionalBits - (int64(bq.a1)*y)>>q28FractionalBits + bq.s2
	bq.s2 = (int64(bq.b2)*xi)>>q28FractionalBits - (int64(bq.a2)*y)>>q28FractionalBits
	return float32(y) / float32(q28One)
}

// LoudnessState mirrors the float build's API: bare state accumulators
// that borrow coefficients from a shared table entry per call.
type LoudnessState struct {
	s1, s2 int64
}

func (ls *LoudnessState) ProcessWithCoeffs(coeffs Biquad, x float32) float32 {
	if coeffs.bypass {
		return x
	}
	xi := int64(x * float32(q28One))
	y := (int64(coeffs.b0)*xi)>>q28FractionalBits + ls.s1
	ls.s1 = (int64(coeffs.b1)*xi)>>q28FractionalBits - (int64(coeffs.a1)*y)>>q28FractionalBits + ls.s2
	ls.s2 = (int64(coeffs.b2)*xi)>>q28FractionalBits - (int64(coeffs.a2)*y)>>q28FractionalBits
	return float32(y) / float32(q28One)
}

func (bq *Biquad) Reset() {
	bq.s1 = 0
	bq.s2 = 0
}

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
		b0: toQ28(b0 / a0),
		b1: toQ28(b1 / a0),
		b2: toQ28(b2 / a0),
		a1: toQ28(a1 / a0),
		a2: toQ28(a2 / a0),
	}
}

func isGainedType(t FilterType) bool {
	return t == FilterPeaking || t == FilterLowShelf || t == FilterHighShelf
}

func (bq Biquad) isIdentity() bool {
	return bq.b0 == int32(q28One) && bq.b1 == 0 && bq.b2 == 0 && bq.a1 == 0 && bq.a2 == 0
}
