// feedback.go - USB isochronous feedback / drift correction (spec.md §3,
// §4.1, §4.6).
//
// Grounded on the teacher's audio_chip.go filter-state update pattern:
// a small amount of smoothed state updated once per packet under the
// same RWMutex discipline as the rest of SoundChip, here producing a
// 10.14 fixed-point feedback value instead of a filter coefficient.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// FeedbackController tracks the running difference between samples
// produced and samples the host's isochronous clock expects, and
// reports a proportional correction in USB's 10.14 fixed-point feedback
// format (spec.md §4.6).
type FeedbackController struct {
	nominalRate     float64
	accumulatedDrift float64
	stabilizing      bool
	micros           int64
}

func newFeedbackController(sampleRateHz float64) *FeedbackController {
	return &FeedbackController{nominalRate: sampleRateHz, stabilizing: true}
}

// Reset clears accumulated drift and re-enters the stabilization window,
// called on a rate change or a gap large enough to invalidate history
// (spec.md §4.1 gapResetThresholdMicros).
func (f *FeedbackController) Reset(sampleRateHz float64) {
	f.nominalRate = sampleRateHz
	f.accumulatedDrift = 0
	f.stabilizing = true
	f.micros = 0
}

// Observe records one packet's actual sample count against the nominal
// count expected for elapsedMicros, accumulating the error.
func (f *FeedbackController) Observe(samplesReceived int, elapsedMicros int64) {
	expected := f.nominalRate * float64(elapsedMicros) / 1e6
	f.accumulatedDrift += float64(samplesReceived) - expected

	f.micros += elapsedMicros
	if f.stabilizing && f.micros >= feedbackStabilizeMicros {
		f.stabilizing = false
	}
}

// FeedbackValue returns the current correction as a 10.14 fixed-point
// value suitable for a USB feedback endpoint: the nominal samples per
// 1ms frame plus a proportional term capped at +/-feedbackCorrectionCap
// samples/frame, or exactly the nominal value (no correction) while
// still stabilizing (spec.md §4.6 "capped correction").
func (f *FeedbackController) FeedbackValue() uint32 {
	perFrame := f.nominalRate / 1000 // samples per 1ms USB frame
	if !f.stabilizing {
		correction := clampF64(f.accumulatedDrift*feedbackGainK, -feedbackCorrectionCap, feedbackCorrectionCap)
		perFrame += correction
	}
	return uint32(perFrame * 16384) // 10.14: 2^14 fractional bits
}

// Stabilizing reports whether the controller is still within its
// post-reset settling window, for status read-back.
func (f *FeedbackController) Stabilizing() bool {
	return f.stabilizing
}
