// constants.go - build-time parameters for the audio engine.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// Supported sample rates (spec.md §6). Any other requested rate is
// silently coerced to SampleRate44100 (spec.md §7).
const (
	SampleRate44100 = 44100
	SampleRate48000 = 48000
	SampleRate96000 = 96000
)

// Packet sizing. One USB isochronous OUT packet carries N stereo s16
// samples; N varies with host packet cadence but is always in this range.
const (
	MinPacketSamples = 32
	MaxPacketSamples = 96
)

// Per-channel EQ band counts (spec.md §3 Channel model).
const (
	MasterBandCount = 10
	OutBandCount    = 10
	SubBandCountMin = 2
	SubBandCountMax = 10
)

// Delay line sizing (spec.md §3 Delay line). Power of two so the read
// offset can be masked instead of taken modulo.
const (
	delayLineSize = 8192
	delayLineMask = delayLineSize - 1
)

// Automatic Sub-channel alignment: compensates the latency difference
// between the S/PDIF buffer pipeline and the PDM DMA ring.
const (
	spdifPipelineLatencySamples = 384
	pdmPipelineLatencySamples   = 256
	subAlignmentSamples         = spdifPipelineLatencySamples - pdmPipelineLatencySamples
)

// Q28 fixed point: 28 fractional bits, Â±8.0 range in a signed 32-bit word.
const (
	q28FractionalBits = 28
	q28One            = int64(1) << q28FractionalBits
)

// PCM -> PDM queue (spec.md §3/§4.4). 256 entries; head/tail are
// uint32 counters reduced modulo pdmQueueSize on every advance.
const pdmQueueSize = 256

// PDM DMA ring (spec.md §3). 2048 32-bit words, 8 words (256 bits) per
// PCM sample burst.
const (
	pdmDMARingWords  = 2048
	pdmDMARingMask   = pdmDMARingWords - 1
	pdmWordsPerSample = 8
	pdmBitsPerSample  = pdmWordsPerSample * 32 // 256x oversample
	pdmTargetLead     = 64                      // cushion the modulator tries to maintain, in words
)

// PDM modulator stability: the 2nd-order loop goes unstable close to full
// scale, so the limiter clamps well below it (spec.md §4.5, §9).
const (
	pdmFullScale     = 32768
	pdmClipThreshold = int32(pdmFullScale * 9 / 10)
	pdmLeakageShift  = 16 // leak time constant ~1.4s at 48kHz
	pdmFeedbackHigh  = 65535
	pdmFeedbackLow   = 0
)

// q28ToPDMShift rescales a Q28 sample (28 fractional bits, +/-8.0 range)
// down to the PDM modulator's 16-bit-ish domain (+/-pdmFullScale), so
// q28One (the pipeline's full-scale +1.0) maps to exactly pdmFullScale.
const q28ToPDMShift = q28FractionalBits - 15

// S/PDIF buffer pool (spec.md §3/§4.3). Eight buffers of 192 stereo
// samples, four-buffer watermark separates producer and DMA consumer.
const (
	spdifBufferCount    = 8
	spdifSamplesPerBlock = 192
	spdifWatermark      = 4
	spdifSubframesPerBlock = spdifSamplesPerBlock * 2
)

// Audio Ingest gap handling (spec.md §4.1).
const (
	gapResetThresholdMicros    = 50_000
	underrunGapMinMicros       = 2_000
	underrunGapMaxMicros       = 50_000
)

// Loudness compensation table (spec.md §3). 91 volume steps, double
// buffered, two shelves per step.
const (
	loudnessVolumeSteps = 91
	loudnessBufferCount = 2
)

// Crossfeed: interaural time delay models a 60-degree speaker arc around
// a 15cm head (spec.md §3).
const (
	crossfeedITDMicros  = 220
	crossfeedMinCutoff  = 500.0
	crossfeedMaxCutoff  = 2000.0
	crossfeedMinFeedDB  = 0.0
	crossfeedMaxFeedDB  = 15.0
)

// Loudness reference: ISO 226:2003 equal-loudness contour samples used to
// derive shelf gains relative to a configured reference SPL.
const (
	loudnessRefSPLDefault = 83.0 // dB SPL, typical studio reference level
	loudnessShelfLowHz    = 200.0
	loudnessShelfHighHz   = 6000.0
	loudnessShelfQ        = 0.707
)

// Master volume: 91 integer dB steps presented to the host as a 16-bit
// signed dB-scaled code (spec.md §6).
const (
	volumeStepCount  = 91
	volumeMinDB      = -90.0
	volumeMaxDB      = 0.0
)

// Feedback Transmitter (spec.md §4.6): proportional correction capped at
// Â±0.5 samples/frame, valid once the drift epoch has stabilized.
const (
	feedbackCorrectionCap  = 0.5
	feedbackGainK          = 0.01 // hand-tuned; see DESIGN.md
	feedbackStabilizeMicros = 1_000_000
)

// Critical-section duration budget (spec.md §5): any interrupt-suspended
// section must complete within this bound; enforced only by discipline
// (compute off to the side, copy under the section) since the host build
// has no real interrupt controller to measure against.
const criticalSectionBudgetMicros = 10

func init() {
	// sanity: delayLineSize must be a power of two for the mask trick.
	if delayLineSize&(delayLineSize-1) != 0 {
		panic("delayLineSize must be a power of two")
	}
	if pdmDMARingWords&(pdmDMARingWords-1) != 0 {
		panic("pdmDMARingWords must be a power of two")
	}
}
