// engine.go - top-level wiring (spec.md §3-§7).
//
// Grounded on the teacher's SoundChip: the outer struct that owns every
// subsystem and exposes the two entry points the rest of the program
// calls - one per packet of input, one per control-plane write. Where
// SoundChip snapshots its oscillator/filter config under RLock once per
// generated sample block, Engine drains ControlPlane and applies pending
// writes once per incoming packet, then runs Pipeline lock-free for
// every frame in that packet (spec.md §5).
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import (
	"sync/atomic"
	"time"
)

// Engine is the complete signal chain for one sample rate / numeric
// mode: ingest, the 11-step pipeline, output encoding to PDM and
// S/PDIF, and the bookkeeping (feedback, status, persistence) spec.md
// §3-§7 describe.
type Engine struct {
	Pipeline *Pipeline
	Control  *ControlPlane
	Ingest   IngestStats
	Feedback *FeedbackController
	Clock    *ClockManager
	PDMQueue *PDMQueue
	PDMMod   *PDMModulator
	SPDIF    *spdifBlock
	Status   *StatusBoard

	blockPos int // position within the current S/PDIF channel-status block

	// pdmUnderruns and spdifUnderruns count Core B's consumer-starved
	// events (spec.md §4.4/§4.5): the PDM queue had nothing queued on a
	// drain tick, or the S/PDIF pool had no committed buffer ready for
	// transmit. Core B (runCoreB, a separate goroutine) increments these;
	// ProcessPacket reads them once per packet when publishing Status, so
	// they're plain atomics rather than fields IngestStats owns.
	pdmUnderruns   atomic.Uint32
	spdifUnderruns atomic.Uint32
}

// NewEngine builds an Engine at the given initial sample rate, with all
// subsystems at their spec.md §3 defaults.
func NewEngine(sampleRateHz float64) *Engine {
	e := &Engine{
		Pipeline: newPipeline(),
		Control:  newControlPlane(),
		Feedback: newFeedbackController(sampleRateHz),
		Clock:    newClockManager(),
		PDMQueue: &PDMQueue{},
		PDMMod:   newPDMModulator(),
		SPDIF:    newSPDIFBlockPool(),
		Status:   newStatusBoard(),
	}
	e.Pipeline.Loudness.Recompute(sampleRateHz, loudnessRefSPLDefault)
	_ = e.Clock.SetRate(sampleRateHz)
	return e
}

// ApplyPending drains the control plane and mutates Pipeline/Clock/
// Feedback accordingly. Called once per packet, before any frame in
// that packet is processed, implementing spec.md §5's "apply staged
// writes at a safe point between packets" rule.
func (e *Engine) ApplyPending() {
	for _, w := range e.Control.Drain() {
		switch w.ID {
		case ParamPreampDB:
			e.Pipeline.PreampGain = dbToLinear(w.Float)
		case ParamLoudnessEnabled:
			e.Pipeline.LoudnessEnabled = w.Bool
		case ParamLoudnessRefSPL:
			e.Pipeline.Loudness.Recompute(e.Clock.Current().sampleRateHz, w.Float)
		case ParamMasterEQBand:
			bankIdx := masterEQIndex(w.Channel)
			if bankIdx >= 0 {
				e.Pipeline.MasterEQ[bankIdx].SetBand(w.Band, w.Recipe, e.Clock.Current().sampleRateHz)
			}
		case ParamOutEQBand:
			bankIdx := outEQIndex(w.Channel)
			if bankIdx >= 0 {
				e.Pipeline.OutEQ[bankIdx].SetBand(w.Band, w.Recipe, e.Clock.Current().sampleRateHz)
			}
		case ParamCrossfeedEnabled:
			e.Pipeline.Crossfeed.Enabled = w.Bool
		case ParamCrossfeedPreset:
			e.Pipeline.Crossfeed.SetPreset(crossfeedPresetByName(w.Recipe, w.Float), e.Clock.Current().sampleRateHz)
		case ParamChannelGainDB:
			e.Pipeline.ChannelGain[w.Channel] = dbToLinear(w.Float)
		case ParamChannelMute:
			e.Pipeline.ChannelMute[w.Channel] = w.Bool
		case ParamMasterVolumeDB:
			db := clampF64(w.Float, volumeMinDB, volumeMaxDB)
			e.Pipeline.MasterVolume = dbToLinear(db)
			e.Pipeline.VolumeCode = volumeStepForDB(db)
		case ParamChannelDelayMillis:
			e.Pipeline.Delay[w.Channel].SetDelayMillis(w.Float, e.Clock.Current().sampleRateHz)
		case ParamSampleRate:
			if _, ok := clockProfiles[w.Float]; !ok {
				w.Float = SampleRate44100
			}
			if err := e.Clock.SetRate(w.Float); err == nil {
				e.Pipeline.Loudness.Recompute(w.Float, loudnessRefSPLDefault)
				for _, bank := range e.Pipeline.MasterEQ {
					bank.Recompute(w.Float)
				}
				for _, bank := range e.Pipeline.OutEQ {
					bank.Recompute(w.Float)
				}
				e.Pipeline.Crossfeed.SetPreset(e.Pipeline.Crossfeed.Preset(), w.Float)
				e.Feedback.Reset(w.Float)
				e.Pipeline.Reset()
				e.PDMMod.Reset()
			}
		}
	}
}

func masterEQIndex(ch ChannelID) int {
	switch ch {
	case ChannelMasterL:
		return 0
	case ChannelMasterR:
		return 1
	default:
		return -1
	}
}

func outEQIndex(ch ChannelID) int {
	switch ch {
	case ChannelOutL:
		return 0
	case ChannelOutR:
		return 1
	case ChannelSub:
		return 2
	default:
		return -1
	}
}

// crossfeedPresetByName resolves a staged crossfeed write: the cutoff/feed
// travel in Recipe.FreqHz/GainDB by convention (the ControlPlane write
// path packs them there rather than adding crossfeed-specific fields to
// ParamWrite). An all-zero recipe falls back to Natural; any other pair
// is installed as a preset named "Custom". The Float argument is unused.
func crossfeedPresetByName(recipe FilterRecipe, _ float64) CrossfeedPreset {
	if recipe.FreqHz == 0 && recipe.GainDB == 0 {
		return CrossfeedNatural
	}
	return CrossfeedPreset{Name: "Custom", CutoffHz: recipe.FreqHz, FeedDB: recipe.GainDB}
}

// ProcessPacket runs one incoming audio packet through ingest, the
// pipeline, and both output encoders, publishing an updated status
// snapshot before returning. This is the single per-packet entry point
// Core A's loop calls (spec.md §4).
func (e *Engine) ProcessPacket(p AudioPacket) {
	start := time.Now()

	e.ApplyPending()

	prevMicros, hadPrev := e.Ingest.lastMicros, e.Ingest.haveLast

	if e.Ingest.Ingest(p) {
		e.Pipeline.Reset()
		e.PDMMod.Reset()
		e.Feedback.Reset(e.Clock.Current().sampleRateHz)
		e.blockPos = 0
		e.SPDIF.PushSilentBuffer()
		e.SPDIF.PushSilentBuffer()
	}

	elapsedUs := int64(float64(len(p.Frames)) / e.Clock.Current().sampleRateHz * 1e6)
	if hadPrev {
		elapsedUs = p.ArrivalMicros - prevMicros
	}
	e.Feedback.Observe(len(p.Frames), elapsedUs)

	var peaks PeakMeters
	for _, fr := range p.Frames {
		out, sub, masterPeak := e.Pipeline.ProcessFrame(fr[0], fr[1])
		peaks.MasterL = maxF32(peaks.MasterL, masterPeak.MasterL)
		peaks.MasterR = maxF32(peaks.MasterR, masterPeak.MasterR)
		peaks.OutL = maxF32(peaks.OutL, absF32(out.L))
		peaks.OutR = maxF32(peaks.OutR, absF32(out.R))
		peaks.OutSub = maxF32(peaks.OutSub, absF32(sub))

		e.encodeSPDIFFrame(out)
		e.encodePDMSample(sub)
	}

	elapsed := time.Since(start)
	budget := time.Duration(float64(len(p.Frames))/e.Clock.Current().sampleRateHz*1e9) * time.Nanosecond

	counters := e.Ingest.CountersSnapshot()
	counters.PDMRingOverruns = e.PDMQueue.OverrunCount()
	counters.PDMDMAUnderruns = e.pdmUnderruns.Load()
	counters.SPDIFUnderruns = e.spdifUnderruns.Load()

	st := Status{
		Peaks:         peaks,
		Counters:      counters,
		SampleRateHz:  e.Clock.Current().sampleRateHz,
		NumericMode:   numericModeName,
		PDMQueueLen:   e.PDMQueue.Len(),
		SPDIFReady:    e.SPDIF.ReadyCount(),
		CrossfeedName: e.Pipeline.Crossfeed.Preset().Name,
	}
	st.CoreALoad.FractionBusy = fractionBusy(elapsed, budget)
	st.Feedback.Value = e.Feedback.FeedbackValue()
	st.Feedback.Stabilizing = e.Feedback.Stabilizing()
	e.Status.Publish(st)
}

// encodeSPDIFFrame pushes one encoded stereo frame into the S/PDIF
// buffer pool, committing and starting a new buffer once a full block
// has been written (spec.md §4.5).
func (e *Engine) encodeSPDIFFrame(out StereoSample) {
	l := floatToS20(out.L)
	r := floatToS20(out.R)
	e.SPDIF.PushFrame(e.blockPos, l, r)
	e.blockPos++
	if e.blockPos >= spdifSamplesPerBlock {
		e.blockPos = 0
		e.SPDIF.CommitBuffer()
	}
}

// encodePDMSample converts the subwoofer channel's float sample to Q28
// and enqueues it for Core B's modulator loop, counting an overrun if
// the ring is full (spec.md §4.4).
func (e *Engine) encodePDMSample(sub float32) {
	q28 := int32(float64(sub) * float64(q28One))
	e.PDMQueue.Push(PDMMessage{Sample: q28})
}

func floatToS20(x float32) int32 {
	const fullScale = 1 << 19
	v := int32(x * fullScale)
	return clampI32(v, -fullScale, fullScale-1)
}

// NotePDMUnderrun records one Core B tick where the PDM queue had
// nothing queued to drain (spec.md §4.4 "consumer starved").
func (e *Engine) NotePDMUnderrun() {
	e.pdmUnderruns.Add(1)
}

// NoteSPDIFUnderrun records one Core B tick where the S/PDIF pool had
// no committed buffer ready for transmit (spec.md §4.5 "DMA drained
// the pool").
func (e *Engine) NoteSPDIFUnderrun() {
	e.spdifUnderruns.Add(1)
}

func maxF32(a, b float32) float32 {
	if b > a {
		return b
	}
	return a
}

func fractionBusy(elapsed, budget time.Duration) float64 {
	if budget <= 0 {
		return 0
	}
	return clampF64(float64(elapsed)/float64(budget), 0, 1)
}
