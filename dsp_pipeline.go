// dsp_pipeline.go - per-sample signal path (spec.md §3, §4.2).
//
// Grounded on the teacher's SoundChip.GenerateSample(): a per-channel
// struct holding filter/delay state, advanced one sample at a time, with
// shared control state snapshotted under RLock once per packet and the
// per-sample loop itself lock-free (audio_chip.go's comment block around
// GenerateSample spells out exactly this contract). Pipeline mirrors that
// shape: channelState is advanced per sample with no locking; Engine
// (engine.go) is the one place that applies staged control writes, by
// draining ControlPlane in ApplyPending at packet start.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

// Pipeline holds all per-sample DSP state for the 11-step signal path of
// spec.md §4.2. One Pipeline instance exists per Engine; it is only ever
// touched from the audio loop goroutine (Core A), so it needs no
// internal locking of its own.
type Pipeline struct {
	PreampGain float32 // linear, derived from PreampDB

	Loudness        *LoudnessTable
	loudnessOnL     LoudnessState
	loudnessOnR     LoudnessState
	LoudnessEnabled bool
	VolumeCode      int // index into the loudness table's per-volume-step entries

	MasterEQ [2]*EQBank // [ChannelMasterL, ChannelMasterR] -> index 0,1
	OutEQ    [3]*EQBank // [ChannelOutL, ChannelOutR, ChannelSub] -> index 0,1,2

	Crossfeed *Crossfeed

	ChannelGain [numChannels]float32 // linear
	ChannelMute [numChannels]bool

	MasterVolume float32 // linear

	Delay      [numChannels]*DelayLine
	writeIndex uint32
}

func newPipeline() *Pipeline {
	p := &Pipeline{
		PreampGain:   1,
		Loudness:     newLoudnessTable(),
		Crossfeed:    newCrossfeed(),
		MasterVolume: 1,
	}
	for i := range p.MasterEQ {
		p.MasterEQ[i] = newEQBank(MasterBandCount)
	}
	for i := range p.OutEQ {
		p.OutEQ[i] = newEQBank(OutBandCount)
	}
	for i := range p.ChannelGain {
		p.ChannelGain[i] = 1
	}
	for i := range p.Delay {
		p.Delay[i] = &DelayLine{}
	}
	p.Delay[ChannelSub].autoAlignSamples = subAlignmentSamples
	p.Delay[ChannelSub].delaySamples = subAlignmentSamples
	return p
}

// ProcessFrame runs one stereo input frame through the full signal path
// and returns the five output channels (L, R, Sub are the physical
// outputs; Master L/R are pre-split, reported for metering only).
// Implements spec.md §4.2's eleven steps in order.
func (p *Pipeline) ProcessFrame(inL, inR int16) (out StereoSample, sub float32, masterPeak PeakMeters) {
	// 1. Normalize s16 input to +/-1.0 float.
	l := float32(inL) / 32768.0
	r := float32(inR) / 32768.0

	// 2. Preamp multiply.
	l *= p.PreampGain
	r *= p.PreampGain

	// 3. Loudness compensation. Active() is read on every frame; the
	// table only changes through Recompute, which runs on this same
	// goroutine (NewEngine, ApplyPending) before a packet's frames, so
	// every frame of a packet sees the same buffer.
	if p.LoudnessEnabled {
		entry := p.Loudness.Active()[volumeIndex(p.VolumeCode)]
		l = p.loudnessOnL.ProcessWithCoeffs(entry.low, l)
		l = p.loudnessOnL.ProcessWithCoeffs(entry.high, l)
		r = p.loudnessOnR.ProcessWithCoeffs(entry.low, r)
		r = p.loudnessOnR.ProcessWithCoeffs(entry.high, r)
	}

	// 4. Master EQ.
	l = p.MasterEQ[0].Process(l)
	r = p.MasterEQ[1].Process(r)

	masterPeak.MasterL = absF32(l)
	masterPeak.MasterR = absF32(r)

	// 5. Crossfeed.
	l, r = p.Crossfeed.Process(l, r)

	// 6. Output split: sub_in = (L+R)/2.
	subIn := (l + r) / 2

	// 7. Output EQ.
	outL := p.OutEQ[0].Process(l)
	outR := p.OutEQ[1].Process(r)
	outSub := p.OutEQ[2].Process(subIn)

	// 8. Per-channel gain & mute.
	outL = applyGainMute(outL, p.ChannelGain[ChannelOutL], p.ChannelMute[ChannelOutL])
	outR = applyGainMute(outR, p.ChannelGain[ChannelOutR], p.ChannelMute[ChannelOutR])
	outSub = applyGainMute(outSub, p.ChannelGain[ChannelSub], p.ChannelMute[ChannelSub])

	// 9. Master volume.
	outL *= p.MasterVolume
	outR *= p.MasterVolume
	outSub *= p.MasterVolume

	// 10. Delay. All three channels share one monotonic write index
	// (spec.md §3).
	outL = p.Delay[ChannelOutL].Write(p.writeIndex, outL)
	outR = p.Delay[ChannelOutR].Write(p.writeIndex, outR)
	outSub = p.Delay[ChannelSub].Write(p.writeIndex, outSub)
	p.writeIndex++

	// 11. Output conversion happens in engine.go (floatToS20 for S/PDIF,
	// encodePDMSample's Q28 conversion for PDM); Pipeline hands back
	// floats clamped to +/-1.0.
	out.L = clamp32(outL, -1, 1)
	out.R = clamp32(outR, -1, 1)
	sub = clamp32(outSub, -1, 1)
	return out, sub, masterPeak
}

func applyGainMute(x, gain float32, mute bool) float32 {
	if mute {
		return 0
	}
	return x * gain
}

func absF32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// Reset clears all filter and delay history, called on a hard packet
// gap (spec.md §4.1) or a sample-rate change.
func (p *Pipeline) Reset() {
	p.loudnessOnL = LoudnessState{}
	p.loudnessOnR = LoudnessState{}
	for _, bank := range p.MasterEQ {
		for i := range bank.biquads {
			bank.biquads[i].Reset()
		}
	}
	for _, bank := range p.OutEQ {
		for i := range bank.biquads {
			bank.biquads[i].Reset()
		}
	}
	p.Crossfeed.left = crossfeedEar{lpA0: p.Crossfeed.left.lpA0, lpB1: p.Crossfeed.left.lpB1, apA: p.Crossfeed.left.apA}
	p.Crossfeed.right = crossfeedEar{lpA0: p.Crossfeed.right.lpA0, lpB1: p.Crossfeed.right.lpB1, apA: p.Crossfeed.right.apA}
	for _, d := range p.Delay {
		d.buffer = [delayLineSize]float32{}
	}
}
