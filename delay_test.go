// delay_test.go - coverage for the per-channel delay line.

package main

import "testing"

func TestDelayLineDelaysByExactSampleCount(t *testing.T) {
	d := &DelayLine{}
	d.SetDelaySamples(4)

	var idx uint32
	var lastOut float32
	for i := 0; i < 10; i++ {
		var in float32
		if i == 3 {
			in = 1.0
		}
		lastOut = d.Write(idx, in)
		idx++
		if i == 3+4 {
			if lastOut != 1.0 {
				t.Fatalf("expected impulse to reappear exactly 4 samples later, got %v at i=%d", lastOut, i)
			}
		}
	}
}

func TestDelayLineZeroDelayIsPassthrough(t *testing.T) {
	d := &DelayLine{}
	d.SetDelaySamples(0)
	out := d.Write(100, 0.75)
	if out != 0.75 {
		t.Fatalf("expected zero-delay passthrough, got %v", out)
	}
}

func TestDelayLineClampsToRingBounds(t *testing.T) {
	d := &DelayLine{}
	d.SetDelaySamples(delayLineSize + 100)
	if d.delaySamples != delayLineSize-1 {
		t.Fatalf("expected delaySamples clamped to %d, got %d", delayLineSize-1, d.delaySamples)
	}

	d.SetDelaySamples(-5)
	if d.delaySamples != 0 {
		t.Fatalf("expected negative delay clamped to 0, got %d", d.delaySamples)
	}
}

func TestDelayLineMillisConversion(t *testing.T) {
	d := &DelayLine{}
	d.SetDelayMillis(10, SampleRate48000)
	want := int(10 * SampleRate48000 / 1000.0)
	if d.delaySamples != want {
		t.Fatalf("SetDelayMillis(10, 48000): got %d samples, want %d", d.delaySamples, want)
	}
}

func TestDelayLineAutoAlignAddsOnTopOfConfiguredMillis(t *testing.T) {
	// spec.md §3: the Sub channel carries a fixed automatic alignment
	// offset on top of whatever delay the user configures in ms.
	d := &DelayLine{autoAlignSamples: subAlignmentSamples}
	d.SetDelayMillis(5, SampleRate48000)

	want := int(5*SampleRate48000/1000.0) + subAlignmentSamples
	if d.delaySamples != want {
		t.Fatalf("expected configured delay plus auto-align offset %d, got %d", want, d.delaySamples)
	}
}

func TestNewPipelineAppliesSubAutoAlignByDefault(t *testing.T) {
	p := newPipeline()
	if got := p.Delay[ChannelSub].delaySamples; got != subAlignmentSamples {
		t.Fatalf("expected Sub channel to start with the automatic alignment offset %d, got %d", subAlignmentSamples, got)
	}
	if got := p.Delay[ChannelOutL].delaySamples; got != 0 {
		t.Fatalf("expected OutL to start with no automatic offset, got %d", got)
	}
}
