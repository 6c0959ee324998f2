// clock_manager.go - sample-rate to PLL/divider selection (spec.md §3,
// §4.1, §4.7).
//
// Grounded on the teacher's audio_lut.go init()-time table approach: the
// three supported rates map to precomputed divider sets rather than
// being solved for at rate-change time, since there are only three legal
// values (spec.md SampleRate44100/48000/96000).
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import "fmt"

// clockProfile is the divider set needed to derive a PDM bit clock and
// an S/PDIF bit clock from one system clock at a given sample rate.
type clockProfile struct {
	sampleRateHz  float64
	pdmOversample int
	spdifDivider  float64
}

var clockProfiles = map[float64]clockProfile{
	SampleRate44100: {sampleRateHz: SampleRate44100, pdmOversample: pdmBitsPerSample, spdifDivider: spdifClockDivider(systemClockHz, SampleRate44100)},
	SampleRate48000: {sampleRateHz: SampleRate48000, pdmOversample: pdmBitsPerSample, spdifDivider: spdifClockDivider(systemClockHz, SampleRate48000)},
	SampleRate96000: {sampleRateHz: SampleRate96000, pdmOversample: pdmBitsPerSample, spdifDivider: spdifClockDivider(systemClockHz, SampleRate96000)},
}

// systemClockHz is the simulated microcontroller core clock the PIO-style
// peripherals divide down from.
const systemClockHz = 125_000_000

// ClockManager resolves a requested sample rate to its clock profile and
// rejects anything outside the three values spec.md §2 allows.
type ClockManager struct {
	current clockProfile
}

func newClockManager() *ClockManager {
	return &ClockManager{current: clockProfiles[SampleRate48000]}
}

// SetRate switches the active clock profile. Returns an error for any
// rate other than 44100/48000/96000, matching spec.md §2's host
// negotiation constraint.
func (c *ClockManager) SetRate(sampleRateHz float64) error {
	profile, ok := clockProfiles[sampleRateHz]
	if !ok {
		return fmt.Errorf("clock_manager: unsupported sample rate %.0fHz", sampleRateHz)
	}
	c.current = profile
	return nil
}

// Current reports the active profile, for status read-back and for the
// PDM/S/PDIF drivers to pick up their divider values.
func (c *ClockManager) Current() clockProfile {
	return c.current
}
