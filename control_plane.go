// control_plane.go - host-side parameter staging and apply (spec.md §3,
// §5, §6).
//
// Grounded on the teacher's HandleRegisterWrite in audio_chip.go: a
// single dispatch point that decodes an address/opcode pair and mutates
// chip state under its RWMutex. Here the dispatch is by ParamID instead
// of register address, and writes stage into a pending set that the
// audio loop applies at a safe point between packets rather than being
// applied inline from an interrupt context.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import "sync"

// ParamID names one control-plane parameter a host can set (spec.md §6).
type ParamID int

const (
	ParamPreampDB ParamID = iota
	ParamLoudnessEnabled
	ParamLoudnessRefSPL
	ParamMasterEQBand
	ParamOutEQBand
	ParamCrossfeedEnabled
	ParamCrossfeedPreset
	ParamChannelGainDB
	ParamChannelMute
	ParamMasterVolumeDB
	ParamChannelDelayMillis
	ParamSampleRate
	ParamNumericMode
)

// ParamWrite is one staged control-plane write. Not every field applies
// to every ParamID; Engine.ApplyPending interprets them per-ParamID the
// same way HandleRegisterWrite interprets its opcode field.
type ParamWrite struct {
	ID      ParamID
	Channel ChannelID
	Band    int
	Recipe  FilterRecipe
	Float   float64
	Int     int
	Bool    bool
}

// ControlPlane stages host writes for the audio loop to apply at a safe
// point, per spec.md §5's "reads active_index once at packet start"
// discipline: nothing here is applied directly from the host's context.
type ControlPlane struct {
	mu      sync.Mutex
	pending []ParamWrite
}

func newControlPlane() *ControlPlane {
	return &ControlPlane{pending: make([]ParamWrite, 0, 16)}
}

// Stage queues a write for application on the next safe point. Safe to
// call concurrently with Drain from any number of host-side goroutines.
func (c *ControlPlane) Stage(w ParamWrite) {
	c.mu.Lock()
	c.pending = append(c.pending, w)
	c.mu.Unlock()
}

// Drain returns and clears all pending writes, called once per packet
// boundary by the audio loop before it reads any shared state (spec.md
// §5). Swapping the slice rather than copying it keeps this call
// allocation-light on the hot path.
func (c *ControlPlane) Drain() []ParamWrite {
	c.mu.Lock()
	pending := c.pending
	c.pending = make([]ParamWrite, 0, cap(pending))
	c.mu.Unlock()
	return pending
}
