// devpreview_oto.go - developer audio preview backend using oto
// (spec.md §1.1, §11).
//
// Grounded directly on the teacher's audio_backend_oto.go: an
// atomic.Pointer to the shared engine, read inside oto's io.Reader
// callback so the player never blocks the producer and never takes a
// lock on the hot path.
//
// Licensed under the GNU General Public License v3.0 or later.

//go:build !headless

package main

import (
	"context"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

// DevPreview drives the host's default audio device with a constant level
// taken from the latest status snapshot's Out L/R peak meters, so a
// developer without real S/PDIF/PDM hardware gets an audible indication
// of output level. It does not play the per-sample pipeline output. It is a
// host-simulation convenience, not part of the firmware's own signal
// path (spec.md §1.1 Non-goal: no requirement to bit-match the real
// hardware's D/A stage).
type DevPreview struct {
	engine  atomic.Pointer[Engine]
	ctx     *oto.Context
	player  *oto.Player
}

func newDevPreview(e *Engine, headless bool) *DevPreview {
	p := &DevPreview{}
	p.engine.Store(e)
	if headless {
		return p
	}

	otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(e.Clock.Current().sampleRateHz),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return p
	}
	<-ready
	p.ctx = otoCtx
	p.player = otoCtx.NewPlayer(p)
	p.player.Play()
	return p
}

// Read implements io.Reader for oto's player: it pulls the most recent
// status snapshot's peak meters and synthesizes a short burst at that
// level, since Engine's real per-sample stereo output is consumed by
// the S/PDIF/PDM encoders rather than buffered for a third reader. This
// keeps the preview's CPU cost negligible and avoids adding a second
// lock-free consumer to the hot path.
func (p *DevPreview) Read(buf []byte) (int, error) {
	e := p.engine.Load()
	if e == nil {
		for i := range buf {
			buf[i] = 0
		}
		return len(buf), nil
	}
	st := e.Status.Snapshot()
	amplitude := (st.Peaks.OutL + st.Peaks.OutR) / 2

	n := len(buf) / 4
	for i := 0; i < n; i++ {
		v := amplitude
		putFloat32LE(buf[i*4:], v)
	}
	return n * 4, nil
}

func putFloat32LE(b []byte, v float32) {
	bits := math.Float32bits(v)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}

// Run blocks until ctx is cancelled, keeping the player alive for the
// process lifetime.
func (p *DevPreview) Run(ctx context.Context) error {
	<-ctx.Done()
	if p.player != nil {
		p.player.Close()
	}
	return nil
}
