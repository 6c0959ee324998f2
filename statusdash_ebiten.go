// statusdash_ebiten.go - live status dashboard, GUI backend (spec.md
// §1.1, §11).
//
// Grounded on the teacher's GUI frontend shape: an ebiten.Game whose
// Update/Draw pair polls shared state once per frame rather than being
// pushed to, the same pull-based read-back the rest of this repo uses
// for status (status.go's StatusBoard.Snapshot).
//
// Licensed under the GNU General Public License v3.0 or later.

//go:build !headless

package main

import (
	"context"
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

const (
	dashWidth  = 480
	dashHeight = 240
)

// StatusDashboard renders Engine's live status in a small window (no
// always-on-top setting is applied): peak meters, queue occupancy, Core A
// load, and fault counters.
type StatusDashboard struct {
	engine   *Engine
	headless bool
}

func newStatusDashboard(e *Engine, headless bool) *StatusDashboard {
	return &StatusDashboard{engine: e, headless: headless}
}

func (d *StatusDashboard) Update() error {
	return nil
}

func (d *StatusDashboard) Draw(screen *ebiten.Image) {
	st := d.engine.Status.Snapshot()
	screen.Fill(color.RGBA{16, 16, 20, 255})

	drawMeter(screen, 10, 10, "Master L", st.Peaks.MasterL)
	drawMeter(screen, 10, 30, "Master R", st.Peaks.MasterR)
	drawMeter(screen, 10, 50, "Out L", st.Peaks.OutL)
	drawMeter(screen, 10, 70, "Out R", st.Peaks.OutR)
	drawMeter(screen, 10, 90, "Sub", st.Peaks.OutSub)

	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("rate=%.0fHz mode=%s crossfeed=%s",
		st.SampleRateHz, st.NumericMode, st.CrossfeedName), 10, 120)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("pdm_queue=%d spdif_ready=%d core_a=%.0f%%",
		st.PDMQueueLen, st.SPDIFReady, st.CoreALoad.FractionBusy*100), 10, 136)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("feedback=0x%08X stabilizing=%v",
		st.Feedback.Value, st.Feedback.Stabilizing), 10, 152)
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("packets=%d underruns=%d overruns=%d pdm_overruns=%d",
		st.Counters.PacketsReceived, st.Counters.Underruns, st.Counters.Overruns, st.Counters.PDMRingOverruns), 10, 168)
}

func drawMeter(screen *ebiten.Image, x, y int, label string, value float32) {
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%-9s %5.1f dB", label, peakToDB(value)), x, y)
}

func peakToDB(v float32) float64 {
	return linearToDB(v)
}

func (d *StatusDashboard) Layout(outsideWidth, outsideHeight int) (int, int) {
	return dashWidth, dashHeight
}

// Run drives the ebiten event loop until ctx is cancelled or the window
// is closed. Skipped entirely when the caller requested a headless
// runtime preview (cfg.headless), even in a non-headless build.
func (d *StatusDashboard) Run(ctx context.Context) error {
	if d.headless {
		<-ctx.Done()
		return nil
	}
	ebiten.SetWindowSize(dashWidth, dashHeight)
	ebiten.SetWindowTitle("duocore-audio status")
	return ebiten.RunGame(d)
}
