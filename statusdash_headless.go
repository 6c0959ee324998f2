// statusdash_headless.go - live status dashboard, terminal backend
// (spec.md §1.1, §11).
//
// Grounded on the teacher's terminal-mode frontend: raw-mode stdout
// writes gated behind golang.org/x/term, redrawing in place rather than
// scrolling, with the same "poll shared state on a ticker" shape as the
// GUI backend.
//
// Licensed under the GNU General Public License v3.0 or later.

//go:build headless

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/term"
)

// StatusDashboard renders Engine's live status as periodic redraws of
// the current terminal line, using raw mode only to suppress local echo
// and cursor movement artifacts; no input is read.
type StatusDashboard struct {
	engine   *Engine
	headless bool
}

func newStatusDashboard(e *Engine, headless bool) *StatusDashboard {
	return &StatusDashboard{engine: e, headless: headless}
}

// Run redraws the status line every 100ms until ctx is cancelled.
func (d *StatusDashboard) Run(ctx context.Context) error {
	fd := int(os.Stdout.Fd())
	raw := term.IsTerminal(fd)
	var oldState *term.State
	if raw {
		var err error
		oldState, err = term.MakeRaw(fd)
		if err != nil {
			raw = false
		}
	}
	if raw {
		defer term.Restore(fd, oldState)
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st := d.engine.Status.Snapshot()
			line := fmt.Sprintf("\rrate=%.0fHz mode=%s L=%5.1fdB R=%5.1fdB sub=%5.1fdB crossfeed=%s pdm_q=%d spdif_ready=%d core_a=%.0f%% underruns=%d overruns=%d",
				st.SampleRateHz, st.NumericMode,
				linearToDB(st.Peaks.OutL), linearToDB(st.Peaks.OutR), linearToDB(st.Peaks.OutSub),
				st.CrossfeedName, st.PDMQueueLen, st.SPDIFReady, st.CoreALoad.FractionBusy*100,
				st.Counters.Underruns, st.Counters.Overruns)
			if raw {
				fmt.Fprint(os.Stdout, line)
			} else {
				fmt.Fprintln(os.Stdout, line)
			}
		}
	}
}
