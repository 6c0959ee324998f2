// main.go - process entry point (spec.md §1, §4).
//
// Grounded on the teacher's main.go: manual os.Args parsing (no flag
// framework) with a usage message printed to stderr on bad input, and a
// single top-level error path that prints and exits rather than
// panicking. The dual-core split is grounded on the teacher's own
// goroutine-per-subsystem shape (its audio backend and CPU emulation
// loop already run as separate goroutines coordinated by channels);
// here golang.org/x/sync/errgroup supervises four goroutines: Core A and
// Core B, standing in for the two physical cores' watchdog-supervised
// firmware loops, plus the status dashboard and the dev preview.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"golang.org/x/sync/errgroup"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: firmware [options]

  -rate HZ        initial sample rate: 44100, 48000, or 96000 (default 48000)
  -headless       force the headless status/dev-preview backends
  -settings PATH  flash settings file path (default ./settings.flash)
  -presets PATH   compiled preset bundle path (default ./presets.json)
  -preset NAME    named preset (EQ and/or crossfeed) to apply at startup
  -h, -help       show this message
`)
}

type runConfig struct {
	sampleRateHz float64
	headless     bool
	settingsPath string
	presetsPath  string
	presetName   string
}

func parseArgs(args []string) (runConfig, error) {
	cfg := runConfig{sampleRateHz: SampleRate48000, settingsPath: "settings.flash", presetsPath: "presets.json"}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-rate":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("-rate requires a value")
			}
			switch args[i] {
			case "44100":
				cfg.sampleRateHz = SampleRate44100
			case "48000":
				cfg.sampleRateHz = SampleRate48000
			case "96000":
				cfg.sampleRateHz = SampleRate96000
			default:
				return cfg, fmt.Errorf("unsupported -rate %q", args[i])
			}
		case "-headless":
			cfg.headless = true
		case "-settings":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("-settings requires a value")
			}
			cfg.settingsPath = args[i]
		case "-presets":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("-presets requires a value")
			}
			cfg.presetsPath = args[i]
		case "-preset":
			i++
			if i >= len(args) {
				return cfg, fmt.Errorf("-preset requires a value")
			}
			cfg.presetName = args[i]
		case "-h", "-help", "--help":
			usage()
			os.Exit(0)
		default:
			return cfg, fmt.Errorf("unrecognized argument %q", args[i])
		}
	}
	return cfg, nil
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "firmware:", err)
		usage()
		os.Exit(2)
	}

	engine := NewEngine(cfg.sampleRateHz)

	if rec, ok, err := LoadFlashRecord(cfg.settingsPath); err != nil {
		fmt.Fprintln(os.Stderr, "firmware: settings load:", err)
	} else if ok {
		applyFlashRecord(engine, rec)
	}

	if set, ok, err := LoadPresetSet(cfg.presetsPath); err != nil {
		fmt.Fprintln(os.Stderr, "firmware: presets load:", err)
	} else if ok && cfg.presetName != "" {
		applyPresetSet(engine, set, cfg.presetName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dash := newStatusDashboard(engine, cfg.headless)
	preview := newDevPreview(engine, cfg.headless)

	g, ctx := errgroup.WithContext(ctx)

	// Core A: packet ingest and the 11-step DSP pipeline.
	g.Go(func() error {
		return runCoreA(ctx, engine, cfg.sampleRateHz)
	})

	// Core B: PDM modulation and S/PDIF framing, draining the queues
	// Core A fills.
	g.Go(func() error {
		return runCoreB(ctx, engine)
	})

	g.Go(func() error {
		return dash.Run(ctx)
	})

	g.Go(func() error {
		return preview.Run(ctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "firmware: fatal:", err)
		os.Exit(1)
	}

	if err := SaveFlashRecord(cfg.settingsPath, flashRecordFromEngine(engine)); err != nil {
		fmt.Fprintln(os.Stderr, "firmware: settings save:", err)
	}
}

// runCoreA simulates the firmware's audio-ingest core: it synthesizes
// isochronous packets at the configured rate (standing in for USB
// endpoint DMA completion interrupts, since this is a host simulation
// with no real USB peripheral) and runs them through Engine.ProcessPacket.
func runCoreA(ctx context.Context, engine *Engine, sampleRateHz float64) error {
	const packetFrames = 48 // within MinPacketSamples..MaxPacketSamples
	period := time.Duration(float64(packetFrames) / sampleRateHz * 1e9)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	rng := rand.New(rand.NewSource(1))
	start := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frames := make([][2]int16, packetFrames)
			for i := range frames {
				v := int16(rng.Intn(2000) - 1000)
				frames[i] = [2]int16{v, v}
			}
			engine.ProcessPacket(AudioPacket{
				Frames:        frames,
				ArrivalMicros: time.Since(start).Microseconds(),
			})
		}
	}
}

// runCoreB simulates the firmware's output core: it advances the
// simulated PDM DMA ring, drains the PCM->PDM queue through the
// modulator, and drains completed S/PDIF buffers, standing in for the
// PIO state machines a real device would drive. It publishes its own
// per-tick CPU load the same way Core A does (spec.md §4.2 "The PDM
// loop does the same on Core B").
func runCoreB(ctx context.Context, engine *Engine) error {
	const tick = time.Millisecond
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()

			rateHz := engine.Clock.Current().sampleRateHz
			engine.PDMMod.AdvanceDMA(uint32(rateHz / 1000 * pdmWordsPerSample))

			drained := 0
			for i := 0; i < pdmQueueSize; i++ {
				if !engine.PDMMod.Drain(engine.PDMQueue) {
					break
				}
				drained++
			}
			if drained == 0 {
				engine.NotePDMUnderrun()
			}

			taken := 0
			for {
				if _, ok := engine.SPDIF.TakeBuffer(); !ok {
					break
				}
				taken++
			}
			if taken == 0 {
				engine.NoteSPDIFUnderrun()
			}

			engine.Status.PublishCoreBLoad(CoreLoad{FractionBusy: fractionBusy(time.Since(start), tick)})
		}
	}
}

func applyFlashRecord(e *Engine, r FlashRecord) {
	e.Control.Stage(ParamWrite{ID: ParamPreampDB, Float: r.PreampDB})
	e.Control.Stage(ParamWrite{ID: ParamLoudnessEnabled, Bool: r.LoudnessEnabled})
	e.Control.Stage(ParamWrite{ID: ParamLoudnessRefSPL, Float: r.LoudnessRefSPL})
	e.Control.Stage(ParamWrite{ID: ParamCrossfeedEnabled, Bool: r.CrossfeedEnabled})
	e.Control.Stage(ParamWrite{ID: ParamCrossfeedPreset, Recipe: FilterRecipe{FreqHz: r.CrossfeedCutoff, GainDB: r.CrossfeedFeedDB}})
	for ch := ChannelID(0); ch < numChannels; ch++ {
		e.Control.Stage(ParamWrite{ID: ParamChannelGainDB, Channel: ch, Float: r.ChannelGainDB[ch]})
		e.Control.Stage(ParamWrite{ID: ParamChannelMute, Channel: ch, Bool: r.ChannelMute[ch]})
		e.Control.Stage(ParamWrite{ID: ParamChannelDelayMillis, Channel: ch, Float: r.ChannelDelayMS[ch]})
	}
	e.Control.Stage(ParamWrite{ID: ParamMasterVolumeDB, Float: r.MasterVolumeDB})
	for _, recipe := range r.MasterEQ {
		e.Control.Stage(ParamWrite{ID: ParamMasterEQBand, Channel: recipe.Channel, Band: recipe.Band, Recipe: recipe})
	}
	for _, recipe := range r.OutEQ {
		e.Control.Stage(ParamWrite{ID: ParamOutEQBand, Channel: recipe.Channel, Band: recipe.Band, Recipe: recipe})
	}
	e.ApplyPending()
}

// applyPresetSet stages one named preset from a compiled bundle (cmd/
// presetc's output) onto the running engine: every EQ recipe under that
// name, routed to the master or output bank by its Channel field, plus a
// crossfeed preset of the same name if one exists (spec.md §11.1).
func applyPresetSet(e *Engine, set PresetSet, name string) {
	for _, recipe := range set.EQ[name] {
		switch recipe.Channel {
		case ChannelMasterL, ChannelMasterR:
			e.Control.Stage(ParamWrite{ID: ParamMasterEQBand, Channel: recipe.Channel, Band: recipe.Band, Recipe: recipe})
		case ChannelOutL, ChannelOutR, ChannelSub:
			e.Control.Stage(ParamWrite{ID: ParamOutEQBand, Channel: recipe.Channel, Band: recipe.Band, Recipe: recipe})
		}
	}
	if cf, ok := set.Crossfeed[name]; ok {
		e.Control.Stage(ParamWrite{ID: ParamCrossfeedPreset, Recipe: FilterRecipe{FreqHz: cf.CutoffHz, GainDB: cf.FeedDB}})
		e.Control.Stage(ParamWrite{ID: ParamCrossfeedEnabled, Bool: true})
	}
	e.ApplyPending()
}

func flashRecordFromEngine(e *Engine) FlashRecord {
	p := e.Pipeline
	r := FlashRecord{
		PreampDB:         linearToDB(p.PreampGain),
		LoudnessEnabled:  p.LoudnessEnabled,
		LoudnessRefSPL:   p.Loudness.refSPL,
		CrossfeedEnabled: p.Crossfeed.Enabled,
		CrossfeedPreset:  p.Crossfeed.Preset().Name,
		CrossfeedCutoff:  p.Crossfeed.Preset().CutoffHz,
		CrossfeedFeedDB:  p.Crossfeed.Preset().FeedDB,
		MasterVolumeDB:   linearToDB(p.MasterVolume),
		SampleRateHz:     e.Clock.Current().sampleRateHz,
	}
	for ch := ChannelID(0); ch < numChannels; ch++ {
		r.ChannelGainDB[ch] = linearToDB(p.ChannelGain[ch])
		r.ChannelMute[ch] = p.ChannelMute[ch]
		r.ChannelDelayMS[ch] = float64(p.Delay[ch].delaySamples-p.Delay[ch].autoAlignSamples) * 1000 / r.SampleRateHz
	}
	for i, bank := range append(p.MasterEQ[:], p.OutEQ[:]...) {
		for band, rc := range bank.recipes {
			rc.Channel, rc.Band = ChannelID(i), band
			switch {
			case rc.Type == FilterFlat:
			case i < len(p.MasterEQ):
				r.MasterEQ = append(r.MasterEQ, rc)
			default:
				r.OutEQ = append(r.OutEQ, rc)
			}
		}
	}
	return r
}
