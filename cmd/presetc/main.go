// main.go - preset compiler: turns an author-friendly Lua preset
// definition into the JSON bundle presets.go loads at runtime (spec.md
// §11.1).
//
// Grounded on the teacher's tools/ subcommands: a small standalone
// cmd/ binary, separate from the firmware's own main package, that
// compiles an authoring-time format into the runtime's loading format.
// gopher-lua is used exactly the way an asset-compiling tool would use
// an embeddable scripting language: run the script, read back the
// global tables it populated, done.
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"
)

// filterRecipeJSON mirrors the firmware's FilterRecipe shape without
// importing the firmware's package main (a command can't import
// another main package), keeping this tool fully standalone.
type filterRecipeJSON struct {
	Channel int     `json:"Channel"`
	Band    int     `json:"Band"`
	Type    int     `json:"Type"`
	FreqHz  float64 `json:"FreqHz"`
	Q       float64 `json:"Q"`
	GainDB  float64 `json:"GainDB"`
}

type crossfeedPresetJSON struct {
	Name     string  `json:"Name"`
	CutoffHz float64 `json:"CutoffHz"`
	FeedDB   float64 `json:"FeedDB"`
}

type presetSetJSON struct {
	EQ        map[string][]filterRecipeJSON  `json:"eq"`
	Crossfeed map[string]crossfeedPresetJSON `json:"crossfeed"`
}

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, "usage: presetc <input.lua> <output.json>")
		os.Exit(2)
	}
	inPath, outPath := os.Args[1], os.Args[2]

	out, err := compile(inPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "presetc:", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "presetc: marshal:", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		fmt.Fprintln(os.Stderr, "presetc: write:", err)
		os.Exit(1)
	}
}

// compile runs the Lua script at path and reads back two globals it is
// expected to populate: `eq`, a table of named arrays of band tables,
// and `crossfeed`, a table of named {cutoff_hz, feed_db} tables.
func compile(path string) (presetSetJSON, error) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoFile(path); err != nil {
		return presetSetJSON{}, fmt.Errorf("running %s: %w", path, err)
	}

	out := presetSetJSON{
		EQ:        map[string][]filterRecipeJSON{},
		Crossfeed: map[string]crossfeedPresetJSON{},
	}

	if eqVal := L.GetGlobal("eq"); eqVal.Type() == lua.LTTable {
		eqTable := eqVal.(*lua.LTable)
		eqTable.ForEach(func(nameVal, bandsVal lua.LValue) {
			name := nameVal.String()
			bandsTable, ok := bandsVal.(*lua.LTable)
			if !ok {
				return
			}
			var recipes []filterRecipeJSON
			bandsTable.ForEach(func(_, bandVal lua.LValue) {
				bandTable, ok := bandVal.(*lua.LTable)
				if !ok {
					return
				}
				recipes = append(recipes, filterRecipeJSON{
					Channel: int(lua.LVAsNumber(bandTable.RawGetString("channel"))),
					Band:    int(lua.LVAsNumber(bandTable.RawGetString("band"))),
					Type:    int(lua.LVAsNumber(bandTable.RawGetString("type"))),
					FreqHz:  float64(lua.LVAsNumber(bandTable.RawGetString("freq_hz"))),
					Q:       float64(lua.LVAsNumber(bandTable.RawGetString("q"))),
					GainDB:  float64(lua.LVAsNumber(bandTable.RawGetString("gain_db"))),
				})
			})
			out.EQ[name] = recipes
		})
	}

	if cfVal := L.GetGlobal("crossfeed"); cfVal.Type() == lua.LTTable {
		cfTable := cfVal.(*lua.LTable)
		cfTable.ForEach(func(nameVal, presetVal lua.LValue) {
			name := nameVal.String()
			presetTable, ok := presetVal.(*lua.LTable)
			if !ok {
				return
			}
			out.Crossfeed[name] = crossfeedPresetJSON{
				Name:     name,
				CutoffHz: float64(lua.LVAsNumber(presetTable.RawGetString("cutoff_hz"))),
				FeedDB:   float64(lua.LVAsNumber(presetTable.RawGetString("feed_db"))),
			}
		})
	}

	return out, nil
}
