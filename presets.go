// presets.go - named preset loading (spec.md §3, §11.1).
//
// Presets are authored offline as Lua tables and compiled to this JSON
// shape by cmd/presetc (gopher-lua is an author-time dependency only;
// the firmware itself never embeds a Lua runtime, matching the
// teacher's own split between its asset-compiling tools/ commands and
// the emulator binary they feed).
//
// Licensed under the GNU General Public License v3.0 or later.

package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// PresetSet is a compiled preset bundle: named EQ recipe lists and
// named crossfeed presets, loadable at startup in addition to the
// three built-in crossfeed presets in crossfeed.go.
type PresetSet struct {
	EQ        map[string][]FilterRecipe  `json:"eq"`
	Crossfeed map[string]CrossfeedPreset `json:"crossfeed"`
}

// LoadPresetSet reads a preset bundle compiled by cmd/presetc. A missing
// file is not an error: callers fall back to the three built-in
// crossfeed presets and no extra EQ presets.
func LoadPresetSet(path string) (PresetSet, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return PresetSet{}, false, nil
	}
	if err != nil {
		return PresetSet{}, false, fmt.Errorf("presets: read: %w", err)
	}
	var set PresetSet
	if err := json.Unmarshal(data, &set); err != nil {
		return PresetSet{}, false, fmt.Errorf("presets: decode: %w", err)
	}
	return set, true, nil
}
