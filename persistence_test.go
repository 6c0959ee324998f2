// persistence_test.go - coverage for flash settings save/load, matching
// the teacher's file_io.go convention of sandboxing file I/O to a test
// temp directory.

package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveLoadFlashRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.flash")

	want := FlashRecord{
		PreampDB:         -3,
		LoudnessEnabled:  true,
		LoudnessRefSPL:   80,
		CrossfeedEnabled: true,
		CrossfeedPreset:  "Strong",
		CrossfeedCutoff:  1400,
		CrossfeedFeedDB:  9,
		MasterVolumeDB:   -12,
		SampleRateHz:     SampleRate48000,
		MasterEQ: []FilterRecipe{
			{Channel: ChannelMasterL, Band: 0, Type: FilterPeaking, FreqHz: 1000, Q: 0.7, GainDB: 3},
		},
	}
	want.ChannelGainDB[ChannelOutL] = -1.5
	want.ChannelMute[ChannelSub] = true
	want.ChannelDelayMS[ChannelOutR] = 2.5

	if err := SaveFlashRecord(path, want); err != nil {
		t.Fatalf("SaveFlashRecord: %v", err)
	}

	got, ok, err := LoadFlashRecord(path)
	if err != nil {
		t.Fatalf("LoadFlashRecord: %v", err)
	}
	if !ok {
		t.Fatalf("expected LoadFlashRecord to report ok=true for an existing file")
	}
	if got.PreampDB != want.PreampDB || got.CrossfeedPreset != want.CrossfeedPreset || got.ChannelMute[ChannelSub] != true {
		t.Fatalf("round-tripped record mismatch: got %+v, want %+v", got, want)
	}
	if len(got.MasterEQ) != 1 || got.MasterEQ[0].FreqHz != 1000 {
		t.Fatalf("expected EQ recipes to round-trip, got %+v", got.MasterEQ)
	}
}

func TestLoadFlashRecordMissingFileIsNotAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.flash")
	_, ok, err := LoadFlashRecord(path)
	if err != nil {
		t.Fatalf("expected no error for a missing settings file, got %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for a missing settings file")
	}
}

func TestLoadFlashRecordRejectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.flash")
	if err := SaveFlashRecord(path, FlashRecord{PreampDB: 1}); err != nil {
		t.Fatalf("SaveFlashRecord: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back saved file: %v", err)
	}
	data[len(data)-1] ^= 0xFF // flip a byte in the checksum trailer
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("corrupting file: %v", err)
	}

	_, ok, err := LoadFlashRecord(path)
	if err == nil || ok {
		t.Fatalf("expected a checksum-mismatch error for a corrupted record, got ok=%v err=%v", ok, err)
	}
}
