// status_test.go - coverage for the status read-back snapshot board.

package main

import "testing"

func TestStatusBoardPublishThenSnapshot(t *testing.T) {
	board := newStatusBoard()
	board.Publish(Status{SampleRateHz: SampleRate96000, NumericMode: "float32"})

	got := board.Snapshot()
	if got.SampleRateHz != SampleRate96000 || got.NumericMode != "float32" {
		t.Fatalf("expected Snapshot to return the last published status, got %+v", got)
	}
}

func TestStatusBoardSnapshotBeforeAnyPublishIsZeroValue(t *testing.T) {
	board := newStatusBoard()
	got := board.Snapshot()
	if got.SampleRateHz != 0 || got.Counters.PacketsReceived != 0 {
		t.Fatalf("expected a zero-value status before any Publish, got %+v", got)
	}
}

func TestStatusBoardPublishCoreBLoadSurvivesPublish(t *testing.T) {
	board := newStatusBoard()
	board.PublishCoreBLoad(CoreLoad{FractionBusy: 0.42})
	board.Publish(Status{SampleRateHz: SampleRate48000})

	got := board.Snapshot()
	if got.CoreBLoad.FractionBusy != 0.42 {
		t.Fatalf("expected Core A's Publish to leave Core B's independently-published load intact, got %+v", got.CoreBLoad)
	}
	if got.SampleRateHz != SampleRate48000 {
		t.Fatalf("expected Publish's other fields to still apply, got %+v", got)
	}
}
