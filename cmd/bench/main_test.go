package main

import (
	"testing"
	"time"

	"distmul/utils"
)

func TestLeafMicros(t *testing.T) {
	stats := &utils.DispatchStats{LeafCalls: []int64{3, 1}, TotalTime: 2 * time.Millisecond}
	if got, want := leafMicros(stats), 500.0; got != want {
		t.Errorf("got %v, want %v", got, want)
	}
	if got := leafMicros(&utils.DispatchStats{TotalTime: time.Second}); got != 0 {
		t.Errorf("no leaves: got %v, want 0", got)
	}
}

func TestParseCSVInts(t *testing.T) {
	got, err := parseCSVInts(" 64, 128,,256")
	if err != nil {
		t.Fatalf("parseCSVInts failed: %v", err)
	}
	if len(got) != 3 || got[0] != 64 || got[2] != 256 {
		t.Errorf("got %v", got)
	}
	if _, err := parseCSVInts("64,x"); err == nil {
		t.Errorf("expected an error for a non-integer entry")
	}
}
