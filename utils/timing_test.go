package utils

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	got := DurationUS(d)
	if math.Abs(got-1234.567) > 0.001 {
		t.Fatalf("want 1234.567µs, got %.3f", got)
	}
}

func TestTrack(t *testing.T) {
	var d time.Duration
	want := errors.New("boom")
	if err := Track(&d, func() error { time.Sleep(time.Millisecond); return want }); err != want {
		t.Fatalf("Track returned %v, want %v", err, want)
	}
	if d < time.Millisecond {
		t.Fatalf("Track recorded %v, want >= 1ms", d)
	}
}

func TestPrintTimingStats(t *testing.T) {
	var buf bytes.Buffer
	oldOut, oldVerbose := Output, Verbose
	defer func() { Output, Verbose = oldOut, oldVerbose }()
	Output = &buf

	stats := &TimingStats{TotalTime: 10 * time.Second, TrainTime: 8 * time.Second}
	Verbose = false
	PrintTimingStats(stats, 4)
	if buf.Len() != 0 {
		t.Fatalf("expected no output when not verbose, got %q", buf.String())
	}

	Verbose = true
	PrintTimingStats(stats, 4)
	out := buf.String()
	for _, want := range []string{"Average time per epoch: 2s", "Training: 8s (80.0%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Split inference") {
		t.Errorf("split line printed without split timings:\n%s", out)
	}
}
