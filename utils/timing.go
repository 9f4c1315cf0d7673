package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds the wall time of each pipeline stage
type TimingStats struct {
	TotalTime      time.Duration
	GenerateTime   time.Duration
	PreprocessTime time.Duration
	ModelInitTime  time.Duration
	TrainTime      time.Duration
	EvaluateTime   time.Duration
	RenderTime     time.Duration
	HEInitTime     time.Duration
	SplitTime      time.Duration
}

// Track runs fn and adds its duration to *dst.
func Track(dst *time.Duration, fn func() error) error {
	start := time.Now()
	err := fn()
	*dst += time.Since(start)
	return err
}

// PrintTimingStats prints the per-stage breakdown.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats, epochs int) {
	if !Verbose {
		return
	}
	pct := func(d time.Duration) float64 {
		if stats.TotalTime == 0 {
			return 0
		}
		return float64(d) / float64(stats.TotalTime) * 100
	}
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total run time: %v\n", stats.TotalTime)
	if epochs > 0 {
		fmt.Fprintf(Output, "Average time per epoch: %v\n", stats.TrainTime/time.Duration(epochs))
	}
	fmt.Fprintln(Output, "\nBreakdown by stage:")
	fmt.Fprintf(Output, "  Data generation: %v (%.1f%%)\n", stats.GenerateTime, pct(stats.GenerateTime))
	fmt.Fprintf(Output, "  Split and scaling: %v (%.1f%%)\n", stats.PreprocessTime, pct(stats.PreprocessTime))
	fmt.Fprintf(Output, "  Model initialization: %v (%.1f%%)\n", stats.ModelInitTime, pct(stats.ModelInitTime))
	fmt.Fprintf(Output, "  Training: %v (%.1f%%)\n", stats.TrainTime, pct(stats.TrainTime))
	fmt.Fprintf(Output, "  Evaluation: %v (%.1f%%)\n", stats.EvaluateTime, pct(stats.EvaluateTime))
	fmt.Fprintf(Output, "  Chart rendering: %v (%.1f%%)\n", stats.RenderTime, pct(stats.RenderTime))
	if stats.HEInitTime > 0 || stats.SplitTime > 0 {
		fmt.Fprintf(Output, "  HE initialization: %v (%.1f%%)\n", stats.HEInitTime, pct(stats.HEInitTime))
		fmt.Fprintf(Output, "  Split inference: %v (%.1f%%)\n", stats.SplitTime, pct(stats.SplitTime))
	}
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
