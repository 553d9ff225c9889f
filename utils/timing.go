package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether statistics and log lines are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where dispatch statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// LogOutput is the writer where log lines are printed.
// Defaults to os.Stderr.
var LogOutput io.Writer = os.Stderr

// DispatchStats holds what one top-level multiplication did
type DispatchStats struct {
	Mode          string
	Size          int
	LeafThreshold int
	ServersToUse  int
	Footprint     time.Duration
	LeafCalls     []int64
	AddCalls      int64
	TotalTime     time.Duration
}

// TotalLeafCalls sums leaf calls over all backends.
func (s *DispatchStats) TotalLeafCalls() int64 {
	var total int64
	for _, c := range s.LeafCalls {
		total += c
	}
	return total
}

// PrintDispatchStats prints the dispatch statistics of one request.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintDispatchStats(stats *DispatchStats) {
	if !Verbose {
		return
	}
	fmt.Fprintln(Output, "\n=== DISPATCH STATISTICS ===")
	fmt.Fprintf(Output, "Mode: %s\n", stats.Mode)
	fmt.Fprintf(Output, "Matrix size: %d (leaf threshold %d)\n", stats.Size, stats.LeafThreshold)
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	if stats.Footprint > 0 {
		fmt.Fprintf(Output, "Footprint: %v\n", stats.Footprint)
	}
	fmt.Fprintf(Output, "Servers used: %d\n", stats.ServersToUse)
	total := stats.TotalLeafCalls()
	fmt.Fprintf(Output, "Leaf multiplications: %d\n", total)
	fmt.Fprintf(Output, "Remote additions: %d\n", stats.AddCalls)
	if total == 0 {
		return
	}
	fmt.Fprintln(Output, "\nLeaf calls by backend:")
	for i, c := range stats.LeafCalls {
		if c == 0 {
			continue
		}
		fmt.Fprintf(Output, "  backend %d: %d (%.1f%%)\n", i, c, float64(c)/float64(total)*100)
	}
}

// Logf prints a log line tagged with component when Verbose is set.
func Logf(component, format string, args ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(LogOutput, "["+component+"] "+format+"\n", args...)
}

// DurationMS converts any time.Duration to milliseconds as float64
func DurationMS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000_000.0
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
