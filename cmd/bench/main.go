package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"distmul/api"
	"distmul/backend"
	"distmul/matrix"
	"distmul/orchestrator"
	"distmul/utils"

	"gonum.org/v1/gonum/stat"
)

// parseCSVInts parses a comma-separated list of integers
func parseCSVInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid int %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func randomMatrix(rng *rand.Rand, n int) *matrix.Matrix {
	m := matrix.New(n)
	for i := range m.Data {
		m.Data[i] = rng.Intn(201) - 100
	}
	return m
}

// leafMicros is the request time in µs divided over its leaf calls.
func leafMicros(stats *utils.DispatchStats) float64 {
	leaves := stats.TotalLeafCalls()
	if leaves == 0 {
		return 0
	}
	return utils.DurationUS(stats.TotalTime) / float64(leaves)
}

// measure runs one (mode, size) case and returns per-iteration times in ms,
// per-leaf times in µs, and the servers used by the last run.
func measure(ctx context.Context, m *orchestrator.Multiplier, p orchestrator.Policy, a, b *matrix.Matrix, iters, warmup int) ([]float64, []float64, int, error) {
	for i := 0; i < warmup; i++ {
		if _, err := m.Multiply(ctx, a, b, p); err != nil {
			return nil, nil, 0, err
		}
	}

	times := make([]float64, 0, iters)
	leafTimes := make([]float64, 0, iters)
	servers := 0
	for i := 0; i < iters; i++ {
		start := time.Now()
		_, stats, err := m.MultiplyStats(ctx, a, b, p)
		if err != nil {
			return nil, nil, 0, err
		}
		times = append(times, utils.DurationMS(time.Since(start)))
		leafTimes = append(leafTimes, leafMicros(stats))
		servers = stats.ServersToUse
	}
	return times, leafTimes, servers, nil
}

func main() {
	var backendsCSV string
	var modesCSV string
	var sizesCSV string
	var outPath string
	var server string
	var iters int
	var warmup int
	var leaf int
	var deadlineMS int
	var seed int64

	flag.StringVar(&backendsCSV, "backends", "localhost:9000", "Comma-separated backend addresses")
	flag.StringVar(&modesCSV, "modes", "single-matrix,single-server,multiple-servers,footprint,multi-thread", "Comma-separated modes to run")
	flag.StringVar(&sizesCSV, "sizes", "64,128,256", "Comma-separated matrix sides (powers of two)")
	flag.StringVar(&outPath, "out", "bench_results.csv", "Output CSV path")
	flag.StringVar(&server, "server", "", "Backend used by multi-thread mode (defaults to the first backend)")
	flag.IntVar(&iters, "iters", 10, "Iterations per (mode, size) for averaging")
	flag.IntVar(&warmup, "warmup", 1, "Warmup runs per (mode, size) before timing")
	flag.IntVar(&leaf, "leaf", 0, "Leaf threshold, 0 for the per-mode default")
	flag.IntVar(&deadlineMS, "deadline", 1000, "Deadline in ms for footprint mode")
	flag.Int64Var(&seed, "seed", 42, "Random seed")
	flag.Parse()
	utils.Verbose = false

	addrs := utils.ParseBackends(backendsCSV)
	if len(addrs) == 0 {
		fmt.Fprintf(os.Stderr, "no backends given\n")
		os.Exit(2)
	}
	if server == "" {
		server = addrs[0]
	}
	sizes, err := parseCSVInts(sizesCSV)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid sizes: %v\n", err)
		os.Exit(2)
	}
	modes := []api.Mode{}
	for _, s := range strings.Split(modesCSV, ",") {
		if strings.TrimSpace(s) == "" {
			continue
		}
		mode, err := api.ParseMode(s)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid mode: %v\n", err)
			os.Exit(2)
		}
		modes = append(modes, mode)
	}

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create output CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	w.Write([]string{"mode", "size", "leaf", "servers", "iters", "mean_ms", "stddev_ms", "mean_leaf_us"})

	defaults := api.Defaults{
		LeafThreshold:          utils.DefaultLeafThreshold,
		MultiCoreLeafThreshold: utils.DefaultMultiCoreLeafThreshold,
	}
	multiplier := orchestrator.New(backend.NewClient(addrs, utils.DefaultDialTimeoutMS*time.Millisecond))
	rng := rand.New(rand.NewSource(seed))
	ctx := context.Background()

	for _, size := range sizes {
		if !matrix.IsPowerOfTwo(size) {
			fmt.Fprintf(os.Stderr, "skip size %d: not a power of two\n", size)
			continue
		}
		a, b := randomMatrix(rng, size), randomMatrix(rng, size)
		for _, mode := range modes {
			p := mode.Policy(size, leaf, time.Duration(deadlineMS)*time.Millisecond, server, defaults)
			times, leafTimes, servers, err := measure(ctx, multiplier, p, a, b, iters, warmup)
			if err != nil {
				fmt.Fprintf(os.Stderr, "skip %s size %d: %v\n", mode, size, err)
				continue
			}
			mean, std := stat.MeanStdDev(times, nil)
			w.Write([]string{
				mode.String(),
				strconv.Itoa(size),
				strconv.Itoa(p.LeafThreshold),
				strconv.Itoa(servers),
				strconv.Itoa(len(times)),
				fmt.Sprintf("%.3f", mean),
				fmt.Sprintf("%.3f", std),
				fmt.Sprintf("%.3f", stat.Mean(leafTimes, nil)),
			})
			fmt.Printf("%-16s size=%-5d mean=%.3fms std=%.3fms servers=%d\n", mode, size, mean, std, servers)
		}
		w.Flush()
	}
}
