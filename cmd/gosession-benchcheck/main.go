// Command gosession-benchcheck compares two `go test -bench` outputs and fails when a
// tracked hot-path benchmark regressed past the threshold.
//
//	go test -run '^$' -bench . -count 6 . > new.txt
//	gosession-benchcheck -baseline old.txt -candidate new.txt
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const defaultThreshold = 0.30

// trackedMetrics lists the gate hot paths and the units compared for each.
var trackedMetrics = map[string][]string{
	"BenchmarkCurrent":                       {"ns/op", "allocs/op"},
	"BenchmarkAuthorize":                     {"ns/op", "allocs/op"},
	"BenchmarkRefresh":                       {"ns/op"},
	"BenchmarkMetricsInc":                    {"ns/op"},
	"BenchmarkMetricsObserveLatencyParallel": {"ns/op"},
}

type sampleSet map[string]map[string][]float64

type comparison struct {
	benchmark string
	unit      string
	baseline  float64
	candidate float64
	delta     float64
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gosession-benchcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	baselinePath := fs.String("baseline", "", "path to baseline benchmark output")
	candidatePath := fs.String("candidate", "", "path to candidate benchmark output")
	threshold := fs.Float64("threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *baselinePath == "" || *candidatePath == "" {
		fmt.Fprintln(stderr, "-baseline and -candidate are required")
		return 2
	}
	if *threshold < 0 {
		fmt.Fprintln(stderr, "-threshold must be >= 0")
		return 2
	}

	baseline, err := parseFile(*baselinePath)
	if err != nil {
		fmt.Fprintf(stderr, "parse baseline: %v\n", err)
		return 1
	}
	candidate, err := parseFile(*candidatePath)
	if err != nil {
		fmt.Fprintf(stderr, "parse candidate: %v\n", err)
		return 1
	}

	results, failures := compare(baseline, candidate, *threshold)
	fmt.Fprintln(stdout, "benchmark unit baseline candidate delta")
	for _, c := range results {
		fmt.Fprintf(stdout, "%s %s %.3f %.3f %+0.2f%%\n", c.benchmark, c.unit, c.baseline, c.candidate, c.delta*100)
	}
	if len(failures) > 0 {
		fmt.Fprintln(stderr, "regression threshold exceeded:")
		for _, f := range failures {
			fmt.Fprintf(stderr, "  - %s\n", f)
		}
		return 1
	}
	return 0
}

// compare walks the tracked benchmarks in name order and returns every comparison made
// plus a description of each failure.
func compare(baseline, candidate sampleSet, threshold float64) ([]comparison, []string) {
	names := make([]string, 0, len(trackedMetrics))
	for name := range trackedMetrics {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		results  []comparison
		failures []string
	)
	for _, name := range names {
		for _, unit := range trackedMetrics[name] {
			base := baseline[name][unit]
			cand := candidate[name][unit]
			if len(base) == 0 || len(cand) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", name, unit))
				continue
			}
			bm, cm := median(base), median(cand)
			if bm <= 0 {
				// 0 allocs/op stays healthy only while the candidate is also 0.
				if cm > 0 {
					failures = append(failures, fmt.Sprintf("%s %s grew from 0 to %.3f", name, unit, cm))
				}
				results = append(results, comparison{benchmark: name, unit: unit, baseline: bm, candidate: cm})
				continue
			}
			delta := (cm - bm) / bm
			results = append(results, comparison{benchmark: name, unit: unit, baseline: bm, candidate: cm, delta: delta})
			if delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", name, unit, delta*100, threshold*100))
			}
		}
	}
	return results, failures
}

func parseFile(path string) (sampleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

var errNoSamples = errors.New("no benchmark lines found")

func parse(r io.Reader) (sampleSet, error) {
	samples := sampleSet{}
	seen := false
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "Benchmark") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		seen = true

		name := normalizeName(fields[0])
		if _, ok := trackedMetrics[name]; !ok {
			continue
		}
		if samples[name] == nil {
			samples[name] = map[string][]float64{}
		}
		for i := 2; i+1 < len(fields); i += 2 {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			samples[name][fields[i+1]] = append(samples[name][fields[i+1]], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !seen {
		return nil, errNoSamples
	}
	return samples, nil
}

// normalizeName strips the -GOMAXPROCS suffix.
func normalizeName(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
