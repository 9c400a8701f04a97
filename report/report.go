// Package report formats build timings into comparison tables.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"

	"github.com/buildbench/buildbench/bench"
)

// Generate writes a markdown comparison table for the given results.
// Results are printed in the order they were measured; the slowdown
// column is relative to the fastest toolchain.
func Generate(w io.Writer, results []bench.Result) error {
	if len(results) == 0 {
		return errors.New("no results to report")
	}

	fastestMs := findFastest(results)

	fmt.Fprintln(w, "## Build Time Comparison")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Toolchain | Version | Fastest | Mean "+
		"| Target Size | Slowdown |")
	fmt.Fprintln(w, "|-----------|---------|---------|------"+
		"|-------------|----------|")

	for _, r := range results {
		slowdown := 1.0
		if fastestMs > 0 && r.FastestMs > 0 {
			slowdown = float64(r.FastestMs) / float64(fastestMs)
		}

		fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %.2fx |\n",
			r.Toolchain,
			orDash(r.Version),
			formatMs(r.FastestMs),
			formatMs(r.MeanMs),
			formatBytes(r.TargetSizeBytes),
			slowdown,
		)
	}

	if multiSample(results) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "| Toolchain | Samples |")
		fmt.Fprintln(w, "|-----------|---------|")

		for _, r := range results {
			fmt.Fprintf(w, "| %s |", r.Toolchain)

			for _, s := range r.SamplesMs {
				fmt.Fprintf(w, " %s", formatMs(s))
			}

			fmt.Fprintln(w, " |")
		}
	}

	return nil
}

// GenerateJSON writes results as indented JSON to w.
func GenerateJSON(w io.Writer, results []bench.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(results)
}

func findFastest(results []bench.Result) int64 {
	fastest := int64(math.MaxInt64)
	for _, r := range results {
		if r.FastestMs > 0 && r.FastestMs < fastest {
			fastest = r.FastestMs
		}
	}

	if fastest == math.MaxInt64 {
		return 0
	}

	return fastest
}

func multiSample(results []bench.Result) bool {
	for _, r := range results {
		if len(r.SamplesMs) > 1 {
			return true
		}
	}

	return false
}

func formatMs(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}

	d := time.Duration(ms) * time.Millisecond

	return durafmt.Parse(d.Round(time.Second)).LimitFirstN(2).String()
}

func formatBytes(b uint64) string {
	if b == 0 {
		return "-"
	}

	return humanize.IBytes(b)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}
