package bench

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

var header = []string{
	"run_id", "map", "safe_prob", "delay_prob", "agents", "goals", "instance",
	"algorithm", "status", "runtime_s", "oracle_calls", "lowlevel_calls",
	"roots", "conflicts", "cost", "success_rate",
}

// WriteCSV writes records with a header row. Counters of unsolved runs are
// left empty.
func WriteCSV(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.RunID, r.Map,
			strconv.FormatFloat(r.SafeProb, 'g', -1, 64),
			strconv.FormatFloat(r.Delay, 'g', -1, 64),
			strconv.Itoa(r.Agents), strconv.Itoa(r.Goals), strconv.Itoa(r.Instance),
			r.Algorithm, r.Status,
		}
		if r.Status == StatusSolved {
			row = append(row,
				fmt.Sprintf("%.5f", r.Runtime.Seconds()),
				strconv.Itoa(r.OracleCalls), strconv.Itoa(r.LowLevelCalls),
				strconv.Itoa(r.Roots), strconv.Itoa(r.Conflicts), strconv.Itoa(r.Cost),
			)
			if r.SuccessRate >= 0 {
				row = append(row, fmt.Sprintf("%.4f", r.SuccessRate))
			} else {
				row = append(row, "")
			}
		} else {
			row = append(row, "", "", "", "", "", "", "")
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// Summary aggregates the records of one algorithm.
type Summary struct {
	Algorithm  string
	Runs       int
	Solved     int
	Skipped    int
	Timeouts   int
	AvgRuntime float64 // seconds, over solved runs
	AvgCost    float64
	AvgRoots   float64
	AvgSuccess float64 // over solved runs that were simulated
}

type totals struct {
	Summary
	simulated int
	secs      float64
	cost      int
	roots     int
	success   float64
}

// Summarize groups records by algorithm, sorted by name.
func Summarize(records []Record) []Summary {
	byAlg := make(map[string]*totals)
	for _, r := range records {
		t, ok := byAlg[r.Algorithm]
		if !ok {
			t = &totals{Summary: Summary{Algorithm: r.Algorithm}}
			byAlg[r.Algorithm] = t
		}
		t.Runs++
		switch r.Status {
		case StatusSolved:
			t.Solved++
			t.secs += r.Runtime.Seconds()
			t.cost += r.Cost
			t.roots += r.Roots
			if r.SuccessRate >= 0 {
				t.simulated++
				t.success += r.SuccessRate
			}
		case StatusSkipped:
			t.Skipped++
		case StatusTimeout:
			t.Timeouts++
		}
	}

	out := make([]Summary, 0, len(byAlg))
	for _, t := range byAlg {
		if t.Solved > 0 {
			n := float64(t.Solved)
			t.AvgRuntime = t.secs / n
			t.AvgCost = float64(t.cost) / n
			t.AvgRoots = float64(t.roots) / n
		}
		if t.simulated > 0 {
			t.AvgSuccess = t.success / float64(t.simulated)
		}
		out = append(out, t.Summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Algorithm < out[j].Algorithm })
	return out
}

// WriteSummary prints a summary table.
func WriteSummary(w io.Writer, records []Record) {
	fmt.Fprintln(w, "\n=== BENCHMARK SUMMARY ===")
	fmt.Fprintf(w, "%-12s %6s %7s %7s %8s %12s %10s %8s %9s\n",
		"Algorithm", "Runs", "Solved", "Skipped", "Timeouts", "Avg Time(s)", "Avg Cost", "Roots", "Sim OK")
	fmt.Fprintln(w, strings.Repeat("-", 87))
	for _, s := range Summarize(records) {
		fmt.Fprintf(w, "%-12s %6d %7d %7d %8d %12.3f %10.1f %8.1f %8.1f%%\n",
			s.Algorithm, s.Runs, s.Solved, s.Skipped, s.Timeouts,
			s.AvgRuntime, s.AvgCost, s.AvgRoots, s.AvgSuccess*100)
	}
}
