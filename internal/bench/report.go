package bench

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// CaseReport is one case's full record in the report: configuration,
// payload sizes and run outcome, flattened into a single JSON object.
type CaseReport struct {
	Case
	Sizes
	RunResult
}

// Report is the serialized outcome of a benchmark run.
type Report struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	UUID        string                `json:"uuid"`
	Benchmarks  map[string]CaseReport `json:"benchmarks"`
}

// RunAll executes every case in order and assembles the report. Case
// failures are recorded, never propagated.
func RunAll(ctx context.Context, name, description string, cases []Case) Report {
	report := Report{
		Name:        name,
		Description: description,
		UUID:        uuid.NewString(),
		Benchmarks:  map[string]CaseReport{},
	}
	for _, c := range cases {
		log.Printf("[bench] running case %s (%s)", c.Name, c.URI)
		result := c.Run(ctx)
		if !result.Success {
			log.Printf("[bench] case %s failed: %v", c.Name, result.Result)
		}
		report.Benchmarks[c.UUID] = CaseReport{
			Case:      c,
			Sizes:     c.ComputeSizes(),
			RunResult: result,
		}
	}
	return report
}

// Save writes the report as JSON. Unless overwrite is set, an existing
// file is an error.
func (r Report) Save(path string, overwrite bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func average(times []float64) float64 {
	if len(times) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range times {
		sum += t
	}
	return sum / float64(len(times))
}

func flatten(keyed []map[int]float64) []float64 {
	var out []float64
	for _, m := range keyed {
		for _, t := range m {
			out = append(out, t)
		}
	}
	return out
}

// Summary renders per-case average latencies and, when more than one
// case succeeded, write/read leaderboards sorted fastest first.
func (r Report) Summary() string {
	sep := strings.Repeat("-", 80)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nDB benchmark: %s\n%s\n", sep, r.Name, sep)

	type score struct {
		name        string
		write, read float64
	}
	var scores []score

	ordered := make([]CaseReport, 0, len(r.Benchmarks))
	for _, cr := range r.Benchmarks {
		ordered = append(ordered, cr)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })

	for _, cr := range ordered {
		fmt.Fprintf(&b, "%s (%s)\n", cr.Name, cr.URI)
		series, ok := cr.Result.(*TimeSeries)
		if !ok || !cr.Success {
			fmt.Fprintf(&b, "  failed: %v\n%s\n", cr.Result, sep)
			continue
		}
		w := average(series.WriteTimes)
		rd := average(flatten(series.ReadTimes))
		fmt.Fprintf(&b, "  average write time: %.6f s\n", w)
		fmt.Fprintf(&b, "  average read time: %.6f s\n", rd)
		if len(series.UpdateTimes) > 0 {
			fmt.Fprintf(&b, "  average update time: %.6f s\n", average(flatten(series.UpdateTimes)))
		}
		fmt.Fprintf(&b, "%s\n", sep)
		scores = append(scores, score{name: cr.Name, write: w, read: rd})
	}

	if len(scores) > 1 {
		sort.Slice(scores, func(i, j int) bool { return scores[i].write < scores[j].write })
		fmt.Fprintf(&b, "Write time leaderboard\n")
		for _, s := range scores {
			fmt.Fprintf(&b, "  %.6f s: %s\n", s.write, s.name)
		}
		sort.Slice(scores, func(i, j int) bool { return scores[i].read < scores[j].read })
		fmt.Fprintf(&b, "Read time leaderboard\n")
		for _, s := range scores {
			fmt.Fprintf(&b, "  %.6f s: %s\n", s.read, s.name)
		}
		fmt.Fprintf(&b, "%s\n", sep)
	}
	return b.String()
}
