// Command validate cross-checks a written summary CSV against the calibrator
// tree it was generated from. It re-reads every observation, recomputes the
// verdicts with the thresholds recorded in the CSV header, and verifies row
// order, pass flags, below-threshold counts and the pass-total comments.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data-dir data/cal_json \
//	  -summary flagging_summary.csv
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/cal-flagging-metrics/internal/adapter/filesystem"
	"github.com/couchcryptid/cal-flagging-metrics/internal/adapter/linc"
	"github.com/couchcryptid/cal-flagging-metrics/internal/adapter/report"
	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/dustin/go-humanize"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "directory holding L*/ observation subdirectories")
	pattern := flag.String("pattern", "L*/*calibrator_summary.json", "glob for calibrator summaries, relative to -data-dir")
	summary := flag.String("summary", "", "path to the summary CSV to check")
	flag.Parse()

	if *dataDir == "" || *summary == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dataDir, *pattern, *summary, os.Stdout))
}

func run(dataDir, pattern, summaryPath string, out io.Writer) int {
	fmt.Fprintln(out, "=== Flagging Summary Validation ===")
	fmt.Fprintln(out)

	table, err := loadSummaryCSV(summaryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load summary CSV: %v\n", err)
		return 1
	}

	recomputed, err := recompute(dataDir, pattern, table.policy)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSources(recomputed.Failures, table),
		validateRows(table, recomputed),
		validateTotals(table, recomputed),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "PASS"
		if !p.passed() {
			status = fmt.Sprintf("FAIL (%d errors)", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Observations: %d in CSV, %d recomputed, %d unreadable\n",
		len(table.rows), recomputed.Observations(), len(recomputed.Failures))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// summaryTable is a parsed summary CSV.
type summaryTable struct {
	policy   domain.Policy
	comments map[string]string
	header   []string
	rows     []map[string]string
}

func loadSummaryCSV(path string) (summaryTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return summaryTable{}, err
	}
	defer f.Close()
	return parseSummaryCSV(f)
}

func parseSummaryCSV(in io.Reader) (summaryTable, error) {
	t := summaryTable{comments: make(map[string]string)}

	br := bufio.NewReader(in)
	for {
		peek, err := br.Peek(1)
		if err != nil || peek[0] != '#' {
			break
		}
		line, err := br.ReadString('\n')
		if err != nil {
			return t, fmt.Errorf("read header comment: %w", err)
		}
		key, value, ok := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "#")), ": ")
		if ok {
			if _, seen := t.comments[key]; !seen {
				t.comments[key] = value
			}
		}
	}

	policy, err := policyFromComments(t.comments)
	if err != nil {
		return t, err
	}
	t.policy = policy

	all, err := csv.NewReader(br).ReadAll()
	if err != nil {
		return t, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return t, fmt.Errorf("missing column header")
	}
	t.header = all[0]
	for _, rec := range all[1:] {
		row := make(map[string]string, len(t.header))
		for i, h := range t.header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func policyFromComments(c map[string]string) (domain.Policy, error) {
	var p domain.Policy
	threshold, ok := c["flag_threshold"]
	if !ok {
		return p, fmt.Errorf("missing flag_threshold comment")
	}
	v, err := strconv.ParseFloat(threshold, 64)
	if err != nil {
		return p, fmt.Errorf("flag_threshold: %w", err)
	}
	p.FlagThreshold = v

	minPass, ok := c["min_pass"]
	if !ok {
		return p, fmt.Errorf("missing min_pass comment")
	}
	if _, err := fmt.Sscanf(minPass, "core=%d remote=%d international=%d",
		&p.MinPassCore, &p.MinPassRemote, &p.MinPassInternational); err != nil {
		return p, fmt.Errorf("min_pass %q: %w", minPass, err)
	}
	return p, p.Validate()
}

// recompute evaluates every observation under dataDir with policy, recording
// unreadable summaries the same way the pipeline does.
func recompute(dataDir, pattern string, policy domain.Policy) (domain.PopulationSummary, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	files, err := filesystem.NewDiscoverer(dataDir, pattern, logger).Discover()
	if err != nil {
		return domain.PopulationSummary{}, fmt.Errorf("discover observations: %w", err)
	}

	reader := linc.NewReader()
	summarizer := domain.NewSummarizer(policy)
	for _, f := range files {
		r, err := reader.Read(context.Background(), f)
		if err != nil {
			summarizer.AddFailure(domain.Failure{
				ObservationID: f.ObservationID,
				Calibrator:    f.Calibrator,
				Path:          f.Path,
				Err:           err,
			})
			continue
		}
		summarizer.Add(domain.ComputeMetrics(f.ObservationID, f.Calibrator, r.Stations, policy.FlagThreshold))
	}
	return summarizer.Finalize(), nil
}

// ── Validation phases ──

func validateSources(failures []domain.Failure, t summaryTable) *phase {
	p := &phase{name: "Phase 1: Source summaries"}
	skipped := t.comments["skipped"]
	if skipped != humanize.Comma(int64(len(failures))) {
		p.errorf("CSV records %s skipped observations, recomputation found %d unreadable", skipped, len(failures))
		for _, f := range failures {
			p.errorf("unreadable %s (%s): %v", f.ObservationID, f.Calibrator, f.Err)
		}
	}
	return p
}

func validateRows(t summaryTable, sum domain.PopulationSummary) *phase {
	p := &phase{name: "Phase 2: Summary rows"}

	want := report.CSVHeader()
	if strings.Join(t.header, ",") != strings.Join(want, ",") {
		p.errorf("column header = %v, want %v", t.header, want)
		return p
	}

	rows := sum.Rows()
	if len(t.rows) != len(rows) {
		p.errorf("CSV has %d rows, recomputed %d", len(t.rows), len(rows))
	}
	for i := range min(len(t.rows), len(rows)) {
		got, exp := t.rows[i], rows[i]
		line := i + 1
		if got["observation_id"] != exp.ObservationID {
			p.errorf("row %d: observation_id = %q, want %q", line, got["observation_id"], exp.ObservationID)
			continue
		}
		if got["calibrator"] != exp.Calibrator {
			p.errorf("row %d (%s): calibrator = %q, want %q", line, exp.ObservationID, got["calibrator"], exp.Calibrator)
		}
		for _, c := range domain.Classes() {
			if v := got[c.String()+"_pass"]; v != strconv.FormatBool(exp.Pass[c]) {
				p.errorf("row %d (%s): %s_pass = %s, want %t", line, exp.ObservationID, c, v, exp.Pass[c])
			}
			if v := got[c.String()+"_below"]; v != exp.Below[c].String() {
				p.errorf("row %d (%s): %s_below = %s, want %s", line, exp.ObservationID, c, v, exp.Below[c])
			}
		}
	}
	return p
}

func validateTotals(t summaryTable, sum domain.PopulationSummary) *phase {
	p := &phase{name: "Phase 3: Pass totals"}
	for _, c := range domain.Classes() {
		got, ok := t.comments[c.String()]
		want := fmt.Sprintf("%s (%d with stations)", sum.PassTotal(c), sum.WithData[c])
		if !ok {
			p.errorf("missing %s pass-total comment", c)
			continue
		}
		if got != want {
			p.errorf("%s: CSV says %q, recomputed %q", c, got, want)
		}

		passing := 0
		for _, row := range t.rows {
			if row[c.String()+"_pass"] == "true" {
				passing++
			}
		}
		if passing != sum.PassCount[c] {
			p.errorf("%s: %d rows marked pass, total says %d", c, passing, sum.PassCount[c])
		}
	}
	return p
}
