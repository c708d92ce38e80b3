package domain

import (
	"fmt"
	"iter"
	"sort"
	"time"
)

// Verdict pairs an observation's metrics with its pass decision.
type Verdict struct {
	Metrics  ObservationMetrics `json:"metrics"`
	Decision PassDecision       `json:"decision"`
}

// Failure records an observation whose report could not be processed.
type Failure struct {
	ObservationID string
	Calibrator    string
	Path          string
	Err           error
}

// PopulationSummary is the roll-up of every processed observation.
type PopulationSummary struct {
	Verdicts    []Verdict
	Policy      Policy
	PassCount   map[StationClass]int
	WithData    map[StationClass]int
	Failures    []Failure
	GeneratedAt time.Time
}

// SummaryRow is one line of the summary table.
type SummaryRow struct {
	ObservationID string
	Calibrator    string
	Pass          map[StationClass]bool
	Below         map[StationClass]Optional[int]
}

// CalibratorCount is the number of observations of one calibrator.
type CalibratorCount struct {
	Name  string
	Count int
}

// Summarizer accumulates verdicts one observation at a time.
type Summarizer struct {
	policy    Policy
	verdicts  []Verdict
	passCount map[StationClass]int
	withData  map[StationClass]int
	failures  []Failure
}

func NewSummarizer(policy Policy) *Summarizer {
	return &Summarizer{
		policy:    policy,
		passCount: make(map[StationClass]int, len(classNames)),
		withData:  make(map[StationClass]int, len(classNames)),
	}
}

// Add evaluates m against the policy and records the result.
func (s *Summarizer) Add(m ObservationMetrics) PassDecision {
	d := s.policy.Decide(m)
	for _, c := range Classes() {
		if d.Passed(c) {
			s.passCount[c]++
		}
		if m.PerClass[c].HasData() {
			s.withData[c]++
		}
	}
	s.verdicts = append(s.verdicts, Verdict{Metrics: m, Decision: d})
	return d
}

// AddFailure records an observation that was skipped.
func (s *Summarizer) AddFailure(f Failure) {
	s.failures = append(s.failures, f)
}

// Finalize returns the summary of everything added so far.
func (s *Summarizer) Finalize() PopulationSummary {
	sum := PopulationSummary{
		Verdicts:    make([]Verdict, len(s.verdicts)),
		Policy:      s.policy,
		PassCount:   make(map[StationClass]int, len(classNames)),
		WithData:    make(map[StationClass]int, len(classNames)),
		Failures:    make([]Failure, len(s.failures)),
		GeneratedAt: now().UTC(),
	}
	copy(sum.Verdicts, s.verdicts)
	copy(sum.Failures, s.failures)
	for _, c := range Classes() {
		sum.PassCount[c] = s.passCount[c]
		sum.WithData[c] = s.withData[c]
	}
	return sum
}

// Summarize evaluates every observation in seq, in order.
func Summarize(seq iter.Seq[ObservationMetrics], policy Policy) PopulationSummary {
	s := NewSummarizer(policy)
	for m := range seq {
		s.Add(m)
	}
	return s.Finalize()
}

// Observations is the number of observations evaluated.
func (p PopulationSummary) Observations() int { return len(p.Verdicts) }

// PassTotal renders the pass count of class as "X/N observations pass".
func (p PopulationSummary) PassTotal(class StationClass) string {
	return fmt.Sprintf("%d/%d observations pass", p.PassCount[class], p.Observations())
}

// PassTotals renders PassTotal for every class.
func (p PopulationSummary) PassTotals() map[StationClass]string {
	out := make(map[StationClass]string, len(classNames))
	for _, c := range Classes() {
		out[c] = p.PassTotal(c)
	}
	return out
}

// Rows returns one summary table row per observation, in input order.
func (p PopulationSummary) Rows() []SummaryRow {
	rows := make([]SummaryRow, 0, len(p.Verdicts))
	for _, v := range p.Verdicts {
		row := SummaryRow{
			ObservationID: v.Metrics.ObservationID,
			Calibrator:    v.Metrics.Calibrator,
			Pass:          make(map[StationClass]bool, len(classNames)),
			Below:         make(map[StationClass]Optional[int], len(classNames)),
		}
		for _, c := range Classes() {
			row.Pass[c] = v.Decision.Passed(c)
			row.Below[c] = v.Metrics.PerClass[c].Below
		}
		rows = append(rows, row)
	}
	return rows
}

// Calibrators counts observations per calibrator, sorted by name.
func (p PopulationSummary) Calibrators() []CalibratorCount {
	counts := make(map[string]int)
	for _, v := range p.Verdicts {
		counts[v.Metrics.Calibrator]++
	}
	out := make([]CalibratorCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CalibratorCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
