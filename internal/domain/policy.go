package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPolicy is returned by Policy.Validate.
var ErrInvalidPolicy = errors.New("invalid threshold policy")

// Policy holds the thresholds an observation is judged against.
type Policy struct {
	// FlagThreshold is the flagged percentage at or above which a station
	// counts as failed.
	FlagThreshold        float64 `yaml:"flag_threshold" json:"flag_threshold"`
	MinPassCore          int     `yaml:"min_pass_core" json:"min_pass_core"`
	MinPassRemote        int     `yaml:"min_pass_remote" json:"min_pass_remote"`
	MinPassInternational int     `yaml:"min_pass_international" json:"min_pass_international"`
}

// DefaultPolicy returns a 70% threshold with 40 core, 10 remote and 10
// international stations required below it.
func DefaultPolicy() Policy {
	return Policy{
		FlagThreshold:        70,
		MinPassCore:          40,
		MinPassRemote:        10,
		MinPassInternational: 10,
	}
}

// MinPass returns the minimum number of below-threshold stations required for
// class.
func (p Policy) MinPass(class StationClass) int {
	switch class {
	case ClassCore:
		return p.MinPassCore
	case ClassRemote:
		return p.MinPassRemote
	default:
		return p.MinPassInternational
	}
}

func (p Policy) Validate() error {
	if p.FlagThreshold < 0 || p.FlagThreshold > 100 {
		return fmt.Errorf("%w: flag threshold %g outside [0,100]", ErrInvalidPolicy, p.FlagThreshold)
	}
	for _, c := range Classes() {
		if p.MinPass(c) < 0 {
			return fmt.Errorf("%w: negative minimum pass count %d for %s", ErrInvalidPolicy, p.MinPass(c), c)
		}
	}
	return nil
}

// Evaluate reports whether at least minPassCount stations are below the
// threshold. Statistics of an empty class never pass.
func Evaluate(stats ClassStatistics, minPassCount int) bool {
	below, ok := stats.Below.Get()
	return ok && below >= minPassCount
}

// Evaluate applies the class's minimum pass count to stats.
func (p Policy) Evaluate(stats ClassStatistics, class StationClass) bool {
	return Evaluate(stats, p.MinPass(class))
}

// PassDecision is the per-class outcome for one observation.
type PassDecision struct {
	ObservationID string                `json:"observation_id"`
	PerClass      map[StationClass]bool `json:"per_class"`
}

// Passed reports the decision for class. Missing classes did not pass.
func (d PassDecision) Passed(class StationClass) bool {
	return d.PerClass[class]
}

// Decide evaluates every class of an observation.
func (p Policy) Decide(m ObservationMetrics) PassDecision {
	d := PassDecision{
		ObservationID: m.ObservationID,
		PerClass:      make(map[StationClass]bool, len(classNames)),
	}
	for _, c := range Classes() {
		d.PerClass[c] = p.Evaluate(m.PerClass[c], c)
	}
	return d
}
