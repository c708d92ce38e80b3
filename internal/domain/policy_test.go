package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, 70.0, p.FlagThreshold)
	assert.Equal(t, 40, p.MinPass(ClassCore))
	assert.Equal(t, 10, p.MinPass(ClassRemote))
	assert.Equal(t, 10, p.MinPass(ClassInternational))
	require.NoError(t, p.Validate())
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		stats    ClassStatistics
		min      int
		expected bool
	}{
		{"exactly minimum", ClassStatistics{Total: 10, Below: Defined(10), Above: Defined(0)}, 10, true},
		{"above minimum", ClassStatistics{Total: 12, Below: Defined(11), Above: Defined(1)}, 10, true},
		{"below minimum", ClassStatistics{Total: 12, Below: Defined(9), Above: Defined(3)}, 10, false},
		{"zero minimum with data", ClassStatistics{Total: 1, Below: Defined(0), Above: Defined(1)}, 0, true},
		{"empty class", ClassStatistics{}, 1, false},
		{"empty class zero minimum", ClassStatistics{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Evaluate(tt.stats, tt.min))
		})
	}
}

func TestEvaluate_EmptyCoreGroupNeverPasses(t *testing.T) {
	stats := Aggregate([]StationRecord{{StationID: "RS205", FlaggedPercentage: 1}}, 70)
	assert.False(t, stats[ClassCore].Median.IsDefined())
	assert.False(t, Evaluate(stats[ClassCore], 1))
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Policy)
		errSub string
	}{
		{"negative threshold", func(p *Policy) { p.FlagThreshold = -1 }, "flag threshold"},
		{"threshold over 100", func(p *Policy) { p.FlagThreshold = 100.5 }, "flag threshold"},
		{"negative core", func(p *Policy) { p.MinPassCore = -1 }, "core"},
		{"negative international", func(p *Policy) { p.MinPassInternational = -3 }, "international"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			tt.mutate(&p)
			err := p.Validate()
			require.ErrorIs(t, err, ErrInvalidPolicy)
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestPolicy_Decide(t *testing.T) {
	p := Policy{FlagThreshold: 50, MinPassCore: 2, MinPassRemote: 1, MinPassInternational: 1}
	records := []StationRecord{
		{StationID: "CS001", FlaggedPercentage: 10},
		{StationID: "CS002", FlaggedPercentage: 20},
		{StationID: "RS106", FlaggedPercentage: 50},
	}

	d := p.Decide(ComputeMetrics("L1", "3C196", records, p.FlagThreshold))

	assert.Equal(t, "L1", d.ObservationID)
	assert.True(t, d.Passed(ClassCore))
	assert.False(t, d.Passed(ClassRemote), "station at threshold is not below it")
	assert.False(t, d.Passed(ClassInternational), "no international stations")
}
