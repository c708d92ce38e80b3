package domain

import "sort"

// ClassStatistics summarizes the flagged percentages of one station class in
// one observation. Median, Mean, Above and Below are undefined when Total is 0.
type ClassStatistics struct {
	Class  StationClass      `json:"class"`
	Median Optional[float64] `json:"median"`
	Mean   Optional[float64] `json:"mean"`
	Total  int               `json:"total"`
	Above  Optional[int]     `json:"above_threshold"`
	Below  Optional[int]     `json:"below_threshold"`
}

// HasData reports whether any station of the class was present.
func (s ClassStatistics) HasData() bool { return s.Total > 0 }

// FractionAbove is the share of stations at or above the threshold.
func (s ClassStatistics) FractionAbove() Optional[float64] {
	above, ok := s.Above.Get()
	if !ok || s.Total == 0 {
		return Optional[float64]{}
	}
	return Defined(float64(above) / float64(s.Total))
}

// Aggregate groups records by station class and computes per-class
// statistics against threshold. Every class is present in the result. The
// input slice is not modified.
func Aggregate(records []StationRecord, threshold float64) map[StationClass]ClassStatistics {
	groups := make(map[StationClass][]float64, len(classNames))
	for _, r := range records {
		c := Classify(r.StationID)
		groups[c] = append(groups[c], r.FlaggedPercentage)
	}

	out := make(map[StationClass]ClassStatistics, len(classNames))
	for _, c := range Classes() {
		out[c] = classStatistics(c, groups[c], threshold)
	}
	return out
}

func classStatistics(class StationClass, values []float64, threshold float64) ClassStatistics {
	stats := ClassStatistics{Class: class, Total: len(values)}
	if len(values) == 0 {
		return stats
	}

	var above, below int
	for _, v := range values {
		if v >= threshold {
			above++
		} else {
			below++
		}
	}

	stats.Median = Defined(median(values))
	stats.Mean = Defined(mean(values))
	stats.Above = Defined(above)
	stats.Below = Defined(below)
	return stats
}

// median of a non-empty slice; the mean of the two middle values for even
// lengths.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
