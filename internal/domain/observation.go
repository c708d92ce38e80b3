package domain

// ObservationFile locates one observation's calibrator summary on disk.
type ObservationFile struct {
	ObservationID string
	Calibrator    string
	Path          string
}

// Report is the parsed content of a calibrator summary.
type Report struct {
	FieldName string
	Stations  []StationRecord
}

// ObservationMetrics holds the per-class statistics of one observation.
type ObservationMetrics struct {
	ObservationID string                           `json:"observation_id"`
	Calibrator    string                           `json:"calibrator"`
	PerClass      map[StationClass]ClassStatistics `json:"per_class"`
}

// ComputeMetrics aggregates an observation's station records.
func ComputeMetrics(observationID, calibrator string, records []StationRecord, threshold float64) ObservationMetrics {
	return ObservationMetrics{
		ObservationID: observationID,
		Calibrator:    calibrator,
		PerClass:      Aggregate(records, threshold),
	}
}

// StationCount is the number of stations across all classes.
func (m ObservationMetrics) StationCount() int {
	n := 0
	for _, s := range m.PerClass {
		n += s.Total
	}
	return n
}
