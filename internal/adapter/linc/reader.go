package linc

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrMissingField marks a summary lacking a field the metrics need.
	ErrMissingField = errors.New("missing field")
	// ErrOutOfRange marks a flagged percentage outside 0-100.
	ErrOutOfRange = errors.New("flagged percentage out of range")
)

// summaryFile mirrors the subset of the LINC calibrator summary that is used.
type summaryFile struct {
	Metrics struct {
		LINC *lincMetrics `json:"LINC"`
	} `json:"metrics"`
}

type lincMetrics struct {
	FieldName string          `json:"field_name"`
	Stations  *[]stationEntry `json:"stations"`
}

type stationEntry struct {
	Station           *string `json:"station"`
	PercentageFlagged *struct {
		Final *float64 `json:"final"`
	} `json:"percentage_flagged"`
}

// Reader loads calibrator summaries from disk.
type Reader struct{}

func NewReader() *Reader { return &Reader{} }

// Read loads and parses the summary at file.Path.
func (r *Reader) Read(ctx context.Context, file domain.ObservationFile) (domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return domain.Report{}, fmt.Errorf("read calibrator summary: %w", err)
	}
	report, err := ParseSummary(data)
	if err != nil {
		return domain.Report{}, fmt.Errorf("%s: %w", file.Path, err)
	}
	return report, nil
}

// ParseSummary extracts the field name and station records from a summary
// document. Any malformed station fails the whole document.
func ParseSummary(data []byte) (domain.Report, error) {
	var doc summaryFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Report{}, fmt.Errorf("parse calibrator summary: %w", err)
	}

	linc := doc.Metrics.LINC
	if linc == nil {
		return domain.Report{}, fmt.Errorf("%w: metrics.LINC", ErrMissingField)
	}
	if linc.Stations == nil {
		return domain.Report{}, fmt.Errorf("%w: metrics.LINC.stations", ErrMissingField)
	}

	records := make([]domain.StationRecord, 0, len(*linc.Stations))
	for i, s := range *linc.Stations {
		if s.Station == nil || *s.Station == "" {
			return domain.Report{}, fmt.Errorf("%w: stations[%d].station", ErrMissingField, i)
		}
		if s.PercentageFlagged == nil || s.PercentageFlagged.Final == nil {
			return domain.Report{}, fmt.Errorf("%w: stations[%d].percentage_flagged.final (%s)", ErrMissingField, i, *s.Station)
		}
		pct := *s.PercentageFlagged.Final
		if pct < 0 || pct > 100 {
			return domain.Report{}, fmt.Errorf("%w: %s has %g", ErrOutOfRange, *s.Station, pct)
		}
		records = append(records, domain.StationRecord{StationID: *s.Station, FlaggedPercentage: pct})
	}

	return domain.Report{FieldName: linc.FieldName, Stations: records}, nil
}
