package linc

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReader_Read(t *testing.T) {
	file := domain.ObservationFile{
		ObservationID: "L785747",
		Calibrator:    "3C196",
		Path:          filepath.Join("testdata", "L785747", "3C196_L785747_calibrator_summary.json"),
	}

	report, err := NewReader().Read(context.Background(), file)
	require.NoError(t, err)

	assert.Equal(t, "3C196", report.FieldName)
	assert.Equal(t, []domain.StationRecord{
		{StationID: "CS001HBA0", FlaggedPercentage: 4.5},
		{StationID: "CS002HBA1", FlaggedPercentage: 70},
		{StationID: "RS205HBA", FlaggedPercentage: 12.25},
		{StationID: "DE601HBA", FlaggedPercentage: 100},
		{StationID: "IE613HBA", FlaggedPercentage: 0.5},
	}, report.Stations)
}

func TestReader_Read_MissingFile(t *testing.T) {
	file := domain.ObservationFile{Path: filepath.Join(t.TempDir(), "absent.json")}
	_, err := NewReader().Read(context.Background(), file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read calibrator summary")
}

func TestReader_Read_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewReader().Read(ctx, domain.ObservationFile{Path: "testdata/L785747/3C196_L785747_calibrator_summary.json"})
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseSummary_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		errSub  string
	}{
		{
			name:   "invalid JSON",
			doc:    `{"metrics": `,
			errSub: "parse calibrator summary",
		},
		{
			name:    "no LINC block",
			doc:     `{"metrics": {"other": {}}}`,
			wantErr: ErrMissingField,
			errSub:  "metrics.LINC",
		},
		{
			name:    "no stations",
			doc:     `{"metrics": {"LINC": {"field_name": "3C48"}}}`,
			wantErr: ErrMissingField,
			errSub:  "metrics.LINC.stations",
		},
		{
			name:    "station without id",
			doc:     `{"metrics": {"LINC": {"stations": [{"percentage_flagged": {"final": 3}}]}}}`,
			wantErr: ErrMissingField,
			errSub:  "stations[0].station",
		},
		{
			name:    "station without final percentage",
			doc:     `{"metrics": {"LINC": {"stations": [{"station": "CS001", "percentage_flagged": {"final": 3}}, {"station": "RS205", "percentage_flagged": {"initial": 3}}]}}}`,
			wantErr: ErrMissingField,
			errSub:  "stations[1].percentage_flagged.final (RS205)",
		},
		{
			name:    "percentage out of range",
			doc:     `{"metrics": {"LINC": {"stations": [{"station": "DE601", "percentage_flagged": {"final": 100.5}}]}}}`,
			wantErr: ErrOutOfRange,
			errSub:  "DE601",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSummary([]byte(tt.doc))
			require.Error(t, err)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			}
			assert.Contains(t, err.Error(), tt.errSub)
		})
	}
}

func TestParseSummary_EmptyStationList(t *testing.T) {
	report, err := ParseSummary([]byte(`{"metrics": {"LINC": {"field_name": "CasA", "stations": []}}}`))
	require.NoError(t, err)
	assert.Equal(t, "CasA", report.FieldName)
	assert.Empty(t, report.Stations)
}
