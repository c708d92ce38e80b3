package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/xuri/excelize/v2"
)

// XLSXWriter writes the summary as a workbook with summary, observations and
// calibrators sheets.
type XLSXWriter struct {
	path   string
	logger *slog.Logger
}

func NewXLSXWriter(path string, logger *slog.Logger) *XLSXWriter {
	return &XLSXWriter{path: path, logger: logger}
}

func (w *XLSXWriter) Emit(ctx context.Context, sum domain.PopulationSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := BuildXLSX(sum)
	if err != nil {
		return fmt.Errorf("build xlsx summary: %w", err)
	}
	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		return fmt.Errorf("write xlsx summary: %w", err)
	}
	w.logger.Info("summary workbook written", "path", w.path, "rows", sum.Observations())
	return nil
}

// Sheet names used by BuildXLSX.
const (
	SheetSummary      = "summary"
	SheetObservations = "observations"
	SheetCalibrators  = "calibrators"
)

// BuildXLSX renders sum as an XLSX workbook. Undefined statistics are left
// as empty cells.
func BuildXLSX(sum domain.PopulationSummary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetObservations); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetCalibrators); err != nil {
		return nil, err
	}

	writeSummarySheet(f, sum)
	writeObservationSheet(f, sum)
	writeCalibratorSheet(f, sum)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, sum domain.PopulationSummary) {
	p := sum.Policy
	rows := [][]any{
		{"Calibrator flagging summary"},
		{},
		{"Generated", sum.GeneratedAt.Format(time.RFC3339)},
		{"Flag threshold (%)", p.FlagThreshold},
		{"Observations", sum.Observations()},
		{"Skipped", len(sum.Failures)},
		{},
		{"Class", "Minimum passing stations", "Observations passing", "Observations with stations", "Pass total"},
	}
	for _, c := range domain.Classes() {
		rows = append(rows, []any{c.String(), p.MinPass(c), sum.PassCount[c], sum.WithData[c], sum.PassTotal(c)})
	}
	if len(sum.Failures) > 0 {
		rows = append(rows, []any{}, []any{"Skipped observation", "Path", "Error"})
		for _, fail := range sum.Failures {
			rows = append(rows, []any{fail.ObservationID, fail.Path, fail.Err.Error()})
		}
	}
	setRows(f, SheetSummary, rows)
}

func writeObservationSheet(f *excelize.File, sum domain.PopulationSummary) {
	header := []any{"Observation", "Calibrator"}
	for _, c := range domain.Classes() {
		header = append(header, c.String()+" pass")
	}
	for _, c := range domain.Classes() {
		header = append(header,
			c.String()+" stations",
			c.String()+" below",
			c.String()+" median %",
			c.String()+" mean %",
		)
	}
	rows := [][]any{header}

	for _, v := range sum.Verdicts {
		row := []any{v.Metrics.ObservationID, v.Metrics.Calibrator}
		for _, c := range domain.Classes() {
			row = append(row, v.Decision.Passed(c))
		}
		for _, c := range domain.Classes() {
			s := v.Metrics.PerClass[c]
			row = append(row, s.Total, cellValue(s.Below), cellValue(s.Median), cellValue(s.Mean))
		}
		rows = append(rows, row)
	}
	setRows(f, SheetObservations, rows)
}

func writeCalibratorSheet(f *excelize.File, sum domain.PopulationSummary) {
	rows := [][]any{{"Calibrator", "Observations"}}
	for _, cc := range sum.Calibrators() {
		rows = append(rows, []any{cc.Name, cc.Count})
	}
	setRows(f, SheetCalibrators, rows)
}

func setRows(f *excelize.File, sheet string, rows [][]any) {
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				continue
			}
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
}

// cellValue unwraps an optional statistic; undefined stays an empty cell.
func cellValue[T domain.Number](o domain.Optional[T]) any {
	v, ok := o.Get()
	if !ok {
		return nil
	}
	return v
}
