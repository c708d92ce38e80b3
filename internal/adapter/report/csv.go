package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/dustin/go-humanize"
)

// CSVWriter writes the summary table as comma-separated values preceded by
// "#" comment lines recording the configuration and pass totals.
type CSVWriter struct {
	path   string
	logger *slog.Logger
}

func NewCSVWriter(path string, logger *slog.Logger) *CSVWriter {
	return &CSVWriter{path: path, logger: logger}
}

func (w *CSVWriter) Emit(ctx context.Context, sum domain.PopulationSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create csv summary: %w", err)
	}
	if err := WriteCSV(f, sum); err != nil {
		f.Close()
		return fmt.Errorf("write csv summary: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv summary: %w", err)
	}
	w.logger.Info("summary table written", "path", w.path, "rows", sum.Observations())
	return nil
}

// CSVHeader is the column row of the summary table.
func CSVHeader() []string {
	header := []string{"observation_id", "calibrator"}
	for _, c := range domain.Classes() {
		header = append(header, c.String()+"_pass")
	}
	for _, c := range domain.Classes() {
		header = append(header, c.String()+"_below")
	}
	return header
}

// WriteCSV renders sum to out. Undefined below-threshold counts are "nan".
func WriteCSV(out io.Writer, sum domain.PopulationSummary) error {
	if err := writeComments(out, sum); err != nil {
		return err
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(CSVHeader()); err != nil {
		return err
	}
	for _, row := range sum.Rows() {
		rec := []string{row.ObservationID, row.Calibrator}
		for _, c := range domain.Classes() {
			rec = append(rec, strconv.FormatBool(row.Pass[c]))
		}
		for _, c := range domain.Classes() {
			rec = append(rec, row.Below[c].String())
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeComments(out io.Writer, sum domain.PopulationSummary) error {
	p := sum.Policy
	lines := []string{
		"generated_at: " + sum.GeneratedAt.Format(time.RFC3339),
		"flag_threshold: " + strconv.FormatFloat(p.FlagThreshold, 'f', -1, 64),
		fmt.Sprintf("min_pass: core=%d remote=%d international=%d", p.MinPassCore, p.MinPassRemote, p.MinPassInternational),
	}
	for _, c := range domain.Classes() {
		lines = append(lines, fmt.Sprintf("%s: %s (%d with stations)", c, sum.PassTotal(c), sum.WithData[c]))
	}
	lines = append(lines,
		"observations: "+humanize.Comma(int64(sum.Observations())),
		"skipped: "+humanize.Comma(int64(len(sum.Failures))),
	)
	for _, f := range sum.Failures {
		lines = append(lines, fmt.Sprintf("skipped %s (%s): %s", f.ObservationID, f.Path, singleLine(f.Err)))
	}

	for _, l := range lines {
		if _, err := fmt.Fprintf(out, "# %s\n", l); err != nil {
			return err
		}
	}
	return nil
}

// singleLine collapses err's text onto one line so it stays inside a "#"
// comment. Parse errors may quote multi-line file content.
func singleLine(err error) string {
	return strings.Join(strings.Fields(fmt.Sprint(err)), " ")
}
