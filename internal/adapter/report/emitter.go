package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
)

// Emitter writes a finished summary somewhere.
type Emitter interface {
	Emit(ctx context.Context, sum domain.PopulationSummary) error
}

// Multi runs each emitter in order and stops at the first failure.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, sum domain.PopulationSummary) error {
	for _, e := range m {
		if err := e.Emit(ctx, sum); err != nil {
			return err
		}
	}
	return nil
}

// Paths returns the output file for each format given an output base name.
func Paths(base string) map[string]string {
	return map[string]string{
		"csv":  base + ".csv",
		"xlsx": base + ".xlsx",
		"pdf":  base + "_plots.pdf",
	}
}

// ForFormats builds the emitters for the requested formats ("csv", "xlsx",
// "pdf") writing next to base.
func ForFormats(base string, formats []string, logger *slog.Logger) (Multi, error) {
	paths := Paths(base)
	out := make(Multi, 0, len(formats))
	for _, f := range formats {
		switch f {
		case "csv":
			out = append(out, NewCSVWriter(paths[f], logger))
		case "xlsx":
			out = append(out, NewXLSXWriter(paths[f], logger))
		case "pdf":
			out = append(out, NewPlotRenderer(paths[f], logger))
		default:
			return nil, fmt.Errorf("unknown output format %q", f)
		}
	}
	return out, nil
}
