package filesystem

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/dustin/go-humanize"
)

// Discoverer finds calibrator summaries under a data directory laid out as
// one subdirectory per observation.
type Discoverer struct {
	dataDir string
	pattern string
	logger  *slog.Logger
}

// NewDiscoverer creates a Discoverer matching pattern (relative to dataDir).
func NewDiscoverer(dataDir, pattern string, logger *slog.Logger) *Discoverer {
	return &Discoverer{dataDir: dataDir, pattern: pattern, logger: logger}
}

// Discover returns every matching summary, sorted by path, and logs a census
// of calibrators found.
func (d *Discoverer) Discover() ([]domain.ObservationFile, error) {
	matches, err := filepath.Glob(filepath.Join(d.dataDir, d.pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", d.pattern, err)
	}
	sort.Strings(matches)

	files := make([]domain.ObservationFile, 0, len(matches))
	census := make(map[string]int)
	for _, path := range matches {
		f := ParsePath(path)
		files = append(files, f)
		census[f.Calibrator]++
	}

	d.logCensus(census, len(files))
	return files, nil
}

// ParsePath derives the observation ID (parent directory) and calibrator
// (file-name prefix before the first underscore) from a summary path.
func ParsePath(path string) domain.ObservationFile {
	name := filepath.Base(path)
	calibrator, _, _ := strings.Cut(name, "_")
	return domain.ObservationFile{
		ObservationID: filepath.Base(filepath.Dir(path)),
		Calibrator:    calibrator,
		Path:          path,
	}
}

func (d *Discoverer) logCensus(census map[string]int, total int) {
	names := make([]string, 0, len(census))
	for name := range census {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d.logger.Info("calibrator found", "calibrator", name, "observations", census[name])
	}
	d.logger.Info("calibrator summaries discovered",
		"data_dir", d.dataDir,
		"files", humanize.Comma(int64(total)),
		"calibrators", len(names),
	)
}
