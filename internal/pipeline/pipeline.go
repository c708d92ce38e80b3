package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/cal-flagging-metrics/internal/domain"
	"github.com/couchcryptid/cal-flagging-metrics/internal/observability"
)

// Discoverer lists the observation summaries to process.
type Discoverer interface {
	Discover() ([]domain.ObservationFile, error)
}

// ReportReader loads one observation's station records.
type ReportReader interface {
	Read(ctx context.Context, file domain.ObservationFile) (domain.Report, error)
}

// Emitter receives the finished population summary.
type Emitter interface {
	Emit(ctx context.Context, sum domain.PopulationSummary) error
}

// Pipeline runs one pass over the data directory: discover, read and
// aggregate each observation, then emit the population summary.
type Pipeline struct {
	discoverer Discoverer
	reader     ReportReader
	emitters   []Emitter
	policy     domain.Policy
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Pipeline. Emitters run in the order given.
func New(d Discoverer, r ReportReader, policy domain.Policy, logger *slog.Logger, metrics *observability.Metrics, emitters ...Emitter) *Pipeline {
	return &Pipeline{
		discoverer: d,
		reader:     r,
		emitters:   emitters,
		policy:     policy,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run processes every discovered observation and emits the summary. A report
// that cannot be read is logged, recorded as a failure and skipped. Discovery
// and emission errors abort the run.
func (p *Pipeline) Run(ctx context.Context) (domain.PopulationSummary, error) {
	start := time.Now()

	files, err := p.discoverer.Discover()
	if err != nil {
		return domain.PopulationSummary{}, fmt.Errorf("discover observations: %w", err)
	}
	p.logger.Info("pipeline started",
		"observations", len(files),
		"flag_threshold", p.policy.FlagThreshold,
		"min_pass_core", p.policy.MinPassCore,
		"min_pass_remote", p.policy.MinPassRemote,
		"min_pass_international", p.policy.MinPassInternational,
	)

	summarizer := domain.NewSummarizer(p.policy)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			p.logger.Info("pipeline stopping", "reason", err)
			return domain.PopulationSummary{}, err
		}
		p.processObservation(ctx, summarizer, f)
	}

	sum := summarizer.Finalize()
	for _, c := range domain.Classes() {
		p.logger.Info("class pass total", "class", c.String(), "result", sum.PassTotal(c), "with_stations", sum.WithData[c])
	}
	if len(sum.Failures) > 0 {
		p.logger.Warn("observations skipped", "count", len(sum.Failures))
	}

	defer func() {
		p.metrics.RunDuration.Set(time.Since(start).Seconds())
		p.metrics.LastRunTimestamp.SetToCurrentTime()
	}()

	for _, e := range p.emitters {
		if err := e.Emit(ctx, sum); err != nil {
			return sum, fmt.Errorf("emit summary: %w", err)
		}
	}
	return sum, nil
}

// processObservation reads and aggregates one observation into the summarizer.
func (p *Pipeline) processObservation(ctx context.Context, s *domain.Summarizer, f domain.ObservationFile) {
	report, err := p.reader.Read(ctx, f)
	if err != nil {
		p.logger.Warn("read failed, skipping observation",
			"error", err,
			"observation", f.ObservationID,
			"calibrator", f.Calibrator,
			"path", f.Path,
		)
		p.metrics.ReadFailures.Inc()
		s.AddFailure(domain.Failure{
			ObservationID: f.ObservationID,
			Calibrator:    f.Calibrator,
			Path:          f.Path,
			Err:           err,
		})
		return
	}

	m := domain.ComputeMetrics(f.ObservationID, f.Calibrator, report.Stations, p.policy.FlagThreshold)
	d := s.Add(m)

	p.metrics.ObservationsProcessed.Inc()
	for _, c := range domain.Classes() {
		p.metrics.StationsProcessed.WithLabelValues(c.String()).Add(float64(m.PerClass[c].Total))
		if d.Passed(c) {
			p.metrics.ClassPasses.WithLabelValues(c.String()).Inc()
		}
	}

	p.logger.Debug("observation aggregated",
		"observation", f.ObservationID,
		"calibrator", f.Calibrator,
		"field", report.FieldName,
		"stations", m.StationCount(),
		"core_pass", d.Passed(domain.ClassCore),
		"remote_pass", d.Passed(domain.ClassRemote),
		"international_pass", d.Passed(domain.ClassInternational),
	)
}
