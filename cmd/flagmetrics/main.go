// Command flagmetrics summarizes calibrator flagging across a population of
// observations and decides, per station class, whether each observation has
// enough well-behaved stations to pass.
//
// Usage:
//
//	go run ./cmd/flagmetrics \
//	  -data-dir data/cal_json \
//	  -output flagging_summary \
//	  -threshold 70 -min-core 40 -min-remote 10 -min-intl 10
//
// Flags override the environment and FLAGMETRICS_CONFIG file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/cal-flagging-metrics/internal/adapter/filesystem"
	kafkaadapter "github.com/couchcryptid/cal-flagging-metrics/internal/adapter/kafka"
	"github.com/couchcryptid/cal-flagging-metrics/internal/adapter/linc"
	"github.com/couchcryptid/cal-flagging-metrics/internal/adapter/report"
	"github.com/couchcryptid/cal-flagging-metrics/internal/config"
	"github.com/couchcryptid/cal-flagging-metrics/internal/observability"
	"github.com/couchcryptid/cal-flagging-metrics/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const (
	exitOK      = 0
	exitError   = 1
	exitSkipped = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitError
	}

	strict, err := applyFlags(cfg, args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitError
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid settings", "error", err)
		return exitError
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	emitters, err := report.ForFormats(cfg.OutputBase, cfg.OutputFormats, logger)
	if err != nil {
		logger.Error("report setup failed", "error", err)
		return exitError
	}
	all := []pipeline.Emitter{emitters}

	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		all = append(all, writer)
		logger.Info("verdict publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	p := pipeline.New(
		filesystem.NewDiscoverer(cfg.DataDir, cfg.ReportPattern, logger),
		linc.NewReader(),
		cfg.Policy,
		logger,
		metrics,
		all...,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := p.Run(ctx)

	if cfg.MetricsTextfile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsTextfile); werr != nil {
			logger.Error("metrics textfile write failed", "error", werr, "path", cfg.MetricsTextfile)
		}
	}

	if err != nil {
		logger.Error("pipeline error", "error", err)
		return exitError
	}
	if strict && len(sum.Failures) > 0 {
		logger.Error("observations skipped in strict mode", "count", len(sum.Failures))
		return exitSkipped
	}
	return exitOK
}

// applyFlags overrides cfg with any flags given on the command line and
// reports whether strict mode was requested.
func applyFlags(cfg *config.Config, args []string, stderr io.Writer) (bool, error) {
	fs := flag.NewFlagSet("flagmetrics", flag.ContinueOnError)
	fs.SetOutput(stderr)

	dataDir := fs.String("data-dir", cfg.DataDir, "directory holding L*/ observation subdirectories")
	pattern := fs.String("pattern", cfg.ReportPattern, "glob for calibrator summaries, relative to -data-dir")
	output := fs.String("output", cfg.OutputBase, "base path for report files")
	formats := fs.String("formats", strings.Join(cfg.OutputFormats, ","), "comma-separated report formats (csv, xlsx, pdf)")
	threshold := fs.Float64("threshold", cfg.Policy.FlagThreshold, "flagged percentage at or above which a station counts as heavily flagged")
	minCore := fs.Int("min-core", cfg.Policy.MinPassCore, "minimum core stations below threshold")
	minRemote := fs.Int("min-remote", cfg.Policy.MinPassRemote, "minimum remote stations below threshold")
	minIntl := fs.Int("min-intl", cfg.Policy.MinPassInternational, "minimum international stations below threshold")
	strict := fs.Bool("strict", false, "exit with status 2 if any observation was skipped")

	if err := fs.Parse(args); err != nil {
		return false, err
	}
	if fs.NArg() > 0 {
		return false, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg.DataDir = *dataDir
	cfg.ReportPattern = *pattern
	cfg.OutputBase = *output
	cfg.OutputFormats = config.ParseFormats(*formats)
	cfg.Policy.FlagThreshold = *threshold
	cfg.Policy.MinPassCore = *minCore
	cfg.Policy.MinPassRemote = *minRemote
	cfg.Policy.MinPassInternational = *minIntl
	return *strict, nil
}
