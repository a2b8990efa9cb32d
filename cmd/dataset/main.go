package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/fpl-oracle/internal/app"
	"github.com/riskibarqy/fpl-oracle/internal/config"
	"github.com/riskibarqy/fpl-oracle/internal/observability"
	"github.com/riskibarqy/fpl-oracle/internal/platform/logging"
	"github.com/riskibarqy/fpl-oracle/internal/usecase"
)

const (
	modeRun      = "run"
	modeLabels   = "labels"
	modeCaptured = "captured"

	shutdownTimeout = 10 * time.Second
)

func main() {
	os.Exit(run())
}

func run() int {
	mode := flag.String("mode", modeRun, "run | labels | captured")
	gameweek := flag.Int("gameweek", 0, "target gameweek; 0 uses GAMEWEEK or the next unplayed gameweek")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 2
	}
	if *gameweek == 0 {
		*gameweek = cfg.Gameweek
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry, err := observability.Setup(cfg, logger)
	if err != nil {
		logger.Error("setup telemetry", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline, err := app.NewPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("build pipeline", "error", err)
		return 1
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logger.Warn("close pipeline", "error", err)
		}
	}()

	switch strings.ToLower(strings.TrimSpace(*mode)) {
	case modeCaptured:
		gws, err := pipeline.Service.CapturedGameweeks(ctx)
		if err != nil {
			logger.Error("list captured gameweeks", "error", err)
			return 1
		}
		logger.Info("captured gameweeks", "gameweeks", gws, "count", len(gws))
		return 0
	case modeLabels:
		if *gameweek <= 0 {
			logger.Error("labels mode requires -gameweek or GAMEWEEK")
			return 2
		}
		report, err := pipeline.Service.ExtractLabels(ctx, *gameweek)
		return finish(ctx, pipeline, logger, report, err)
	case modeRun:
		gw, err := pipeline.Service.ResolveGameweek(ctx, *gameweek)
		if err != nil {
			logger.Error("resolve gameweek", "error", err)
			return 1
		}
		report, err := pipeline.Service.Run(ctx, gw)
		return finish(ctx, pipeline, logger, report, err)
	default:
		logger.Error("unknown mode", "mode", *mode)
		return 2
	}
}

func finish(ctx context.Context, pipeline *app.Pipeline, logger *logging.Logger, report usecase.RunReport, err error) int {
	if err != nil && !errors.Is(err, usecase.ErrAlreadyCaptured) {
		logger.ErrorContext(ctx, "dataset run failed", "error", err, "report", report)
		return 1
	}

	pipeline.PublishMetrics(ctx, report)
	logger.InfoContext(ctx, "dataset run finished",
		"run_id", report.RunID,
		"gameweek", report.Gameweek,
		"already_captured", report.AlreadyCaptured,
		"feature_rows", report.FeatureRows,
		"label_gameweek", report.LabelGameweek,
		"label_rows", report.LabelRows,
		"labels_skipped", report.LabelsSkipped,
		"unmatched_players", len(report.UnmatchedPlayers),
		"skipped", report.SkippedByStage(),
		"archive_failed", report.ArchiveFailed,
		"duration_ms", report.DurationMs,
	)
	return 0
}
