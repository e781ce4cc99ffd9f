package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/covid-data-etl/internal/adapter/chart"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/choropleth"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/console"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/excel"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/owid"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
)

const pushJob = "covid-tracker"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "dir", cfg.OutputDir, "error", err)
		return 1
	}

	reporters := []pipeline.Reporter{
		console.NewSummary(os.Stdout),
		chart.NewCaseCharts(cfg.OutputDir),
		chart.NewVaccinationCharts(cfg.OutputDir),
		choropleth.NewMap(cfg.OutputDir),
	}
	if cfg.WorkbookEnabled {
		reporters = append(reporters, excel.NewWorkbook(cfg.OutputDir, logger))
	}

	var snapshot *kafkaadapter.SnapshotWriter
	if cfg.KafkaEnabled {
		snapshot = kafkaadapter.NewSnapshotWriter(cfg, logger)
		reporters = append(reporters, snapshot)
		logger.Info("kafka snapshot feed enabled", "topic", cfg.KafkaSnapshotTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka snapshot feed disabled")
	}

	loader := owid.NewLoader(cfg.DataSource, cfg.FetchTimeout, logger)
	p := pipeline.New(loader, reporters, cfg.RollingWindow, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	_, err = p.Run(ctx)
	switch {
	case errors.Is(err, pipeline.ErrLoad):
		logger.Error("failed to load dataset", "source", loader.Source(), "error", err)
		fmt.Fprintf(os.Stderr, "Please download the dataset manually from %s and set DATA_SOURCE to its path.\n", config.DefaultDataSource)
		pushMetrics(cfg, logger)
		closeSnapshot(snapshot, logger)
		return 1
	case err != nil:
		logger.Error("one or more reports failed", "error", err)
		exitCode = 1
	default:
		logger.Info("all reports written", "output_dir", cfg.OutputDir)
	}

	pushMetrics(cfg, logger)

	if cfg.HTTPAddr != "" && ctx.Err() == nil {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		if err := srv.Serve(ctx, cfg.ShutdownTimeout); err != nil {
			logger.Error("http server error", "error", err)
			exitCode = 1
		}
	}

	closeSnapshot(snapshot, logger)

	logger.Info("shutdown complete")
	return exitCode
}

// pushMetrics delivers the run's metrics once when a Pushgateway is configured.
func pushMetrics(cfg *config.Config, logger *slog.Logger) {
	if cfg.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := observability.Push(ctx, cfg.PushgatewayURL, pushJob); err != nil {
		logger.Error("metrics push failed", "url", cfg.PushgatewayURL, "error", err)
	}
}

func closeSnapshot(w *kafkaadapter.SnapshotWriter, logger *slog.Logger) {
	if w == nil {
		return
	}
	if err := w.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
