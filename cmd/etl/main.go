package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"stocketl/internal/aggregate"
	"stocketl/internal/config"
	"stocketl/internal/enrich"
	"stocketl/internal/exporter"
	"stocketl/internal/files"
	"stocketl/internal/infrastructure"
	"stocketl/internal/metrics"
	"stocketl/internal/normalize"
	"stocketl/internal/pipeline"
	"stocketl/internal/watermark"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file (env vars with prefix ETL take precedence)")
	inDir := flag.String("in", "", "input directory for raw snapshots (defaults to the configured raw dir)")
	outDir := flag.String("out", "", "base data directory (defaults to the configured data dir)")
	full := flag.Bool("full", false, "ignore the stored watermark and process the entire batch")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *outDir != "" {
		cfg.Paths.DataDir = *outDir
	}
	if *inDir != "" {
		cfg.Paths.RawDir = *inDir
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		slog.Error("failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("failed to create required directories", "error", err)
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("etl.log")
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, paths, logger, *full); err != nil {
		logger.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}
}

// run wires the pipeline and executes it. The watermark store connection is
// skipped for full-rework runs, which treat the batch as a cold start.
func run(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger, full bool) error {
	var store watermark.Store
	if full {
		logger.Info("full rework requested, skipping watermark store")
		store = watermark.ColdStartStore{}
	} else {
		pool, err := watermark.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		store = watermark.NewPostgresStore(pool, cfg.Database.WatermarkTable)
	}

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)
	resolver := normalize.NewStaticResolver(cfg.Companies.Mapping)

	seedFile := ""
	if cfg.Pipeline.SeedWindows {
		seedFile = paths.WindowSeedFile
	}

	// A full rework discards the persisted window seed along with the
	// watermark; the recomputed seed is persisted at the end of the run.
	runner := pipeline.NewRunner(logger,
		pipeline.NewDiscoverStep(files.NewDiscovery(paths.DataDir), paths.RawDir, cfg.Pipeline.RawPrefix, cfg.Pipeline.SnapshotExt),
		pipeline.NewWatermarkStep(watermark.NewTracker(store, logger), seedFile, full),
		pipeline.NewNormalizeStep(normalize.NewNormalizer(resolver, logger, collector)),
		pipeline.NewEnrichStep(enrich.NewEngine(logger)),
		pipeline.NewWriteNormalizedStep(exporter.NewWriter(paths.NormalizedDir, cfg.Pipeline.SnapshotExt, logger), cfg.Pipeline.NormalizedPrefix, collector),
		pipeline.NewAggregateStep(aggregate.NewAggregator(logger)),
		pipeline.NewWriteAggregatedStep(exporter.NewWriter(paths.AggregatedDir, cfg.Pipeline.SnapshotExt, logger), cfg.Pipeline.AggregatedPrefix, collector),
		pipeline.NewPersistStateStep(seedFile),
	)

	state, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("pipeline run complete",
		slog.String("input", state.InputFile),
		slog.Int("normalized_rows", len(state.Records)),
		slog.Int("companies", len(state.Summaries)),
		slog.String("normalized_snapshot", state.NormalizedPath),
		slog.String("aggregated_snapshot", state.AggregatedPath))

	return nil
}
