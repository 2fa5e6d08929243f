package pipeline

import (
	"context"
	"fmt"

	"stocketl/internal/aggregate"
	"stocketl/internal/enrich"
	"stocketl/internal/exporter"
	"stocketl/internal/files"
	"stocketl/internal/metrics"
	"stocketl/internal/normalize"
	"stocketl/internal/watermark"
)

// Step identifiers
const (
	StepIDDiscover        = "discover"
	StepIDWatermark       = "watermark"
	StepIDNormalize       = "normalize"
	StepIDEnrich          = "enrich"
	StepIDWriteNormalized = "write_normalized"
	StepIDAggregate       = "aggregate"
	StepIDWriteAggregated = "write_aggregated"
	StepIDPersistState    = "persist_state"
)

// DiscoverStep locates the latest raw snapshot and parses it into ticks
type DiscoverStep struct {
	discovery *files.Discovery
	dir       string
	prefix    string
	ext       string
}

// NewDiscoverStep creates the input-discovery step
func NewDiscoverStep(discovery *files.Discovery, dir, prefix, ext string) *DiscoverStep {
	return &DiscoverStep{discovery: discovery, dir: dir, prefix: prefix, ext: ext}
}

func (s *DiscoverStep) ID() string   { return StepIDDiscover }
func (s *DiscoverStep) Name() string { return "Input Discovery" }

func (s *DiscoverStep) Run(ctx context.Context, state *State) error {
	latest, err := s.discovery.LatestByPrefix(s.dir, s.prefix, s.ext)
	if err != nil {
		return err
	}
	state.InputFile = latest.Path

	ticks, err := normalize.ReadTicks(latest.Path)
	if err != nil {
		return err
	}
	state.Raw = ticks
	return nil
}

// WatermarkStep resolves the incremental cutoff and loads the window seed
type WatermarkStep struct {
	tracker   *watermark.Tracker
	seedFile  string
	resetSeed bool
}

// NewWatermarkStep creates the watermark step. An empty seedFile disables
// cross-batch window seeding. resetSeed discards the persisted seed and
// starts from an empty state; a full rework reprocesses history older than
// the persisted closes, so seeding its partition heads would hand the oldest
// rows the newest prior close.
func NewWatermarkStep(tracker *watermark.Tracker, seedFile string, resetSeed bool) *WatermarkStep {
	return &WatermarkStep{tracker: tracker, seedFile: seedFile, resetSeed: resetSeed}
}

func (s *WatermarkStep) ID() string   { return StepIDWatermark }
func (s *WatermarkStep) Name() string { return "Watermark Resolution" }

func (s *WatermarkStep) Run(ctx context.Context, state *State) error {
	cutoff, ok, err := s.tracker.Latest(ctx)
	if err != nil {
		return err
	}
	if ok {
		state.Cutoff = &cutoff
	}

	if s.seedFile != "" {
		if s.resetSeed {
			state.WindowState = enrich.NewWindowState()
		} else {
			seed, err := enrich.LoadWindowState(s.seedFile)
			if err != nil {
				return fmt.Errorf("load window seed: %w", err)
			}
			state.WindowState = seed
		}
	}

	return nil
}

// NormalizeStep converts raw ticks into normalized records
type NormalizeStep struct {
	normalizer *normalize.Normalizer
}

// NewNormalizeStep creates the normalization step
func NewNormalizeStep(normalizer *normalize.Normalizer) *NormalizeStep {
	return &NormalizeStep{normalizer: normalizer}
}

func (s *NormalizeStep) ID() string   { return StepIDNormalize }
func (s *NormalizeStep) Name() string { return "Normalization" }

func (s *NormalizeStep) Run(ctx context.Context, state *State) error {
	opts := normalize.Options{Cutoff: state.Cutoff}
	if state.WindowState != nil {
		opts.PrevCloses = state.WindowState.PrevCloses()
	}

	records, stats, err := s.normalizer.Normalize(ctx, state.Raw, opts)
	if err != nil {
		return err
	}
	state.Records = records
	state.NormalizeStats = stats
	return nil
}

// EnrichStep computes the window metrics
type EnrichStep struct {
	engine *enrich.Engine
}

// NewEnrichStep creates the metric-enrichment step
func NewEnrichStep(engine *enrich.Engine) *EnrichStep {
	return &EnrichStep{engine: engine}
}

func (s *EnrichStep) ID() string   { return StepIDEnrich }
func (s *EnrichStep) Name() string { return "Metric Enrichment" }

func (s *EnrichStep) Run(ctx context.Context, state *State) error {
	enriched, err := s.engine.Enrich(ctx, state.Records, state.WindowState)
	if err != nil {
		return err
	}
	state.Enriched = enriched
	return nil
}

// WriteNormalizedStep persists the normalized snapshot
type WriteNormalizedStep struct {
	writer    *exporter.Writer
	prefix    string
	collector *metrics.Collector
}

// NewWriteNormalizedStep creates the normalized snapshot step
func NewWriteNormalizedStep(writer *exporter.Writer, prefix string, collector *metrics.Collector) *WriteNormalizedStep {
	return &WriteNormalizedStep{writer: writer, prefix: prefix, collector: collector}
}

func (s *WriteNormalizedStep) ID() string   { return StepIDWriteNormalized }
func (s *WriteNormalizedStep) Name() string { return "Normalized Snapshot" }

func (s *WriteNormalizedStep) Run(ctx context.Context, state *State) error {
	path, err := s.writer.WriteSnapshot(s.prefix, exporter.NormalizedHeaders, exporter.EncodeNormalized(state.Enriched))
	if err != nil {
		return err
	}
	state.NormalizedPath = path
	if s.collector != nil {
		s.collector.SnapshotsWritten.Inc()
	}
	return nil
}

// AggregateStep reduces the enriched batch into company summaries
type AggregateStep struct {
	aggregator *aggregate.Aggregator
}

// NewAggregateStep creates the aggregation step
func NewAggregateStep(aggregator *aggregate.Aggregator) *AggregateStep {
	return &AggregateStep{aggregator: aggregator}
}

func (s *AggregateStep) ID() string   { return StepIDAggregate }
func (s *AggregateStep) Name() string { return "Aggregation" }

func (s *AggregateStep) Run(ctx context.Context, state *State) error {
	summaries, err := s.aggregator.Aggregate(ctx, state.Enriched)
	if err != nil {
		return err
	}
	state.Summaries = summaries
	return nil
}

// WriteAggregatedStep persists the aggregated snapshot
type WriteAggregatedStep struct {
	writer    *exporter.Writer
	prefix    string
	collector *metrics.Collector
}

// NewWriteAggregatedStep creates the aggregated snapshot step
func NewWriteAggregatedStep(writer *exporter.Writer, prefix string, collector *metrics.Collector) *WriteAggregatedStep {
	return &WriteAggregatedStep{writer: writer, prefix: prefix, collector: collector}
}

func (s *WriteAggregatedStep) ID() string   { return StepIDWriteAggregated }
func (s *WriteAggregatedStep) Name() string { return "Aggregated Snapshot" }

func (s *WriteAggregatedStep) Run(ctx context.Context, state *State) error {
	path, err := s.writer.WriteSnapshot(s.prefix, exporter.AggregatedHeaders, exporter.EncodeAggregated(state.Summaries))
	if err != nil {
		return err
	}
	state.AggregatedPath = path
	if s.collector != nil {
		s.collector.SnapshotsWritten.Inc()
	}
	return nil
}

// PersistStateStep saves the advanced window seed for the next run. It runs
// last so a failed run never advances the seed past unwritten output.
type PersistStateStep struct {
	seedFile string
}

// NewPersistStateStep creates the state persistence step
func NewPersistStateStep(seedFile string) *PersistStateStep {
	return &PersistStateStep{seedFile: seedFile}
}

func (s *PersistStateStep) ID() string   { return StepIDPersistState }
func (s *PersistStateStep) Name() string { return "Window State Persistence" }

func (s *PersistStateStep) Run(ctx context.Context, state *State) error {
	if state.WindowState == nil || s.seedFile == "" {
		return nil
	}
	return state.WindowState.Save(s.seedFile)
}
