package pipeline

import (
	"time"

	"stocketl/internal/enrich"
	"stocketl/internal/normalize"
	"stocketl/pkg/contracts/domain"
)

// State carries the batch between steps of a single run. A run either
// completes every step or fails as a whole; no partial-success state is
// exposed to callers.
type State struct {
	// InputFile is the discovered raw snapshot for this run
	InputFile string

	// Cutoff is the watermark boundary; nil on cold start
	Cutoff *time.Time

	// WindowState is the persisted per-symbol trailing-close seed; nil when
	// window seeding is disabled.
	WindowState *enrich.WindowState

	Raw            []domain.RawTick
	NormalizeStats normalize.Stats
	Records        []domain.StockRecord
	Enriched       []domain.EnrichedRecord
	Summaries      []domain.CompanySummary

	// Written artifact paths
	NormalizedPath string
	AggregatedPath string
}
