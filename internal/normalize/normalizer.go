// Package normalize converts the raw per-symbol tick stream into the
// canonical staging schema: incremental cutoff, documented defaults for
// missing fields, stable record identity, deduplication, and per-symbol
// daily returns.
package normalize

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"stocketl/internal/metrics"
	"stocketl/pkg/contracts/domain"
)

// Options configures a normalization pass
type Options struct {
	// Cutoff is the incremental watermark. Rows dated on or before the
	// cutoff are dropped; nil processes the entire batch.
	Cutoff *time.Time

	// PrevCloses seeds the partition-head previous close per symbol so daily
	// returns stay continuous across incremental batches. Without a seed the
	// first row of each partition has no previous close and a 0.0 return.
	PrevCloses map[string]float64
}

// Stats counts the data-quality recoveries applied during a pass. Anomalies
// are recovered locally, never fatal, and always observable.
type Stats struct {
	RowsIn            int
	RowsFiltered      int
	DuplicatesDropped int
	FieldsDefaulted   int
	UnknownCompanies  int
}

// Normalizer transforms raw tick batches into normalized stock records
type Normalizer struct {
	resolver  CompanyResolver
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewNormalizer creates a normalizer with the given company resolver.
// The collector may be nil when counters are not wired (tests).
func NewNormalizer(resolver CompanyResolver, logger *slog.Logger, collector *metrics.Collector) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{resolver: resolver, logger: logger, collector: collector}
}

// Normalize runs the full normalization pass over one raw batch. The output
// is ordered by CompanyID then Date; unresolved companies sort first.
func (n *Normalizer) Normalize(ctx context.Context, raw []domain.RawTick, opts Options) ([]domain.StockRecord, Stats, error) {
	stats := Stats{RowsIn: len(raw)}

	filtered := n.filterStale(raw, opts.Cutoff, &stats)
	deduped := n.deduplicate(filtered, &stats)

	records := make([]domain.StockRecord, 0, len(deduped))
	for _, tick := range deduped {
		records = append(records, n.toRecord(tick, &stats))
	}

	n.computeDailyReturns(records, opts.PrevCloses)

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CompanyID != b.CompanyID {
			return a.CompanyID < b.CompanyID
		}
		if a.Symbol != b.Symbol {
			return a.Symbol < b.Symbol
		}
		return a.Date.Before(b.Date)
	})

	n.logger.InfoContext(ctx, "normalization complete",
		slog.Int("rows_in", stats.RowsIn),
		slog.Int("rows_filtered", stats.RowsFiltered),
		slog.Int("duplicates_dropped", stats.DuplicatesDropped),
		slog.Int("fields_defaulted", stats.FieldsDefaulted),
		slog.Int("unknown_companies", stats.UnknownCompanies),
		slog.Int("rows_out", len(records)))

	return records, stats, nil
}

// filterStale drops rows at or before the watermark. The cutoff is strictly
// exclusive on the stored boundary.
func (n *Normalizer) filterStale(raw []domain.RawTick, cutoff *time.Time, stats *Stats) []domain.RawTick {
	if cutoff == nil {
		return raw
	}

	kept := make([]domain.RawTick, 0, len(raw))
	for _, tick := range raw {
		if tick.Date.After(*cutoff) {
			kept = append(kept, tick)
			continue
		}
		stats.RowsFiltered++
	}

	if n.collector != nil {
		n.collector.RowsFiltered.Add(float64(stats.RowsFiltered))
	}

	return kept
}

// deduplicate keeps the first occurrence of each (Symbol, Date) pair in
// batch order. Extraction duplicates are expected under provider retries and
// are counted, not errors.
func (n *Normalizer) deduplicate(raw []domain.RawTick, stats *Stats) []domain.RawTick {
	seen := make(map[domain.TickKey]struct{}, len(raw))
	kept := make([]domain.RawTick, 0, len(raw))

	for _, tick := range raw {
		key := tick.Key()
		if _, dup := seen[key]; dup {
			stats.DuplicatesDropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, tick)
	}

	if stats.DuplicatesDropped > 0 {
		n.logger.Warn("dropped duplicate rows",
			slog.Int("count", stats.DuplicatesDropped))
		if n.collector != nil {
			n.collector.DuplicatesDropped.Add(float64(stats.DuplicatesDropped))
		}
	}

	return kept
}

// toRecord fills defaults, assigns identity and resolves the company
// dimension for a single tick.
func (n *Normalizer) toRecord(tick domain.RawTick, stats *Stats) domain.StockRecord {
	defaulted := 0

	record := domain.StockRecord{
		RecordID:    uuid.NewString(),
		Symbol:      tick.Symbol,
		CompanyName: tick.CompanyName,
		DateID:      domain.DateKey(tick.Date),
		Date:        tick.Date,
	}

	// Price fields default to 0.0 and volume to 0. The zero is a documented
	// data-quality compromise: indistinguishable from an actual zero trade.
	record.OpenPrice = tick.OpenPrice.ValueOrZero()
	record.High = tick.High.ValueOrZero()
	record.Low = tick.Low.ValueOrZero()
	record.ClosePrice = tick.ClosePrice.ValueOrZero()
	record.Volume = tick.Volume.ValueOrZero()
	for _, present := range []bool{
		tick.OpenPrice.Valid, tick.High.Valid, tick.Low.Valid,
		tick.ClosePrice.Valid, tick.Volume.Valid,
	} {
		if !present {
			defaulted++
		}
	}

	if id, ok := n.resolver.Resolve(tick.CompanyName); ok {
		record.CompanyID = id
		record.Resolved = true
	} else {
		stats.UnknownCompanies++
		n.logger.Warn("unknown company, keeping row unresolved",
			slog.String("company", tick.CompanyName),
			slog.String("symbol", tick.Symbol))
		if n.collector != nil {
			n.collector.UnknownCompanies.Inc()
		}
	}

	if defaulted > 0 {
		stats.FieldsDefaulted += defaulted
		if n.collector != nil {
			n.collector.FieldsDefaulted.Add(float64(defaulted))
		}
	}

	return record
}

// computeDailyReturns partitions records by symbol, orders each partition by
// date ascending and derives the previous close and daily return. A seeded
// previous close carries the partition head across batch boundaries.
func (n *Normalizer) computeDailyReturns(records []domain.StockRecord, prevCloses map[string]float64) {
	partitions := make(map[string][]int)
	for i, r := range records {
		partitions[r.Symbol] = append(partitions[r.Symbol], i)
	}

	for symbol, idxs := range partitions {
		sort.Slice(idxs, func(a, b int) bool {
			return records[idxs[a]].Date.Before(records[idxs[b]].Date)
		})

		prev, hasPrev := prevCloses[symbol]
		for _, i := range idxs {
			r := &records[i]
			r.HasPrevClose = hasPrev
			if hasPrev {
				r.PreviousClosePrice = prev
				if prev != 0 {
					r.DailyReturn = (r.ClosePrice - prev) / prev
				}
			}
			prev, hasPrev = r.ClosePrice, true
		}
	}
}
