// Package enrich computes the per-row window metrics over normalized
// batches: trailing moving averages, five-row trend and the high/low ratio.
// Windows are partition-local (one partition per symbol, ordered by date) and
// batch-local unless a persisted window state seeds the partition heads.
package enrich

import (
	"context"
	"log/slog"
	"sort"

	"stocketl/pkg/contracts/domain"
)

// Window sizes for the fixed metric set
const (
	shortWindow = 5
	longWindow  = 10
	trendOffset = 5
)

// Engine computes window metrics over a normalized batch
type Engine struct {
	logger *slog.Logger
}

// NewEngine creates a metric engine
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Enrich computes the window metrics for every record. The input order is
// preserved. When seed is non-nil its trailing closes extend each partition's
// history and the state is advanced in place with the batch's closes, ready
// to be persisted for the next run. Undefined values (insufficient history,
// zero denominators) fill with the 0.0 sentinel.
func (e *Engine) Enrich(ctx context.Context, records []domain.StockRecord, seed *WindowState) ([]domain.EnrichedRecord, error) {
	enriched := make([]domain.EnrichedRecord, len(records))
	for i, r := range records {
		enriched[i] = domain.EnrichedRecord{StockRecord: r}
	}

	partitions := make(map[string][]int)
	for i, r := range records {
		partitions[r.Symbol] = append(partitions[r.Symbol], i)
	}

	for symbol, idxs := range partitions {
		sort.Slice(idxs, func(a, b int) bool {
			return records[idxs[a]].Date.Before(records[idxs[b]].Date)
		})

		// closes holds seed history followed by this batch's closes,
		// oldest first.
		var closes []float64
		if seed != nil {
			closes = append(closes, seed.Seed(symbol)...)
		}

		for _, i := range idxs {
			row := &enriched[i]
			closes = append(closes, row.ClosePrice)

			row.MovingAvg5 = trailingMean(closes, shortWindow)
			row.MovingAvg10 = trailingMean(closes, longWindow)
			row.Trend = trendPercent(closes, trendOffset)
			if row.Low != 0 {
				row.HighLowRatio = row.High / row.Low
			}

			if seed != nil {
				seed.extend(symbol, row.ClosePrice)
			}
		}
	}

	e.logger.InfoContext(ctx, "metric enrichment complete",
		slog.Int("rows", len(enriched)),
		slog.Int("partitions", len(partitions)))

	return enriched, nil
}

// trailingMean returns the arithmetic mean of the last window closes,
// inclusive of the current row, or the 0.0 sentinel with less history than
// the window size.
func trailingMean(closes []float64, window int) float64 {
	if len(closes) < window {
		return 0
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window)
}

// trendPercent returns the percentage change versus the close offset rows
// earlier, or the 0.0 sentinel when that row does not exist or is zero.
func trendPercent(closes []float64, offset int) float64 {
	if len(closes) <= offset {
		return 0
	}
	base := closes[len(closes)-1-offset]
	if base == 0 {
		return 0
	}
	return (closes[len(closes)-1]/base - 1) * 100
}
