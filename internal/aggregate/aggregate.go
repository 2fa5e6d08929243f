// Package aggregate reduces an enriched batch into one summary row per
// company. Eight independent group-by facets run over the same grouping key
// set and merge into a single wide row; the merge order is deterministic so
// runs over identical input compare byte for byte.
package aggregate

import (
	"context"
	"log/slog"
	"sort"

	"stocketl/pkg/contracts/domain"
)

// Aggregator reduces enriched batches into company summaries
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator creates an aggregator
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate computes all facets per company over the current batch only.
// Every CompanyID present in the input yields exactly one output row, in
// ascending CompanyID order. Unresolved companies aggregate under ID 0.
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.EnrichedRecord) ([]domain.CompanySummary, error) {
	groups := groupByCompany(records)

	summaries := make([]domain.CompanySummary, 0, len(groups))
	for _, g := range groups {
		summary := domain.CompanySummary{CompanyID: g.companyID}
		for _, facet := range facets {
			facet(g, &summary)
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CompanyID < summaries[j].CompanyID
	})

	a.logger.InfoContext(ctx, "aggregation complete",
		slog.Int("rows_in", len(records)),
		slog.Int("companies", len(summaries)))

	return summaries, nil
}

// groupByCompany partitions the batch by CompanyID, each group ordered by
// date ascending so "last value" facets are well defined.
func groupByCompany(records []domain.EnrichedRecord) []group {
	byCompany := make(map[int64][]domain.EnrichedRecord)
	for _, r := range records {
		byCompany[r.CompanyID] = append(byCompany[r.CompanyID], r)
	}

	groups := make([]group, 0, len(byCompany))
	for id, recs := range byCompany {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].Date.Before(recs[j].Date)
		})
		groups = append(groups, group{companyID: id, records: recs})
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].companyID < groups[j].companyID
	})

	return groups
}
