package aggregate

import (
	"gonum.org/v1/gonum/stat"

	"stocketl/pkg/contracts/domain"
)

// group is one company's slice of the batch, ordered by date ascending
type group struct {
	companyID int64
	records   []domain.EnrichedRecord
}

// Every facet reduces one group to a subset of summary columns. All facets
// run over the same grouping key set, so the merge can never gain or lose a
// company relative to any single facet.

// performanceFacet fills mean average daily price, total volume and mean
// daily return.
func performanceFacet(g group, s *domain.CompanySummary) {
	prices := make([]float64, len(g.records))
	returns := make([]float64, len(g.records))
	var volume int64
	for i, r := range g.records {
		prices[i] = (r.OpenPrice + r.ClosePrice) / 2
		returns[i] = r.DailyReturn
		volume += r.Volume
	}
	s.AverageDailyPrice = stat.Mean(prices, nil)
	s.TotalVolume = volume
	s.DailyReturn = stat.Mean(returns, nil)
}

// totalVolumeFacet fills the total trading volume
func totalVolumeFacet(g group, s *domain.CompanySummary) {
	var volume int64
	for _, r := range g.records {
		volume += r.Volume
	}
	s.TotalTradingVolume = volume
}

// meanReturnFacet recomputes mean daily return from the same column. It
// mirrors the performance facet's third field and is kept as a separate facet
// for join symmetry.
func meanReturnFacet(g group, s *domain.CompanySummary) {
	returns := make([]float64, len(g.records))
	for i, r := range g.records {
		returns[i] = r.DailyReturn
	}
	s.MeanDailyReturn = stat.Mean(returns, nil)
}

// volatilityFacet fills the sample standard deviation of daily returns.
// A single-row group has undefined deviation and reports 0.0.
func volatilityFacet(g group, s *domain.CompanySummary) {
	if len(g.records) < 2 {
		s.VolatilityIndex = 0
		return
	}
	returns := make([]float64, len(g.records))
	for i, r := range g.records {
		returns[i] = r.DailyReturn
	}
	s.VolatilityIndex = stat.StdDev(returns, nil)
}

// movingAverageFacet fills the most recent 5- and 10-day moving averages in
// the batch, not a mean over the batch.
func movingAverageFacet(g group, s *domain.CompanySummary) {
	if len(g.records) == 0 {
		return
	}
	last := g.records[len(g.records)-1]
	s.MovingAvg5Day = last.MovingAvg5
	s.MovingAvg10Day = last.MovingAvg10
}

// trendFacet fills the mean of per-row trend values
func trendFacet(g group, s *domain.CompanySummary) {
	trends := make([]float64, len(g.records))
	for i, r := range g.records {
		trends[i] = r.Trend
	}
	s.TrendAnalysis = stat.Mean(trends, nil)
}

// highLowFacet fills the mean of per-row high/low ratios
func highLowFacet(g group, s *domain.CompanySummary) {
	ratios := make([]float64, len(g.records))
	for i, r := range g.records {
		ratios[i] = r.HighLowRatio
	}
	s.HighLowRatio = stat.Mean(ratios, nil)
}

// volumeFacet fills the mean volume
func volumeFacet(g group, s *domain.CompanySummary) {
	volumes := make([]float64, len(g.records))
	for i, r := range g.records {
		volumes[i] = float64(r.Volume)
	}
	s.AverageVolume = stat.Mean(volumes, nil)
}

// facets is the fixed reduction set applied to every group
var facets = []func(group, *domain.CompanySummary){
	performanceFacet,
	totalVolumeFacet,
	meanReturnFacet,
	volatilityFacet,
	movingAverageFacet,
	trendFacet,
	highLowFacet,
	volumeFacet,
}
