package domain

// CompanySummary is one aggregated row per company for a single run. It is a
// batch-local summary of the normalized records processed in that run, not a
// cumulative warehouse state; the downstream loader owns any cumulative merge.
type CompanySummary struct {
	CompanyID int64 `json:"company_id" db:"company_id"`

	// Performance facet.
	AverageDailyPrice float64 `json:"average_daily_price" db:"average_daily_price"`
	TotalVolume       int64   `json:"total_volume" db:"total_volume"`
	DailyReturn       float64 `json:"daily_return" db:"daily_return"`

	// Independent facets joined on CompanyID.
	TotalTradingVolume int64   `json:"total_trading_volume" db:"total_trading_volume"`
	MeanDailyReturn    float64 `json:"mean_daily_return" db:"mean_daily_return"`
	VolatilityIndex    float64 `json:"volatility_index" db:"volatility_index"`
	MovingAvg5Day      float64 `json:"moving_avg_5_day" db:"moving_avg_5_day"`
	MovingAvg10Day     float64 `json:"moving_avg_10_day" db:"moving_avg_10_day"`
	TrendAnalysis      float64 `json:"trend_analysis" db:"trend_analysis"`
	HighLowRatio       float64 `json:"high_low_ratio" db:"high_low_ratio"`
	AverageVolume      float64 `json:"average_volume" db:"average_volume"`
}
