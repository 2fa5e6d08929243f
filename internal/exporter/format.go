package exporter

import (
	"strconv"

	"stocketl/pkg/contracts/domain"
)

// NormalizedHeaders is the column order of normalized snapshots. It mirrors
// the staging schema consumed by the warehouse loader.
var NormalizedHeaders = []string{
	"RecordID", "CompanyID", "Symbol", "CompanyName", "DateID",
	"Date", "OpenPrice", "High", "Low", "ClosePrice", "Volume",
	"PreviousClosePrice", "DailyReturn",
	"MovingAvg5Day", "MovingAvg10Day", "Trend", "HighLowRatio",
}

// AggregatedHeaders is the column order of aggregated snapshots
var AggregatedHeaders = []string{
	"CompanyID", "AverageDailyPrice", "TotalVolume", "DailyReturn",
	"TotalTradingVolume", "MeanDailyReturn", "VolatilityIndex",
	"MovingAvg5Day", "MovingAvg10Day", "TrendAnalysis",
	"HighLowRatio", "AverageVolume",
}

// EncodeNormalized converts enriched records into CSV rows in snapshot column
// order. An unresolved CompanyID renders as an empty cell so the loader can
// distinguish it from a real dimension key.
func EncodeNormalized(records []domain.EnrichedRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		companyID := ""
		if r.Resolved {
			companyID = strconv.FormatInt(r.CompanyID, 10)
		}
		prevClose := ""
		if r.HasPrevClose {
			prevClose = formatFloat(r.PreviousClosePrice)
		}
		rows = append(rows, []string{
			r.RecordID,
			companyID,
			r.Symbol,
			r.CompanyName,
			strconv.Itoa(r.DateID),
			r.Date.Format("2006-01-02"),
			formatFloat(r.OpenPrice),
			formatFloat(r.High),
			formatFloat(r.Low),
			formatFloat(r.ClosePrice),
			strconv.FormatInt(r.Volume, 10),
			prevClose,
			formatFloat(r.DailyReturn),
			formatFloat(r.MovingAvg5),
			formatFloat(r.MovingAvg10),
			formatFloat(r.Trend),
			formatFloat(r.HighLowRatio),
		})
	}
	return rows
}

// EncodeAggregated converts company summaries into CSV rows in snapshot
// column order.
func EncodeAggregated(summaries []domain.CompanySummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			strconv.FormatInt(s.CompanyID, 10),
			formatFloat(s.AverageDailyPrice),
			strconv.FormatInt(s.TotalVolume, 10),
			formatFloat(s.DailyReturn),
			strconv.FormatInt(s.TotalTradingVolume, 10),
			formatFloat(s.MeanDailyReturn),
			formatFloat(s.VolatilityIndex),
			formatFloat(s.MovingAvg5Day),
			formatFloat(s.MovingAvg10Day),
			formatFloat(s.TrendAnalysis),
			formatFloat(s.HighLowRatio),
			formatFloat(s.AverageVolume),
		})
	}
	return rows
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
