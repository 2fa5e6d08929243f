package domain

import (
	"time"
)

// StockRecord is the canonical per-(Symbol, Date) row produced by the Normalizer.
// Records are append-only: once a snapshot is written they are never mutated,
// only extended by later runs.
type StockRecord struct {
	RecordID    string    `json:"record_id" db:"record_id" validate:"required,uuid"`
	CompanyID   int64     `json:"company_id" db:"company_id"`
	Resolved    bool      `json:"resolved" db:"resolved"`
	Symbol      string    `json:"symbol" db:"symbol" validate:"required"`
	CompanyName string    `json:"company_name" db:"company_name"`
	DateID      int       `json:"date_id" db:"date_id"`
	Date        time.Time `json:"date" db:"date"`
	OpenPrice   float64   `json:"open_price" db:"open_price" validate:"min=0"`
	High        float64   `json:"high" db:"high" validate:"min=0"`
	Low         float64   `json:"low" db:"low" validate:"min=0"`
	ClosePrice  float64   `json:"close_price" db:"close_price" validate:"min=0"`
	Volume      int64     `json:"volume" db:"volume" validate:"min=0"`

	// PreviousClosePrice is the prior row's close within the symbol partition.
	// HasPrevClose is false on the partition head, where the value is undefined.
	PreviousClosePrice float64 `json:"previous_close_price" db:"previous_close_price"`
	HasPrevClose       bool    `json:"has_prev_close" db:"has_prev_close"`
	DailyReturn        float64 `json:"daily_return" db:"daily_return"`
}

// DateKey formats a date as the integer YYYYMMDD dimension key.
func DateKey(d time.Time) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}

// EnrichedRecord is a StockRecord extended with the window metrics computed by
// the metric engine. Zero values in the window fields are the documented
// sentinel for "insufficient history", not data.
type EnrichedRecord struct {
	StockRecord

	MovingAvg5   float64 `json:"moving_avg_5" db:"moving_avg_5"`
	MovingAvg10  float64 `json:"moving_avg_10" db:"moving_avg_10"`
	Trend        float64 `json:"trend" db:"trend"`
	HighLowRatio float64 `json:"high_low_ratio" db:"high_low_ratio"`
}
