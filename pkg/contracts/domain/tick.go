package domain

import (
	"time"

	"github.com/guregu/null/v6"
)

// RawTick is one row of the extraction feed: a single (Symbol, Date) observation
// as delivered by the market-data provider. Numeric fields carry no completeness
// guarantee, so they are nullable; the Normalizer owns the defaulting policy.
type RawTick struct {
	Symbol      string     `json:"symbol" validate:"required"`
	CompanyName string     `json:"company_name" validate:"required"`
	Date        time.Time  `json:"date"`
	OpenPrice   null.Float `json:"open_price"`
	High        null.Float `json:"high"`
	Low         null.Float `json:"low"`
	ClosePrice  null.Float `json:"close_price"`
	Volume      null.Int   `json:"volume"`
}

// Key returns the (Symbol, Date) identity used for deduplication.
func (t RawTick) Key() TickKey {
	return TickKey{Symbol: t.Symbol, Date: t.Date.Format("2006-01-02")}
}

// TickKey identifies a tick within a batch. Date is day precision.
type TickKey struct {
	Symbol string
	Date   string
}
