package models

import "time"

// PriceObservation is one daily close for a contract symbol. WeightedPrice is
// filled by aggregation.
type PriceObservation struct {
	Symbol        string    `json:"symbol"`
	Date          time.Time `json:"date"`
	Close         float64   `json:"close"`
	WeightedPrice float64   `json:"weighted_price"`
}

// SpreadPoint is the spread on one date. Legs holds each participating leg's
// weighted price, parallel to the owning series' Symbols.
type SpreadPoint struct {
	Date  time.Time
	Legs  []float64
	Value float64
}

// ContractYearSeries is the spread for one contract-year bucket, ordered by date.
type ContractYearSeries struct {
	Year      int
	Symbols   []string // participating contracts, in leg order
	Points    []SpreadPoint
	LastTrade time.Time
}

// Len returns the number of dated points.
func (s ContractYearSeries) Len() int { return len(s.Points) }

// SpreadRecord is one persisted output row.
type SpreadRecord struct {
	Date           time.Time `json:"Date"`
	Year           string    `json:"Year"`
	Spread         float64   `json:"spread"`
	LastTrade      time.Time `json:"LastTrade"`
	InstrumentName string    `json:"InstrumentName"`
	Group          string    `json:"Group"`
	Region         string    `json:"Region"`
	Month          string    `json:"Month"`
	RollFlag       string    `json:"RollFlag"`
	Desc           string    `json:"Desc"`
}

// SpreadColumns is the output table column order.
var SpreadColumns = []string{
	"Date", "Year", "spread", "LastTrade", "InstrumentName",
	"Group", "Region", "Month", "RollFlag", "Desc",
}

// ExpiryEntry is one row of the expiry reference table.
type ExpiryEntry struct {
	Ticker    string    `json:"Ticker"`
	MonthCode MonthCode `json:"MonthCode"`
	LastTrade time.Time `json:"LastTrade"`
}
