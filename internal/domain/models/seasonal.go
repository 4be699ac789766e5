package models

import "time"

// CurrentLabel names the live, not yet expired season.
const CurrentLabel = "Current"

// TradingDayPoint is a spread value placed on the common trading-day axis.
type TradingDayPoint struct {
	TradingDay int       `json:"trading_day"`
	Date       time.Time `json:"date"`
	Spread     float64   `json:"spread"`
}

// SeasonalBucket is one year (or the current season) re-indexed onto
// trading days 1..N.
type SeasonalBucket struct {
	Label  string            `json:"label"`
	Points []TradingDayPoint `json:"points"`
}

// HistogramBin is one equal-width bin [Lower, Upper).
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// SpreadStats summarizes spread values for the histogram view.
type SpreadStats struct {
	Count     int            `json:"count"`
	Latest    float64        `json:"latest"`
	Mean      float64        `json:"mean"`
	Median    float64        `json:"median"`
	StdDev    float64        `json:"std_dev"`
	Plus1Std  float64        `json:"plus_1_std"`
	Minus1Std float64        `json:"minus_1_std"`
	Plus2Std  float64        `json:"plus_2_std"`
	Minus2Std float64        `json:"minus_2_std"`
	Histogram []HistogramBin `json:"histogram"`
}

// SpreadFilter selects output rows; empty fields match anything.
type SpreadFilter struct {
	Group          string `json:"group"`
	Region         string `json:"region"`
	InstrumentName string `json:"instrument_name"`
	Month          string `json:"month"`
}

// Matches reports whether r passes the filter.
func (f SpreadFilter) Matches(r SpreadRecord) bool {
	return (f.Group == "" || f.Group == r.Group) &&
		(f.Region == "" || f.Region == r.Region) &&
		(f.InstrumentName == "" || f.InstrumentName == r.InstrumentName) &&
		(f.Month == "" || f.Month == r.Month)
}
