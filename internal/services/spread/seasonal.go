package spread

import (
	"sort"
	"time"

	"RollSpread/internal/domain/models"
)

// TradingDaysPerYear is the length of the seasonal axis.
const TradingDaysPerYear = 252

// AlignSeasonal re-indexes expired years onto trading days 1..tradingDays
// and the live season onto 1..N (N <= tradingDays).
//
// A year whose LastTrade is on or before today is historical. Each historical
// year keeps its last tradingDays rows dated on or before its LastTrade and
// is included only if exactly that many remain. The live season starts on the
// first day of the month after the latest historical LastTrade (or at the
// earliest live row when there is no history) and is labelled "Current".
// Historical buckets come first, ordered by Year label.
func AlignSeasonal(records []models.SpreadRecord, today time.Time, tradingDays int) []models.SeasonalBucket {
	if tradingDays <= 0 {
		tradingDays = TradingDaysPerYear
	}
	today = dayOf(today)

	var historical, current []models.SpreadRecord
	for _, r := range records {
		if r.LastTrade.After(today) {
			current = append(current, r)
		} else {
			historical = append(historical, r)
		}
	}
	sortByDate(historical)
	sortByDate(current)

	var (
		buckets  []models.SeasonalBucket
		order    []string
		byYear   = make(map[string][]models.SpreadRecord)
		maxTrade = make(map[string]time.Time)
		lastHist time.Time
	)
	for _, r := range historical {
		if _, seen := byYear[r.Year]; !seen {
			order = append(order, r.Year)
		}
		byYear[r.Year] = append(byYear[r.Year], r)
		if r.LastTrade.After(maxTrade[r.Year]) {
			maxTrade[r.Year] = r.LastTrade
		}
		if r.LastTrade.After(lastHist) {
			lastHist = r.LastTrade
		}
	}

	sort.Strings(order)
	for _, year := range order {
		var rows []models.SpreadRecord
		for _, r := range byYear[year] {
			if !r.Date.After(maxTrade[year]) {
				rows = append(rows, r)
			}
		}
		if len(rows) < tradingDays {
			continue
		}
		rows = rows[len(rows)-tradingDays:]
		buckets = append(buckets, models.SeasonalBucket{Label: year, Points: toTradingDays(rows)})
	}

	if len(current) > 0 {
		anchor := current[0].Date
		if len(historical) > 0 {
			anchor = firstOfNextMonth(lastHist)
		}
		var rows []models.SpreadRecord
		for _, r := range current {
			if !r.Date.Before(anchor) {
				rows = append(rows, r)
				if len(rows) == tradingDays {
					break
				}
			}
		}
		if len(rows) > 0 {
			buckets = append(buckets, models.SeasonalBucket{Label: models.CurrentLabel, Points: toTradingDays(rows)})
		}
	}
	return buckets
}

// RawSeries returns every record's spread in date order, for when no
// seasonal bucket qualifies. TradingDay is the 1-based position.
func RawSeries(records []models.SpreadRecord) []models.TradingDayPoint {
	rows := append([]models.SpreadRecord(nil), records...)
	sortByDate(rows)
	return toTradingDays(rows)
}

func toTradingDays(rows []models.SpreadRecord) []models.TradingDayPoint {
	out := make([]models.TradingDayPoint, len(rows))
	for i, r := range rows {
		out[i] = models.TradingDayPoint{TradingDay: i + 1, Date: r.Date, Spread: r.Spread}
	}
	return out
}

func sortByDate(rows []models.SpreadRecord) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
}

func firstOfNextMonth(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC)
}
