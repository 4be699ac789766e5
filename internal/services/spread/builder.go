package spread

import (
	"fmt"
	"math"
	"sort"
	"time"

	"RollSpread/internal/domain/models"
)

// Coverage decides what happens to a contract year some legs have no
// contract for.
type Coverage string

const (
	// CoverageLenient builds the year from whichever legs reach it.
	CoverageLenient Coverage = "lenient"
	// CoverageStrict skips the year.
	CoverageStrict Coverage = "strict"
)

func ParseCoverage(s string) (Coverage, error) {
	switch Coverage(s) {
	case "", CoverageLenient:
		return CoverageLenient, nil
	case CoverageStrict:
		return CoverageStrict, nil
	}
	return "", fmt.Errorf("unknown coverage policy %q", s)
}

// BuildSeries zips the legs' contract lists by position. For each contract
// year it keeps only the dates every participating leg has a price for and
// sums the weighted prices. Years that end up empty are dropped. Output is
// ordered most recent year first.
func BuildSeries(legs []AggregatedLeg, coverage Coverage) ([]models.ContractYearSeries, []models.BuildWarning) {
	n := 0
	for _, l := range legs {
		if len(l.Contracts) > n {
			n = len(l.Contracts)
		}
	}

	var (
		out      []models.ContractYearSeries
		warnings []models.BuildWarning
	)
	for i := 0; i < n; i++ {
		var part []AggregatedLeg
		var missing []string
		for _, l := range legs {
			if i < len(l.Contracts) {
				part = append(part, l)
			} else {
				missing = append(missing, l.Label)
			}
		}

		year := part[0].Contracts[i].CalendarYear()
		if len(missing) > 0 {
			w := models.BuildWarning{
				Kind:    models.WarnShortLeg,
				Leg:     fmt.Sprint(missing),
				Year:    year,
				Message: fmt.Sprintf("contract year %d built without legs %v", year, missing),
			}
			if coverage == CoverageStrict {
				w.Message = fmt.Sprintf("contract year %d skipped, legs %v have no contract", year, missing)
				warnings = append(warnings, w)
				continue
			}
			warnings = append(warnings, w)
		}

		series := joinYear(part, i)
		series.Year = year
		if len(series.Points) == 0 {
			continue
		}
		out = append(out, series)
	}
	return out, warnings
}

// joinYear outer-joins the i-th contract of each leg on date, then drops
// every date some leg lacks. A NaN or infinite price counts as missing.
func joinYear(legs []AggregatedLeg, i int) models.ContractYearSeries {
	symbols := make([]string, len(legs))
	columns := make([]map[time.Time]float64, len(legs))
	dates := make(map[time.Time]struct{})
	for k, l := range legs {
		sym := l.Contracts[i].String()
		symbols[k] = sym
		col := make(map[time.Time]float64)
		for _, o := range l.Series[sym] {
			col[o.Date] = o.WeightedPrice
			dates[o.Date] = struct{}{}
		}
		columns[k] = col
	}

	ordered := make([]time.Time, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(a, b int) bool { return ordered[a].Before(ordered[b]) })

	points := make([]models.SpreadPoint, 0, len(ordered))
outer:
	for _, d := range ordered {
		vals := make([]float64, len(columns))
		sum := 0.0
		for k, col := range columns {
			v, ok := col[d]
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				continue outer
			}
			vals[k] = v
			sum += v
		}
		points = append(points, models.SpreadPoint{Date: d, Legs: vals, Value: sum})
	}
	return models.ContractYearSeries{Symbols: symbols, Points: points}
}
