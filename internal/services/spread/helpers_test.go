package spread

import (
	"time"

	"RollSpread/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dailyCloses returns n consecutive calendar-day closes starting at start,
// with close = base + step*k.
func dailyCloses(start time.Time, n int, base, step float64) []models.PriceObservation {
	out := make([]models.PriceObservation, n)
	for k := 0; k < n; k++ {
		out[k] = models.PriceObservation{Date: start.AddDate(0, 0, k), Close: base + step*float64(k)}
	}
	return out
}

func points(dates ...time.Time) []models.SpreadPoint {
	out := make([]models.SpreadPoint, len(dates))
	for i, d := range dates {
		out[i] = models.SpreadPoint{Date: d, Value: float64(i)}
	}
	return out
}

func consecutive(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}
