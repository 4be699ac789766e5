package spread

import (
	"time"

	"RollSpread/internal/domain/models"
)

// DefaultTailDrop is the number of closing rows removed from expired years.
const DefaultTailDrop = 5

// Trim keeps the points dated on or before lastTrade. If lastTrade is before
// now and more than tailDrop points remain, the last tailDrop are removed.
// now is compared with its clock time, so a contract expiring today counts
// as expired once the day has started. The input is not modified.
func Trim(s models.ContractYearSeries, lastTrade, now time.Time, tailDrop int) models.ContractYearSeries {
	points := make([]models.SpreadPoint, 0, len(s.Points))
	for _, p := range s.Points {
		if !p.Date.After(lastTrade) {
			points = append(points, p)
		}
	}
	if tailDrop > 0 && lastTrade.Before(now) && len(points) > tailDrop {
		points = points[:len(points)-tailDrop]
	}

	s.Points = points
	s.LastTrade = lastTrade
	return s
}

// TrimAll trims every series against its own LastTrade and drops those left
// empty.
func TrimAll(series []models.ContractYearSeries, now time.Time, tailDrop int) []models.ContractYearSeries {
	out := make([]models.ContractYearSeries, 0, len(series))
	for _, s := range series {
		t := Trim(s, s.LastTrade, now, tailDrop)
		if len(t.Points) == 0 {
			continue
		}
		out = append(out, t)
	}
	return out
}
