package spread

import (
	"fmt"
	"time"

	"RollSpread/internal/domain/models"
)

// MissingExpiry decides what happens to a contract year with no expiry row.
type MissingExpiry string

const (
	// MissingExpiryDrop removes the year from the output.
	MissingExpiryDrop MissingExpiry = "drop"
	// MissingExpiryToday uses the build date as LastTrade.
	MissingExpiryToday MissingExpiry = "today"
)

func ParseMissingExpiry(s string) (MissingExpiry, error) {
	switch MissingExpiry(s) {
	case "", MissingExpiryDrop:
		return MissingExpiryDrop, nil
	case MissingExpiryToday:
		return MissingExpiryToday, nil
	}
	return "", fmt.Errorf("unknown missing expiry policy %q", s)
}

// ExpiryKey renders the matching key of an expiry row: ticker, month code and
// the two-digit year of the last trade date.
func ExpiryKey(e models.ExpiryEntry) string {
	return fmt.Sprintf("%s%s%02d", e.Ticker, e.MonthCode, e.LastTrade.Year()%100)
}

// MatchExpiries keeps the rows whose key equals rollFlag+suffix for one of
// suffixes and maps them by the calendar year of LastTrade. When two rows
// land on the same year the later one wins.
func MatchExpiries(entries []models.ExpiryEntry, rollFlag string, suffixes []string) map[int]time.Time {
	wanted := make(map[string]struct{}, len(suffixes))
	for _, s := range suffixes {
		wanted[rollFlag+s] = struct{}{}
	}

	out := make(map[int]time.Time)
	for _, e := range entries {
		if _, ok := wanted[ExpiryKey(e)]; !ok {
			continue
		}
		lt := dayOf(e.LastTrade)
		out[lt.Year()] = lt
	}
	return out
}

// ApplyExpiries attaches each series' LastTrade from expiries. Series without
// one are dropped or dated today according to policy.
func ApplyExpiries(series []models.ContractYearSeries, expiries map[int]time.Time, policy MissingExpiry, today time.Time) ([]models.ContractYearSeries, []models.BuildWarning) {
	out := make([]models.ContractYearSeries, 0, len(series))
	var warnings []models.BuildWarning
	for _, s := range series {
		lt, ok := expiries[s.Year]
		if !ok {
			w := models.BuildWarning{Kind: models.WarnMissingExpiry, Year: s.Year}
			if policy != MissingExpiryToday {
				w.Message = fmt.Sprintf("no expiry for contract year %d, dropped", s.Year)
				warnings = append(warnings, w)
				continue
			}
			w.Message = fmt.Sprintf("no expiry for contract year %d, using build date", s.Year)
			warnings = append(warnings, w)
			lt = dayOf(today)
		}
		s.LastTrade = lt
		out = append(out, s)
	}
	return out, warnings
}
