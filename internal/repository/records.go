package repository

import (
	"errors"
	"fmt"
	"strings"

	"RollSpread/internal/domain/models"
)

// ErrUnknownColumn is returned by Distinct for a column outside the filter set.
var ErrUnknownColumn = errors.New("unknown filter column")

var filterColumns = map[string]string{
	"group":          "Group",
	"region":         "Region",
	"instrumentname": "InstrumentName",
	"instrument":     "InstrumentName",
	"month":          "Month",
}

// canonicalColumn maps a user supplied filter column to its table name.
func canonicalColumn(name string) (string, error) {
	col, ok := filterColumns[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return col, nil
}

// whereClause renders the non-empty filter fields as equality terms.
func whereClause(f models.SpreadFilter, quote func(string) string, placeholder func(n int) string) (string, []any) {
	terms := [][2]string{
		{"Group", f.Group},
		{"Region", f.Region},
		{"InstrumentName", f.InstrumentName},
		{"Month", f.Month},
	}
	var conds []string
	var args []any
	for _, t := range terms {
		if t[1] == "" {
			continue
		}
		args = append(args, t[1])
		conds = append(conds, quote(t[0])+" = "+placeholder(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func recordValues(r models.SpreadRecord) []any {
	return []any{
		r.Date, r.Year, r.Spread, r.LastTrade, r.InstrumentName,
		r.Group, r.Region, r.Month, r.RollFlag, r.Desc,
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (models.SpreadRecord, error) {
	var r models.SpreadRecord
	err := row.Scan(&r.Date, &r.Year, &r.Spread, &r.LastTrade, &r.InstrumentName,
		&r.Group, &r.Region, &r.Month, &r.RollFlag, &r.Desc)
	return r, err
}

// instrumentNames lists the distinct InstrumentName values in first-seen order.
func instrumentNames(records []models.SpreadRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if _, ok := seen[r.InstrumentName]; ok {
			continue
		}
		seen[r.InstrumentName] = struct{}{}
		out = append(out, r.InstrumentName)
	}
	return out
}

func quoteColumns(cols []string, quote func(string) string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}
