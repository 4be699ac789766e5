package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RollSpread/internal/domain/models"
)

func storedRows() []models.SpreadRecord {
	var out []models.SpreadRecord
	add := func(name, group, region, month, year string, start time.Time, n int, lastTrade time.Time) {
		for i := 0; i < n; i++ {
			out = append(out, models.SpreadRecord{
				Date: start.AddDate(0, 0, i), Year: year, Spread: float64(i),
				LastTrade: lastTrade, InstrumentName: name, Group: group, Region: region, Month: month,
			})
		}
	}
	add("Brent Dec-Jun", "Crude", "Europe", "Dec", "2024", day(2024, time.January, 1), 30, day(2024, time.November, 28))
	add("Brent Dec-Jun", "Crude", "Europe", "Dec", "2025", day(2025, time.January, 1), 30, day(2025, time.November, 27))
	add("Dubai Mar", "Crude", "Asia", "Mar", "2024", day(2024, time.January, 1), 5, day(2024, time.February, 28))
	add("Gasoil Jan", "Products", "Europe", "Jan", "2024", day(2024, time.January, 1), 5, day(2024, time.January, 10))
	return out
}

func TestSeasonalReportFromStore(t *testing.T) {
	store := &memStore{rows: storedRows()}
	r := NewSeasonalReport(store, nil, 0, 10, fixedClock)

	rep, err := r.FromStore(context.Background(), models.SpreadFilter{InstrumentName: "Brent Dec-Jun"})
	require.NoError(t, err)
	assert.Equal(t, 60, rep.Rows)
	require.NotEmpty(t, rep.Buckets)
	require.NotNil(t, rep.Stats)
	assert.Equal(t, 60, rep.Stats.Count)
	assert.Len(t, rep.Stats.Histogram, 10)
}

func TestSeasonalReportRawFallback(t *testing.T) {
	store := &memStore{rows: storedRows()}
	r := NewSeasonalReport(store, nil, 0, 0, fixedClock)

	// five expired rows cannot fill a 252-day season
	rep, err := r.FromStore(context.Background(), models.SpreadFilter{InstrumentName: "Dubai Mar"})
	require.NoError(t, err)
	assert.Empty(t, rep.Buckets)
	require.Len(t, rep.Raw, 5)
	assert.Equal(t, 1, rep.Raw[0].TradingDay)
	assert.Equal(t, day(2024, time.January, 1), rep.Raw[0].Date)
	require.NotNil(t, rep.Stats)
	assert.Equal(t, 5, rep.Stats.Count)

	empty, err := r.FromStore(context.Background(), models.SpreadFilter{Group: "Nothing"})
	require.NoError(t, err)
	assert.Zero(t, empty.Rows)
	assert.Nil(t, empty.Stats)
}

func TestSeasonalReportFromDefinition(t *testing.T) {
	b := newTestBuilder(t, brentSource(), brentExpiries(), nil)
	r := NewSeasonalReport(&memStore{}, b, 0, 0, fixedClock)

	rep, err := r.FromDefinition(context.Background(), brentDefinition())
	require.NoError(t, err)
	assert.Equal(t, 35, rep.Rows)
	assert.Equal(t, "Brent Dec-Jun", rep.Filter.InstrumentName)
	require.NotNil(t, rep.Stats)

	_, err = NewSeasonalReport(&memStore{}, nil, 0, 0, fixedClock).FromDefinition(context.Background(), brentDefinition())
	assert.Error(t, err)
}

func TestSeasonalReportOptionsCascade(t *testing.T) {
	r := NewSeasonalReport(&memStore{rows: storedRows()}, nil, 0, 0, fixedClock)

	opts, err := r.Options(context.Background(), models.SpreadFilter{Group: "Crude", Region: "Europe"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Crude", "Products"}, opts.Groups)
	assert.ElementsMatch(t, []string{"Europe", "Asia"}, opts.Regions)
	assert.Equal(t, []string{"Brent Dec-Jun"}, opts.Instruments)
	assert.Equal(t, []string{"Dec"}, opts.Months)
}
