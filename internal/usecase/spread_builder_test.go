package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/services/spread"
)

func yearCounts(records []models.SpreadRecord) map[string]int {
	out := map[string]int{}
	for _, r := range records {
		out[r.Year]++
	}
	return out
}

func TestSpreadBuilderBuildsAndTrims(t *testing.T) {
	src, exp := brentSource(), brentExpiries()
	b := newTestBuilder(t, src, exp, nil)

	res, err := b.Build(context.Background(), brentDefinition())
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, "CO", exp.ticker)

	// 2025 is live, 2024 expired and loses its last five rows
	assert.Equal(t, map[string]int{"2025": 20, "2024": 15}, yearCounts(res.Records))
	for _, r := range res.Records {
		switch r.Year {
		case "2025":
			assert.Equal(t, 10.0, r.Spread)
			assert.Equal(t, day(2025, time.November, 27), r.LastTrade)
		case "2024":
			assert.Equal(t, 5.0, r.Spread)
		}
		// expiries matched on the first leg ticker, the column keeps the raw flag
		assert.Empty(t, r.RollFlag)
		assert.Equal(t, "Crude", r.Group)
	}
}

func TestSpreadBuilderSkipsFailedContracts(t *testing.T) {
	src, exp := brentSource(), brentExpiries()
	src.errs = map[string]error{"COM26": errors.New("timeout")}
	b := newTestBuilder(t, src, exp, nil)

	res, err := b.Build(context.Background(), brentDefinition())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"2025": 20}, yearCounts(res.Records))
	assert.Equal(t, 2, src.calls["COM26"])

	require.NotEmpty(t, res.Warnings)
	assert.Equal(t, models.WarnFetchFailed, res.Warnings[0].Kind)
	assert.Equal(t, "COM", res.Warnings[0].Leg)
	assert.Equal(t, "COM26", res.Warnings[0].Symbol)
}

func TestSpreadBuilderRejectsInvalidBeforeFetching(t *testing.T) {
	src := brentSource()
	b := newTestBuilder(t, src, brentExpiries(), nil)

	def := brentDefinition()
	def.Legs[1].ContractMonth = "Y"
	_, err := b.Build(context.Background(), def)
	assert.ErrorIs(t, err, spread.ErrInvalidInput)
	assert.Zero(t, src.total())
}

func TestSpreadBuilderEmptyWithoutExpiries(t *testing.T) {
	b := newTestBuilder(t, brentSource(), &fakeExpiries{}, nil)

	res, err := b.Build(context.Background(), brentDefinition())
	assert.ErrorIs(t, err, spread.ErrEmptyResult)
	require.Len(t, res.Warnings, 2)
	assert.Equal(t, models.WarnMissingExpiry, res.Warnings[0].Kind)
}

func TestSpreadBuilderExpiryStoreError(t *testing.T) {
	b := newTestBuilder(t, brentSource(), &fakeExpiries{err: errors.New("connection refused")}, nil)

	_, err := b.Build(context.Background(), brentDefinition())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load expiries")
	assert.False(t, errors.Is(err, spread.ErrEmptyResult))
}

func TestSpreadBuilderUsesRollFlag(t *testing.T) {
	exp := brentExpiries()
	for i := range exp.entries {
		exp.entries[i].Ticker = "BRN"
	}
	b := newTestBuilder(t, brentSource(), exp, nil)

	def := brentDefinition()
	def.RollFlag = "BRN"
	res, err := b.Build(context.Background(), def)
	require.NoError(t, err)
	assert.Equal(t, "BRN", exp.ticker)
	assert.Equal(t, "BRN", res.Records[0].RollFlag)
}
