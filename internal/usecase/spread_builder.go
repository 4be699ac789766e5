package usecase

import (
	"context"
	"fmt"
	"time"

	"RollSpread/internal/domain/models"
	drepo "RollSpread/internal/domain/repository"
	"RollSpread/internal/service/marketdata"
	"RollSpread/internal/services/spread"
	"RollSpread/pkg/logger"
)

// SpreadBuilder turns one definition into output rows: resolve contracts,
// fetch closes, aggregate legs, match expiries, join and trim.
type SpreadBuilder struct {
	fetcher  *marketdata.Fetcher
	expiries drepo.ExpiryStore
	opts     spread.Options
	log      *logger.Logger
	now      func() time.Time
}

// NewSpreadBuilder creates the builder. now defaults to time.Now.
func NewSpreadBuilder(
	fetcher *marketdata.Fetcher,
	expiries drepo.ExpiryStore,
	opts spread.Options,
	log *logger.Logger,
	now func() time.Time,
) *SpreadBuilder {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &SpreadBuilder{fetcher: fetcher, expiries: expiries, opts: opts, log: log, now: now}
}

// Build runs the pipeline for def without persisting anything. Invalid
// definitions fail with spread.ErrInvalidInput before any fetch; a build in
// which no contract year survives returns spread.ErrEmptyResult together
// with the warnings collected so far.
func (b *SpreadBuilder) Build(ctx context.Context, def models.SpreadDefinition) (spread.Result, error) {
	now := b.now().UTC()
	log := b.log.With(logger.String("instrument", def.Name))

	legs, err := spread.ResolveLegs(def, now)
	if err != nil {
		return spread.Result{}, err
	}

	var fetchWarnings []models.BuildWarning
	prices := make([]spread.LegPrices, len(legs))
	for i, leg := range legs {
		start, end := marketdata.Window(now, def.LegYearsBack(i))
		symbols := make([]string, len(leg.Contracts))
		for k, c := range leg.Contracts {
			symbols[k] = c.String()
		}

		fr, err := b.fetcher.Fetch(ctx, symbols, start, end)
		if err != nil {
			return spread.Result{}, fmt.Errorf("fetch leg %s: %w", leg.Label(), err)
		}
		for _, w := range fr.Warnings {
			w.Leg = leg.Label()
			fetchWarnings = append(fetchWarnings, w)
		}
		prices[i] = spread.LegPrices{Leg: leg, Prices: fr.Prices}
		log.Debug("leg fetched",
			logger.String("leg", leg.Label()),
			logger.Int("contracts", len(symbols)),
			logger.Int("fetched", len(fr.Prices)),
		)
	}

	first := legs[0].Contracts
	rollFlag := def.ExpiryTicker()
	entries, err := b.expiries.Expiries(ctx, rollFlag, first)
	if err != nil {
		return spread.Result{}, fmt.Errorf("load expiries: %w", err)
	}
	expiries := spread.MatchExpiries(entries, rollFlag, spread.ExpirySuffixes(first))

	res, err := spread.Assemble(def, spread.Aggregate(prices), expiries, now, b.opts)
	res.Warnings = append(fetchWarnings, res.Warnings...)
	for _, w := range res.Warnings {
		if w.Kind == models.WarnFetchFailed {
			continue // logged by the fetcher
		}
		log.Warn("spread build warning",
			logger.String("kind", string(w.Kind)),
			logger.String("leg", w.Leg),
			logger.Int("year", w.Year),
			logger.String("detail", w.Message),
		)
	}
	if err != nil {
		return res, err
	}

	log.Info("spread built",
		logger.Int("years", len(res.Series)),
		logger.Int("rows", len(res.Records)),
	)
	return res, nil
}
