package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	"RollSpread/pkg/logger"
	"RollSpread/pkg/retry"
	"RollSpread/pkg/util"
)

// errNoData marks an attempt that returned no rows.
var errNoData = errors.New("no data returned")

// ExtraYears is added to a leg's history depth when choosing the fetch window.
const ExtraYears = 2

// Fetcher retrieves daily closes per contract symbol, retrying failed or
// empty fetches. Symbols that still fail are reported and skipped.
type Fetcher struct {
	source  repository.PriceSource
	policy  retry.Policy
	log     *logger.Logger
	metrics repository.Metrics
}

// NewFetcher wraps source. metrics may be nil.
func NewFetcher(source repository.PriceSource, policy retry.Policy, log *logger.Logger, metrics repository.Metrics) *Fetcher {
	return &Fetcher{source: source, policy: policy, log: log, metrics: metrics}
}

// Window returns the requested date range for a leg yearsBack deep.
func Window(now time.Time, yearsBack int) (time.Time, time.Time) {
	return util.YearsAgo(util.DateOf(now), yearsBack+ExtraYears), now
}

// FetchResult holds the closes of every fetched symbol and the warnings for
// those that could not be fetched.
type FetchResult struct {
	Prices   map[string][]models.PriceObservation
	Warnings []models.BuildWarning
}

// Fetch retrieves each symbol once. Only context cancellation is returned as
// an error.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string, start, end time.Time) (FetchResult, error) {
	res := FetchResult{Prices: make(map[string][]models.PriceObservation, len(symbols))}
	for _, sym := range symbols {
		if _, done := res.Prices[sym]; done {
			continue
		}
		obs, attempts, err := f.fetchOne(ctx, sym, start, end)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			f.record("failed", attempts)
			f.log.Warn("contract fetch failed, skipping",
				logger.String("symbol", sym),
				logger.Int("attempts", attempts),
				logger.Error(err),
			)
			res.Warnings = append(res.Warnings, models.BuildWarning{
				Kind:    models.WarnFetchFailed,
				Symbol:  sym,
				Message: fmt.Sprintf("%s skipped after %d attempts: %v", sym, attempts, err),
			})
			continue
		}
		f.record("ok", attempts)
		f.log.Debug("contract fetched",
			logger.String("symbol", sym),
			logger.Int("rows", len(obs)),
			logger.Int("attempts", attempts),
		)
		res.Prices[sym] = obs
	}
	return res, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, sym string, start, end time.Time) ([]models.PriceObservation, int, error) {
	var (
		obs      []models.PriceObservation
		attempts int
	)
	err := f.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		attempts = attempt
		got, err := f.source.FetchDaily(ctx, sym, start, end)
		if err != nil {
			f.log.Debug("fetch attempt failed",
				logger.String("symbol", sym),
				logger.Int("attempt", attempt),
				logger.Error(err),
			)
			return err
		}
		if len(got) == 0 {
			return errNoData
		}
		obs = got
		return nil
	})
	return obs, attempts, err
}

func (f *Fetcher) record(outcome string, attempts int) {
	if f.metrics != nil {
		f.metrics.RecordFetch(outcome, attempts)
	}
}
