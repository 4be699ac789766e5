package marketdata

import (
	"context"
	"errors"
	"time"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	"RollSpread/pkg/cache"
	"RollSpread/pkg/logger"
)

// CachedSource serves repeated requests for the same symbol and window from
// a cache. Empty results are not cached so they are retried upstream.
type CachedSource struct {
	next  repository.PriceSource
	cache cache.Service
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedSource(next repository.PriceSource, c cache.Service, ttl time.Duration, log *logger.Logger) *CachedSource {
	return &CachedSource{next: next, cache: c, ttl: ttl, log: log}
}

func cacheKey(symbol string, start, end time.Time) string {
	return cache.Key("prices", symbol, start, end)
}

// FetchDaily implements repository.PriceSource.
func (s *CachedSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceObservation, error) {
	key := cacheKey(symbol, start, end)
	cached, err := cache.GetJSON[[]models.PriceObservation](ctx, s.cache, key)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("price cache read failed", logger.String("symbol", symbol), logger.Error(err))
	}

	obs, err := s.next.FetchDaily(ctx, symbol, start, end)
	if err != nil || len(obs) == 0 {
		return obs, err
	}
	if err := cache.SetJSON(ctx, s.cache, key, obs, s.ttl); err != nil {
		s.log.Warn("price cache write failed", logger.String("symbol", symbol), logger.Error(err))
	}
	return obs, nil
}
