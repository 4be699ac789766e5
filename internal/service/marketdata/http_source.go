package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/service/ratelimit"
	"RollSpread/pkg/http"
	"RollSpread/pkg/util"
)

const limiterKey = "marketdata"

// HTTPSource reads daily closes from a JSON endpoint:
//
//	GET {base}/v1/daily?symbol=...&start=YYYY-MM-DD&end=YYYY-MM-DD
//	{"symbol": "...", "data": [{"date": "2025-01-02", "close": 71.2}, ...]}
type HTTPSource struct {
	client  *http.Client
	baseURL string
	limiter *ratelimit.Limiter
}

func NewHTTPSource(client *http.Client, baseURL string, limiter *ratelimit.Limiter) *HTTPSource {
	return &HTTPSource{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: limiter,
	}
}

type dailyResponse struct {
	Symbol string `json:"symbol"`
	Data   []struct {
		Date  string   `json:"date"`
		Close *float64 `json:"close"`
	} `json:"data"`
}

// FetchDaily implements repository.PriceSource. Unknown symbols (404) yield
// no rows; rows without a close are skipped.
func (s *HTTPSource) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceObservation, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, limiterKey); err != nil {
			return nil, err
		}
	}

	var resp dailyResponse
	err := s.client.SendAndParse(ctx, &http.RequestOptions{
		Method: http.MethodGet,
		URL:    s.baseURL + "/v1/daily",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"start":  {start.Format("2006-01-02")},
			"end":    {end.Format("2006-01-02")},
		},
	}, &resp)
	if err != nil {
		if http.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	out := make([]models.PriceObservation, 0, len(resp.Data))
	for _, row := range resp.Data {
		if row.Close == nil {
			continue
		}
		d, err := util.ParseDate(row.Date)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", symbol, err)
		}
		out = append(out, models.PriceObservation{Symbol: symbol, Date: d, Close: *row.Close})
	}
	return out, nil
}
