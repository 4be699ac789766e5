package marketdata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/service/ratelimit"
	"RollSpread/pkg/cache"
	pkghttp "RollSpread/pkg/http"
	"RollSpread/pkg/logger"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestCSVSource(t *testing.T) {
	dir := t.TempDir()
	body := "Date,Open,Close\n2025-01-02,1,10.5\n01/03/25,1,11\n2025-01-04,1,\n2025-02-01,1,12\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "#BRGBMF25.csv"), []byte(body), 0o644))

	src := NewCSVSource(dir)
	obs, err := src.FetchDaily(context.Background(), "#BRGBMF25", d(2025, 1, 1), d(2025, 1, 31))
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, d(2025, 1, 3), obs[1].Date)
	assert.Equal(t, 11.0, obs[1].Close)
	assert.Equal(t, "#BRGBMF25", obs[0].Symbol)

	missing, err := src.FetchDaily(context.Background(), "NOPE", d(2025, 1, 1), d(2025, 1, 31))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestCSVSourceSkipsNonFiniteCloses(t *testing.T) {
	dir := t.TempDir()
	body := "date,close\n2025-01-02,NaN\n2025-01-03,11\n2025-01-06,+Inf\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.csv"), []byte(body), 0o644))

	obs, err := NewCSVSource(dir).FetchDaily(context.Background(), "X", d(2025, 1, 1), d(2025, 1, 31))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, d(2025, 1, 3), obs[0].Date)
}

func TestCSVSourceBadHeader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.csv"), []byte("when,price\n"), 0o644))
	_, err := NewCSVSource(dir).FetchDaily(context.Background(), "X", d(2025, 1, 1), d(2025, 2, 1))
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/daily", r.URL.Path)
		switch r.URL.Query().Get("symbol") {
		case "CLZ25":
			assert.Equal(t, "2024-01-01", r.URL.Query().Get("start"))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"symbol": "CLZ25",
				"data": []map[string]interface{}{
					{"date": "2025-01-02", "close": 71.2},
					{"date": "2025-01-03", "close": nil},
				},
			})
		case "CLZ99":
			http.NotFound(w, r)
		default:
			http.Error(w, "upstream", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(pkghttp.NewClient(), srv.URL+"/", ratelimit.New(0, 1))
	ctx := context.Background()

	obs, err := src.FetchDaily(ctx, "CLZ25", d(2024, 1, 1), d(2025, 10, 18))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 71.2, obs[0].Close)

	none, err := src.FetchDaily(ctx, "CLZ99", d(2024, 1, 1), d(2025, 10, 18))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = src.FetchDaily(ctx, "CLZ00", d(2024, 1, 1), d(2025, 10, 18))
	assert.Error(t, err)
}

type countingSource struct {
	calls int
	rows  []models.PriceObservation
}

func (c *countingSource) FetchDaily(context.Context, string, time.Time, time.Time) ([]models.PriceObservation, error) {
	c.calls++
	return c.rows, nil
}

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()

	next := &countingSource{rows: []models.PriceObservation{{Symbol: "A", Date: d(2025, 1, 2), Close: 3}}}
	src := NewCachedSource(next, mc, time.Hour, logger.NewNop())

	for i := 0; i < 3; i++ {
		obs, err := src.FetchDaily(ctx, "A", d(2020, 1, 1), d(2025, 10, 18))
		require.NoError(t, err)
		require.Len(t, obs, 1)
		assert.True(t, obs[0].Date.Equal(d(2025, 1, 2)))
	}
	assert.Equal(t, 1, next.calls)

	empty := &countingSource{}
	src = NewCachedSource(empty, mc, time.Hour, logger.NewNop())
	_, _ = src.FetchDaily(ctx, "B", d(2020, 1, 1), d(2025, 10, 18))
	_, _ = src.FetchDaily(ctx, "B", d(2020, 1, 1), d(2025, 10, 18))
	assert.Equal(t, 2, empty.calls, "empty results are not cached")
}
