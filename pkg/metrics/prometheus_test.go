package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	r := New("", "job")

	r.RecordBuild("BRENT", "ok", 120, 1.5)
	r.RecordBuild("WTI", "empty", 0, 0.2)
	r.RecordFetch("ok", 3)
	r.RecordFetch("failed", 3)
	r.RecordWarning("fetch_failed")
	r.RecordStoreWrite("clickhouse", "replace", 120, nil)
	r.RecordStoreWrite("clickhouse", "replace", 10, errors.New("down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.builds.WithLabelValues("ok")))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.buildRows.WithLabelValues("BRENT")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.fetchRetries))
	assert.Equal(t, 120.0, testutil.ToFloat64(r.storeRows.WithLabelValues("clickhouse", "replace")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.storeErrors.WithLabelValues("clickhouse", "replace")))

	require.NoError(t, r.Push(context.Background()))
}

func TestRecorderPushesToGateway(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
		assert.Contains(t, req.URL.Path, "/metrics/job/rollspread_batch")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := New(srv.URL, "rollspread_batch")
	r.RecordWarning("short_leg")
	require.NoError(t, r.Push(context.Background()))
	assert.NotEmpty(t, body)
}
