package health

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nadzzz/voxmate/internal/metrics"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestProbesFollowReadiness(t *testing.T) {
	t.Parallel()

	s := New(0)
	h := s.Handler()

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := get(t, h, path)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "not_ready", body["status"])
	}

	s.SetReady(true)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := get(t, h, path)
		require.Equal(t, http.StatusOK, rec.Code, path)
		require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	metrics.IntentsTotal.WithLabelValues("help").Inc()

	rec := get(t, New(0).Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `voxmate_assistant_intents_total{intent="help"}`)
}
