package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveRequest(t *testing.T) {
	r := New()

	r.ObserveRequest(http.MethodPost, "/v1/session-server", http.StatusOK, 120*time.Millisecond)
	r.ObserveRequest(http.MethodPost, "/v1/session-server", http.StatusOK, 80*time.Millisecond)
	r.ObserveRequest(http.MethodGet, "/v1/user/{id}/monetary-account", http.StatusUnauthorized, time.Millisecond)
	r.ObserveRequest(http.MethodGet, "/v1/user/{id}/monetary-account", 0, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.requests.WithLabelValues(http.MethodPost, "/v1/session-server", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues(http.MethodGet, "/v1/user/{id}/monetary-account", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.requests.WithLabelValues(http.MethodGet, "/v1/user/{id}/monetary-account", "error")))
	assert.Equal(t, 3, testutil.CollectAndCount(r.requests))
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestRecorder_Handler(t *testing.T) {
	r := New()
	r.ObserveRequest(http.MethodPost, "/v1/installation", http.StatusOK, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	text := string(body)
	assert.True(t, strings.Contains(text, `bunqledger_api_requests_total{endpoint="/v1/installation",method="POST",status="200"} 1`), text)
	assert.Contains(t, text, "bunqledger_api_request_duration_seconds_bucket")
}
