package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereusmodel/ecosim/internal/metrics"
	"github.com/nereusmodel/ecosim/internal/server"
	"github.com/nereusmodel/ecosim/report"
)

func TestServeSnapshotReturnsJSON(t *testing.T) {
	snapshots := make(chan report.Snapshot)
	s := server.NewServer(":0", nil, metrics.New(), snapshots, nil)

	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got report.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
}

func TestServePerformanceReturns404WhenNoMeasureConfigured(t *testing.T) {
	snapshots := make(chan report.Snapshot)
	s := server.NewServer(":0", nil, metrics.New(), snapshots, nil)

	req := httptest.NewRequest(http.MethodGet, "/performance", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServePerformanceStreamsConfiguredPayload(t *testing.T) {
	snapshots := make(chan report.Snapshot)
	perf := func() ([]byte, string) { return []byte("year 2024: 100t"), "text/plain" }
	s := server.NewServer(":0", nil, metrics.New(), snapshots, perf)

	req := httptest.NewRequest(http.MethodGet, "/performance", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "performance.txt")
	assert.Equal(t, "year 2024: 100t", rec.Body.String())
}

func TestMetricsRouteIsMountedWhenRegistrySupplied(t *testing.T) {
	snapshots := make(chan report.Snapshot)
	s := server.NewServer(":0", nil, metrics.New(), snapshots, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
