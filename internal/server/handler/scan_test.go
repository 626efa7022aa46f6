package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polyscan/internal/domain"
	"github.com/alanyoungcy/polyscan/internal/service"
)

type fakeScanRunner struct {
	result  domain.ScanResult
	err     error
	lastReq service.ScanRequest
	recent  []domain.ScanResult
	limit   int
}

func (f *fakeScanRunner) Scan(_ context.Context, req service.ScanRequest) (domain.ScanResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeScanRunner) RecentScans(_ context.Context, limit int) ([]domain.ScanResult, error) {
	f.limit = limit
	return f.recent, f.err
}

func newScanHandler(runner *fakeScanRunner) *ScanHandler {
	return NewScanHandler(runner, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestScanHandlerSuccess(t *testing.T) {
	runner := &fakeScanRunner{
		result: domain.ScanResult{ScanID: "scan-1"},
	}
	h := newScanHandler(runner)

	body := `{"name":"btc ladder","marketIds":["m1","m2"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"m1", "m2"}, runner.lastReq.MarketIDs)

	var got domain.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "scan-1", got.ScanID)
}

func TestScanHandlerRejectsUnknownFields(t *testing.T) {
	h := newScanHandler(&fakeScanRunner{})

	req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{"bogus":1}`))
	rec := httptest.NewRecorder()

	h.Scan(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScanHandlerMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid cluster", domain.ErrInvalidCluster, http.StatusBadRequest},
		{"unknown market", domain.ErrNotFound, http.StatusNotFound},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newScanHandler(&fakeScanRunner{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/scan", strings.NewReader(`{}`))
			rec := httptest.NewRecorder()

			h.Scan(rec, req)

			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestRecentScansClampsLimit(t *testing.T) {
	runner := &fakeScanRunner{
		recent: []domain.ScanResult{{ScanID: "a"}, {ScanID: "b"}},
	}
	h := newScanHandler(runner)

	req := httptest.NewRequest(http.MethodGet, "/api/scans/recent?limit=9999", nil)
	rec := httptest.NewRecorder()

	h.RecentScans(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, runner.limit)

	var got struct {
		Scans []domain.ScanResult `json:"scans"`
		Count int                 `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2, got.Count)
}

func TestRecentScansDefaultLimit(t *testing.T) {
	runner := &fakeScanRunner{}
	h := newScanHandler(runner)

	req := httptest.NewRequest(http.MethodGet, "/api/scans/recent", nil)
	rec := httptest.NewRecorder()

	h.RecentScans(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, runner.limit)
}
