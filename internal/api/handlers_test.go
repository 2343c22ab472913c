package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/revenue-reporter/internal/pipeline"
	"github.com/ignite/revenue-reporter/internal/report"
	"github.com/ignite/revenue-reporter/internal/runner"
)

type fakeRunner struct {
	result *runner.Result
	err    error
	gotOps runner.Options
	calls  int
}

func (f *fakeRunner) Run(_ context.Context, opts runner.Options) (*runner.Result, error) {
	f.calls++
	f.gotOps = opts
	return f.result, f.err
}

func fakeResult() *runner.Result {
	return &runner.Result{
		RunID:       "run-1",
		StartedAt:   time.Date(2024, 6, 1, 3, 0, 0, 0, time.UTC),
		Timezone:    "America/New_York",
		TotalOrders: 5,
		RowCount:    12,
		Report: report.Report{
			Summary: report.Summary{TotalOrders: 5, TotalRevenue: 123450},
			Daily: []report.DailyBucket{
				{Date: "2024-01-01", Orders: 2, NetRevenue: 50000},
			},
			ProductsByUnits: []report.ProductBucket{
				{SKU: "SKU-A", Title: "Widget", Units: 9, NetRevenue: 90000},
			},
		},
		Discrepancies: []pipeline.Discrepancy{
			{Kind: pipeline.KindEmptyOrder, OrderID: "9"},
		},
	}
}

func newTestServer(r Runner) *httptest.Server {
	return httptest.NewServer(SetupRoutes(NewHandlers(r)))
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRunReport(t *testing.T) {
	fr := &fakeRunner{result: fakeResult()}
	srv := newTestServer(fr)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/report/run", "application/json",
		strings.NewReader(`{"days": 7, "skip_pull": false}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 7, fr.gotOps.Days)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, float64(5), body["total_orders"])
	assert.Equal(t, float64(1), body["discrepancies"])
}

func TestRunReportEmptyBody(t *testing.T) {
	fr := &fakeRunner{result: fakeResult()}
	srv := newTestServer(fr)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/report/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, fr.calls)
}

func TestRunReportFailure(t *testing.T) {
	fr := &fakeRunner{err: errors.New("store unreachable")}
	srv := newTestServer(fr)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/report/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestViewsBeforeFirstRun(t *testing.T) {
	srv := newTestServer(&fakeRunner{})
	defer srv.Close()

	for _, path := range []string{
		"/api/report/summary",
		"/api/report/daily",
		"/api/report/products",
		"/api/report/discrepancies",
	} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestViewsAfterRun(t *testing.T) {
	fr := &fakeRunner{result: fakeResult()}
	srv := newTestServer(fr)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/report/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/report/summary")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary report.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 5, summary.TotalOrders)

	resp, err = http.Get(srv.URL + "/api/report/products")
	require.NoError(t, err)
	defer resp.Body.Close()

	var products map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Contains(t, products, "by_units")
	assert.Contains(t, products, "by_revenue")
}

func TestStatusEndpoint(t *testing.T) {
	fr := &fakeRunner{result: fakeResult()}
	srv := newTestServer(fr)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/report/status")
	require.NoError(t, err)
	var status map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()
	assert.Equal(t, false, status["running"])
	assert.NotContains(t, status, "last_run")

	resp, err = http.Post(srv.URL+"/api/report/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/api/report/status")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	resp.Body.Close()

	lastRun, ok := status["last_run"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "run-1", lastRun["run_id"])
}
