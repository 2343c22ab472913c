package runner

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/revenue-reporter/internal/config"
	"github.com/ignite/revenue-reporter/internal/shopify"
	"github.com/ignite/revenue-reporter/internal/storage"
)

type fakeSource struct {
	orders   []shopify.Order
	timezone string
	tzErr    error
	pulls    int
	since    time.Time
}

func (f *fakeSource) FetchOrders(_ context.Context, since time.Time) ([]shopify.Order, error) {
	f.pulls++
	f.since = since
	return f.orders, nil
}

func (f *fakeSource) FetchShopTimezone(context.Context) (string, error) {
	return f.timezone, f.tzErr
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Shopify: config.ShopifyConfig{StoreDomain: "demo.myshopify.com", DaysBack: 30},
		Report: config.ReportConfig{
			Timezone:           "UTC",
			MinorDigits:        2,
			NullCustomerPolicy: config.NullCustomerNew,
			TopProducts:        10,
		},
		Pipeline: config.PipelineConfig{Workers: 1},
		Storage:  config.StorageConfig{OutputDir: t.TempDir()},
	}
}

func testOrders() []shopify.Order {
	return []shopify.Order{
		{
			ID:            1001,
			Name:          "#1001",
			CreatedAt:     "2024-01-15T12:00:00Z",
			Currency:      "USD",
			SubtotalPrice: "30.00",
			Customer:      &shopify.Customer{ID: 7},
			LineItems: []shopify.LineItem{
				{ID: 1, SKU: "SKU-A", Title: "Widget", Quantity: 2, Price: "15.00"},
			},
		},
		{
			ID:        1002,
			Name:      "#1002",
			CreatedAt: "2024-01-16T09:00:00Z",
			Currency:  "USD",
		},
	}
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	require.NoError(t, err)

	src := &fakeSource{orders: testOrders(), timezone: "UTC"}
	r := New(cfg, src, store)

	res, err := r.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalOrders)
	assert.Equal(t, 1, res.SkippedOrders) // the empty order
	assert.Equal(t, 1, res.RowCount)
	assert.Equal(t, 1, res.Report.Summary.TotalOrders)
	assert.NotEmpty(t, res.Discrepancies)

	for _, name := range []string{
		storage.RawOrdersFile, storage.CleanOrdersFile,
		storage.DiscrepanciesFile, storage.WorkbookFile,
	} {
		_, err := os.Stat(store.Path(name))
		assert.NoError(t, err, name)
	}
}

func TestRunSkipPullReusesArtifact(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	require.NoError(t, err)
	require.NoError(t, store.WriteRawOrders(testOrders()))

	src := &fakeSource{timezone: "UTC"}
	r := New(cfg, src, store)

	res, err := r.Run(context.Background(), Options{SkipPull: true, SkipWorkbook: true})
	require.NoError(t, err)

	assert.Equal(t, 0, src.pulls)
	assert.Equal(t, 2, res.TotalOrders)
	_, err = os.Stat(store.Path(storage.WorkbookFile))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSkipPullWithoutArtifactFails(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	require.NoError(t, err)

	r := New(cfg, &fakeSource{}, store)
	_, err = r.Run(context.Background(), Options{SkipPull: true})
	require.Error(t, err)
}

func TestRunDaysOverridesLookback(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	require.NoError(t, err)

	src := &fakeSource{orders: testOrders(), timezone: "UTC"}
	r := New(cfg, src, store)

	_, err = r.Run(context.Background(), Options{Days: 7, SkipWorkbook: true})
	require.NoError(t, err)

	want := time.Now().UTC().AddDate(0, 0, -7)
	assert.WithinDuration(t, want, src.since, time.Minute)
}

func TestRunShopTimezoneWins(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	require.NoError(t, err)

	src := &fakeSource{orders: testOrders(), timezone: "America/New_York"}
	r := New(cfg, src, store)

	res, err := r.Run(context.Background(), Options{SkipWorkbook: true})
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", res.Timezone)
}

func TestRunBadShopTimezoneFallsBack(t *testing.T) {
	cfg := testConfig(t)
	store, err := storage.New(cfg.Storage, cfg.Report.MinorDigits)
	require.NoError(t, err)

	src := &fakeSource{orders: testOrders(), timezone: "Not/AZone"}
	r := New(cfg, src, store)

	res, err := r.Run(context.Background(), Options{SkipWorkbook: true})
	require.NoError(t, err)
	assert.Equal(t, "UTC", res.Timezone)
}
