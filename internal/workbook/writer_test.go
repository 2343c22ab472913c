package workbook

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ignite/revenue-reporter/internal/report"
)

func testReport() report.Report {
	return report.Report{
		Summary: report.Summary{
			TotalOrders:   4,
			TotalRevenue:  120050,
			AverageOrder:  30012,
			RepeatRate:    0.25,
			TotalTax:      9900,
			TotalShipping: 4000,
			TotalDiscount: 2500,
			TotalRefunds:  1500,
		},
		Daily: []report.DailyBucket{
			{Date: "2024-01-01", Orders: 1, NetRevenue: 30000, Shipping: 1000, Tax: 2475},
			{Date: "2024-01-02", Orders: 3, NetRevenue: 90050, Shipping: 3000, Tax: 7425},
		},
		ProductsByUnits: []report.ProductBucket{
			{SKU: "SKU-A", Title: "Widget", Units: 7, NetRevenue: 70000},
			{SKU: "SKU-B", Title: "Gadget", Units: 3, NetRevenue: 50050},
		},
		ProductsByRevenue: []report.ProductBucket{
			{SKU: "SKU-A", Title: "Widget", Units: 7, NetRevenue: 70000},
			{SKU: "SKU-B", Title: "Gadget", Units: 3, NetRevenue: 50050},
		},
	}
}

func writeTestWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Revenue_Report.xlsx")

	w := NewWriter(2)
	require.NoError(t, w.Write(testReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWriteWorkbookSheets(t *testing.T) {
	f := writeTestWorkbook(t)

	assert.ElementsMatch(t, []string{
		SheetSummary, SheetSummaryRaw,
		SheetDaily, SheetDailyRaw,
		SheetTopUnits, SheetTopUnitsRaw,
		SheetTopRevenue, SheetTopRevenueRaw,
	}, f.GetSheetList())
}

func TestWriteWorkbookFormattedValues(t *testing.T) {
	f := writeTestWorkbook(t)

	got, err := f.GetCellValue(SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "4", got)

	got, err = f.GetCellValue(SheetSummary, "B3")
	require.NoError(t, err)
	assert.Equal(t, "$1200.50", got)

	got, err = f.GetCellValue(SheetSummary, "B5")
	require.NoError(t, err)
	assert.Equal(t, "25.0%", got)

	got, err = f.GetCellValue(SheetDaily, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", got)

	got, err = f.GetCellValue(SheetDaily, "C3")
	require.NoError(t, err)
	assert.Equal(t, "$900.50", got)

	got, err = f.GetCellValue(SheetTopUnits, "A2")
	require.NoError(t, err)
	assert.Equal(t, "SKU-A", got)

	got, err = f.GetCellValue(SheetTopRevenue, "D2")
	require.NoError(t, err)
	assert.Equal(t, "$700.00", got)
}

// The _Raw twins must hold plottable numbers, not currency strings.
func TestWriteWorkbookRawValues(t *testing.T) {
	f := writeTestWorkbook(t)

	cells := []struct {
		sheet, cell string
		want        float64
	}{
		{SheetSummaryRaw, "B3", 1200.50},
		{SheetSummaryRaw, "B4", 300.12},
		{SheetSummaryRaw, "B5", 0.25},
		{SheetDailyRaw, "C2", 300},
		{SheetDailyRaw, "C3", 900.50},
		{SheetDailyRaw, "D3", 30},
		{SheetTopUnitsRaw, "D2", 700},
		{SheetTopRevenueRaw, "D3", 500.50},
	}
	for _, c := range cells {
		got, err := f.GetCellValue(c.sheet, c.cell)
		require.NoError(t, err)

		v, err := strconv.ParseFloat(got, 64)
		require.NoError(t, err, "%s!%s = %q must be numeric", c.sheet, c.cell, got)
		assert.InDelta(t, c.want, v, 1e-9, "%s!%s", c.sheet, c.cell)

		ct, err := f.GetCellType(c.sheet, c.cell)
		require.NoError(t, err)
		assert.NotEqual(t, excelize.CellTypeSharedString, ct, "%s!%s stored as string", c.sheet, c.cell)
		assert.NotEqual(t, excelize.CellTypeInlineString, ct, "%s!%s stored as string", c.sheet, c.cell)
	}
}

// The daily chart plots the numeric column of the raw twin.
func TestWriteWorkbookChartSourcesAreNumeric(t *testing.T) {
	f := writeTestWorkbook(t)

	for _, cell := range []string{"C2", "C3"} {
		got, err := f.GetCellValue(SheetDailyRaw, cell)
		require.NoError(t, err)
		_, err = strconv.ParseFloat(got, 64)
		require.NoError(t, err, "chart source %s!%s = %q must be numeric", SheetDailyRaw, cell, got)
	}
}

func TestWriteEmptyReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	w := NewWriter(2)
	require.NoError(t, w.Write(report.Report{}, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue(SheetSummary, "B2")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	got, err = f.GetCellValue(SheetSummaryRaw, "B3")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}
