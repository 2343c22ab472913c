// Package workbook renders an aggregated report into the Excel workbook
// the business side consumes. All computation happens upstream; this
// layer only maps views onto sheets.
package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ignite/revenue-reporter/internal/money"
	"github.com/ignite/revenue-reporter/internal/report"
)

// Sheet names, matching what the existing report consumers expect. Each
// formatted sheet has a _Raw twin carrying the same table with numeric
// cells, for charting and downstream import.
const (
	SheetSummary       = "Summary"
	SheetSummaryRaw    = "Summary_Raw"
	SheetDaily         = "Daily"
	SheetDailyRaw      = "Daily_Raw"
	SheetTopUnits      = "Top_Units"
	SheetTopUnitsRaw   = "Top_Units_Raw"
	SheetTopRevenue    = "Top_Revenue"
	SheetTopRevenueRaw = "Top_Revenue_Raw"
)

// Writer renders reports to .xlsx files.
type Writer struct {
	minorDigits int
}

// NewWriter creates a workbook writer rendering money at the given
// precision.
func NewWriter(minorDigits int) *Writer {
	return &Writer{minorDigits: minorDigits}
}

// Write renders the report to path.
func (w *Writer) Write(rep report.Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummary(f, rep.Summary); err != nil {
		return err
	}
	if err := w.writeDaily(f, rep.Daily); err != nil {
		return err
	}
	if err := w.writeProducts(f, SheetTopUnits, SheetTopUnitsRaw, rep.ProductsByUnits); err != nil {
		return err
	}
	if err := w.writeProducts(f, SheetTopRevenue, SheetTopRevenueRaw, rep.ProductsByRevenue); err != nil {
		return err
	}

	// The default sheet is replaced by our own.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("workbook: removing default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(SheetSummary)
	if err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("workbook: saving %s: %w", path, err)
	}
	return nil
}

func (w *Writer) money(a money.Amount) string {
	return "$" + money.Format(a, w.minorDigits)
}

// rawMoney converts an Amount to the decimal number written into _Raw
// cells. Rendering only; all arithmetic stays integral upstream.
func (w *Writer) rawMoney(a money.Amount) float64 {
	return float64(a) / float64(money.Unit(w.minorDigits))
}

func (w *Writer) writeSummary(f *excelize.File, s report.Summary) error {
	formatted := [][]interface{}{
		{"Metric", "Value"},
		{"Total Orders", s.TotalOrders},
		{"Total Revenue", w.money(s.TotalRevenue)},
		{"Average Order Value (AOV)", w.money(s.AverageOrder)},
		{"Repeat-Customer Rate", fmt.Sprintf("%.1f%%", s.RepeatRate*100)},
		{"Total Taxes", w.money(s.TotalTax)},
		{"Total Shipping", w.money(s.TotalShipping)},
		{"Total Discounts", w.money(s.TotalDiscount)},
		{"Total Refunds", w.money(s.TotalRefunds)},
	}
	raw := [][]interface{}{
		{"Metric", "Value"},
		{"Total Orders", s.TotalOrders},
		{"Total Revenue", w.rawMoney(s.TotalRevenue)},
		{"Average Order Value (AOV)", w.rawMoney(s.AverageOrder)},
		{"Repeat-Customer Rate", s.RepeatRate},
		{"Total Taxes", w.rawMoney(s.TotalTax)},
		{"Total Shipping", w.rawMoney(s.TotalShipping)},
		{"Total Discounts", w.rawMoney(s.TotalDiscount)},
		{"Total Refunds", w.rawMoney(s.TotalRefunds)},
	}

	if err := writeSheet(f, SheetSummary, formatted); err != nil {
		return err
	}
	return writeSheet(f, SheetSummaryRaw, raw)
}

func (w *Writer) writeDaily(f *excelize.File, daily []report.DailyBucket) error {
	header := []interface{}{"Date", "Orders", "Net Revenue", "Shipping", "Tax"}
	formatted := [][]interface{}{header}
	raw := [][]interface{}{header}
	for _, d := range daily {
		formatted = append(formatted, []interface{}{
			d.Date, d.Orders, w.money(d.NetRevenue), w.money(d.Shipping), w.money(d.Tax),
		})
		raw = append(raw, []interface{}{
			d.Date, d.Orders, w.rawMoney(d.NetRevenue), w.rawMoney(d.Shipping), w.rawMoney(d.Tax),
		})
	}

	if err := writeSheet(f, SheetDaily, formatted); err != nil {
		return err
	}
	if err := writeSheet(f, SheetDailyRaw, raw); err != nil {
		return err
	}

	if len(daily) < 2 {
		return nil
	}
	// Revenue trend chart next to the formatted table, plotting the
	// numeric column of the raw twin.
	chart := &excelize.Chart{
		Type:  excelize.Line,
		Title: []excelize.RichTextRun{{Text: "Daily Net Revenue"}},
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$C$1", SheetDailyRaw),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", SheetDailyRaw, len(daily)+1),
			Values:     fmt.Sprintf("%s!$C$2:$C$%d", SheetDailyRaw, len(daily)+1),
		}},
	}
	if err := f.AddChart(SheetDaily, "G2", chart); err != nil {
		return fmt.Errorf("workbook: adding daily chart: %w", err)
	}
	return nil
}

func (w *Writer) writeProducts(f *excelize.File, sheet, rawSheet string, products []report.ProductBucket) error {
	header := []interface{}{"SKU", "Title", "Units", "Net Revenue"}
	formatted := [][]interface{}{header}
	raw := [][]interface{}{header}
	for _, p := range products {
		formatted = append(formatted, []interface{}{p.SKU, p.Title, p.Units, w.money(p.NetRevenue)})
		raw = append(raw, []interface{}{p.SKU, p.Title, p.Units, w.rawMoney(p.NetRevenue)})
	}

	if err := writeSheet(f, sheet, formatted); err != nil {
		return err
	}
	return writeSheet(f, rawSheet, raw)
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("workbook: creating %s sheet: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("workbook: cell name for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("workbook: writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
