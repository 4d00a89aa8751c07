// Package export renders stored report snapshots into spreadsheet workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"stockledger/internal/core/types"
	"stockledger/internal/domain/reportcache"
	"stockledger/internal/domain/valuation"
)

const sheetName = "Stock Report"

var headers = []string{
	"S/N", "Item", "Description", "Opening Stock", "Purchases", "Adjustment",
	"HQ Issue", "Jabi Issue", "Closing Stock", "WAC Unit Price (₦)", "Total Value (₦)",
}

const (
	qtyFormat   = "#,##0"
	moneyFormat = "#,##0.00"
)

// ExcelExporter renders report snapshots as xlsx workbooks.
type ExcelExporter struct{}

// NewExcelExporter creates an exporter.
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Filename returns the suggested download name for a snapshot.
func (e *ExcelExporter) Filename(snapshot *reportcache.Snapshot) string {
	return fmt.Sprintf("stock_report_%s_to_%s.xlsx",
		snapshot.Meta.StartDate.Format("2006-01-02"),
		snapshot.Meta.EndDate.Format("2006-01-02"))
}

// Write renders the snapshot into w as an xlsx workbook.
func (e *ExcelExporter) Write(w io.Writer, snapshot *reportcache.Snapshot) error {
	f, err := e.render(snapshot)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (e *ExcelExporter) render(snapshot *reportcache.Snapshot) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	styles, err := newStyleSet(f)
	if err != nil {
		return nil, err
	}

	// Title block.
	if err := f.MergeCell(sheetName, "A1", "K1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	setCell(f, 1, 1, "INVENTORY VALUATION REPORT")
	f.SetCellStyle(sheetName, "A1", "K1", styles.title)

	period := fmt.Sprintf("Period: %s to %s",
		snapshot.Meta.StartDate.Format("02 Jan 2006"),
		snapshot.Meta.EndDate.Format("02 Jan 2006"))
	setCell(f, 1, 2, period)
	setCell(f, 1, 3, fmt.Sprintf("Generated by %s on %s",
		snapshot.Meta.GeneratedBy,
		snapshot.Meta.GeneratedAt.Format("02 Jan 2006 15:04")))

	// Column headers.
	headerRow := 5
	for col, header := range headers {
		setCell(f, col+1, headerRow, header)
	}
	f.SetCellStyle(sheetName, cell(1, headerRow), cell(len(headers), headerRow), styles.header)

	row := headerRow + 1
	serial := 1
	for _, group := range snapshot.Report.Groups {
		if err := f.MergeCell(sheetName, cell(1, row), cell(len(headers), row)); err != nil {
			return nil, fmt.Errorf("merge category row: %w", err)
		}
		setCell(f, 1, row, group.Category)
		f.SetCellStyle(sheetName, cell(1, row), cell(len(headers), row), styles.category)
		row++

		for _, record := range group.Items {
			setCell(f, 1, row, serial)
			setCell(f, 2, row, record.ItemName)
			setCell(f, 3, row, record.Description)
			writeQty(f, 4, row, record.OpeningStock, styles)
			writeQty(f, 5, row, record.Purchases, styles)
			writeQty(f, 6, row, record.Adjustments, styles)
			writeQty(f, 7, row, record.HQIssues, styles)
			writeQty(f, 8, row, record.JabiIssues, styles)
			writeQty(f, 9, row, record.ClosingStock, styles)
			writeMoney(f, 10, row, record.UnitPrice, styles.money)
			writeMoney(f, 11, row, record.TotalValue, styles.money)
			serial++
			row++
		}

		writeTotalsRow(f, row, group.Category+" Total", group.Totals, styles)
		row++
	}

	if len(snapshot.Report.Groups) > 0 {
		row++
		writeTotalsRow(f, row, "GRAND TOTAL", snapshot.Report.GrandTotals, styles)
	}

	setColumnWidths(f)
	return f, nil
}

type styleSet struct {
	title      int
	header     int
	category   int
	qty        int
	money      int
	totalLabel int
	totalQty   int
	totalMoney int
}

func newStyleSet(f *excelize.File) (*styleSet, error) {
	var (
		s   styleSet
		err error
	)
	qtyFmt := qtyFormat
	moneyFmt := moneyFormat

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return nil, fmt.Errorf("title style: %w", err)
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9D9D9"}},
		Border: []excelize.Border{
			{Type: "bottom", Style: 1, Color: "000000"},
		},
	}); err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	if s.category, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Italic: true},
	}); err != nil {
		return nil, fmt.Errorf("category style: %w", err)
	}
	if s.qty, err = f.NewStyle(&excelize.Style{CustomNumFmt: &qtyFmt}); err != nil {
		return nil, fmt.Errorf("qty style: %w", err)
	}
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt}); err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}
	if s.totalLabel, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FF0000"},
	}); err != nil {
		return nil, fmt.Errorf("total label style: %w", err)
	}
	if s.totalQty, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Color: "FF0000"},
		CustomNumFmt: &qtyFmt,
	}); err != nil {
		return nil, fmt.Errorf("total qty style: %w", err)
	}
	if s.totalMoney, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Color: "FF0000"},
		CustomNumFmt: &moneyFmt,
	}); err != nil {
		return nil, fmt.Errorf("total money style: %w", err)
	}
	return &s, nil
}

func writeTotalsRow(f *excelize.File, row int, label string, totals *valuation.Totals, styles *styleSet) {
	setCell(f, 2, row, label)
	f.SetCellStyle(sheetName, cell(1, row), cell(3, row), styles.totalLabel)

	values := []types.Quantity{
		totals.OpeningStock, totals.Purchases, totals.Adjustments,
		totals.HQIssues, totals.JabiIssues, totals.ClosingStock,
	}
	for i, v := range values {
		col := 4 + i
		setCell(f, col, row, types.RoundPresentation(v).InexactFloat64())
		f.SetCellStyle(sheetName, cell(col, row), cell(col, row), styles.totalQty)
	}
	// Unit price is per-item; the totals row carries only the value column.
	setCell(f, 11, row, types.RoundPresentation(totals.TotalValue).InexactFloat64())
	f.SetCellStyle(sheetName, cell(11, row), cell(11, row), styles.totalMoney)
}

func writeQty(f *excelize.File, col, row int, v types.Quantity, styles *styleSet) {
	setCell(f, col, row, types.RoundPresentation(v).InexactFloat64())
	f.SetCellStyle(sheetName, cell(col, row), cell(col, row), styles.qty)
}

func writeMoney(f *excelize.File, col, row int, v types.Money, style int) {
	setCell(f, col, row, types.RoundPresentation(v).InexactFloat64())
	f.SetCellStyle(sheetName, cell(col, row), cell(col, row), style)
}

func setCell(f *excelize.File, col, row int, value any) {
	_ = f.SetCellValue(sheetName, cell(col, row), value)
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func setColumnWidths(f *excelize.File) {
	widths := map[string]float64{
		"A": 6, "B": 28, "C": 36, "D": 14, "E": 12, "F": 12,
		"G": 10, "H": 10, "I": 14, "J": 18, "K": 18,
	}
	for col, width := range widths {
		_ = f.SetColWidth(sheetName, col, col, width)
	}
}
