package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/reportcache"
	"stockledger/internal/domain/valuation"
)

func snapshotFixture() *reportcache.Snapshot {
	rec := valuation.Record{
		ItemID:       id.New(),
		ItemName:     "A4 Paper",
		Description:  "Ream of 500 sheets",
		CategoryName: "Stationery",
		OpeningStock: types.NewQuantity(20),
		Purchases:    types.NewQuantity(100),
		HQIssues:     types.NewQuantity(30),
		ClosingStock: types.NewQuantity(90),
		UnitPrice:    types.MustMoney("12.50"),
		TotalValue:   types.MustMoney("1125"),
		COGS:         types.MustMoney("375"),
		Adjustments:  types.Zero(),
		JabiIssues:   types.Zero(),
	}
	group := valuation.CategoryGroup{
		Category: "Stationery",
		Items:    []valuation.Record{rec},
		Totals:   valuation.NewTotals(),
	}
	group.Totals.Add(rec)
	grand := valuation.NewTotals()
	grand.Add(rec)

	return &reportcache.Snapshot{
		ID:     id.New(),
		UserID: "user-1",
		Report: valuation.Report{Groups: []valuation.CategoryGroup{group}, GrandTotals: grand},
		Meta: valuation.Meta{
			GeneratedBy: "Store Keeper",
			GeneratedAt: time.Date(2023, time.June, 1, 9, 30, 0, 0, time.UTC),
			StartDate:   time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
			EndDate:     time.Date(2023, time.May, 31, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestFilename(t *testing.T) {
	name := NewExcelExporter().Filename(snapshotFixture())
	assert.Equal(t, "stock_report_2023-05-01_to_2023-05-31.xlsx", name)
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExcelExporter().Write(&buf, snapshotFixture()))
	require.NotZero(t, buf.Len())

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(sheetName, "A1")
	require.NoError(t, err)
	assert.Equal(t, "INVENTORY VALUATION REPORT", title)

	header, err := f.GetCellValue(sheetName, "B5")
	require.NoError(t, err)
	assert.Equal(t, "Item", header)

	category, err := f.GetCellValue(sheetName, "A6")
	require.NoError(t, err)
	assert.Equal(t, "Stationery", category)

	itemName, err := f.GetCellValue(sheetName, "B7")
	require.NoError(t, err)
	assert.Equal(t, "A4 Paper", itemName)

	closing, err := f.GetCellValue(sheetName, "I7")
	require.NoError(t, err)
	assert.Equal(t, "90", closing)

	totalLabel, err := f.GetCellValue(sheetName, "B8")
	require.NoError(t, err)
	assert.Equal(t, "Stationery Total", totalLabel)

	grandLabel, err := f.GetCellValue(sheetName, "B10")
	require.NoError(t, err)
	assert.Equal(t, "GRAND TOTAL", grandLabel)
}

func TestWriteEmptyReport(t *testing.T) {
	snap := snapshotFixture()
	snap.Report = valuation.Report{Groups: []valuation.CategoryGroup{}, GrandTotals: valuation.NewTotals()}

	var buf bytes.Buffer
	require.NoError(t, NewExcelExporter().Write(&buf, snap))
	assert.NotZero(t, buf.Len())
}
