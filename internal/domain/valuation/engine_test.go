package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/period"
	"stockledger/pkg/logger"
)

// fakeLedger serves canned entries, honoring the upTo bound.
type fakeLedger struct {
	entries map[id.ID][]ledger.Entry
}

func (f *fakeLedger) FetchEntries(_ context.Context, itemID id.ID, upTo time.Time) ([]ledger.Entry, error) {
	var out []ledger.Entry
	for _, e := range f.entries[itemID] {
		if !e.OccurredAt.After(upTo) {
			out = append(out, e)
		}
	}
	return out, nil
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(itemID id.ID, kind ledger.Kind, qty int64, occurredAt time.Time) ledger.Entry {
	return ledger.Entry{
		ID:         id.New(),
		ItemID:     itemID,
		Kind:       kind,
		Quantity:   types.NewQuantity(qty),
		OccurredAt: occurredAt,
	}
}

func pricedEntry(itemID id.ID, kind ledger.Kind, qty int64, price string, occurredAt time.Time) ledger.Entry {
	e := entry(itemID, kind, qty, occurredAt)
	p := types.MustMoney(price)
	e.UnitPrice = &p
	return e
}

func issueEntry(itemID id.ID, qty int64, location string, occurredAt time.Time) ledger.Entry {
	e := entry(itemID, ledger.KindIssue, qty, occurredAt)
	e.Location = location
	return e
}

func testEngine(entries map[id.ID][]ledger.Entry) *Engine {
	return NewEngine(&fakeLedger{entries: entries}, logger.Default())
}

func testItem(itemID id.ID) catalog.Item {
	return catalog.Item{ID: itemID, Name: "A4 Paper", CategoryName: "Stationery"}
}

func TestValueItem_FullPeriodActivity(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			pricedEntry(itemID, ledger.KindInitial, 100, "10", at(2023, time.January, 1)),
			pricedEntry(itemID, ledger.KindPurchase, 50, "12", at(2023, time.January, 15)),
			issueEntry(itemID, -30, ledger.LocationHeadquarters, at(2023, time.January, 20)),
		},
	})
	window := period.Window{Start: at(2023, time.January, 1), End: at(2023, time.January, 31)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	assert.True(t, rec.OpeningStock.IsZero(), "opening stock, got %s", rec.OpeningStock)
	assert.True(t, rec.Purchases.Equal(types.NewQuantity(150)), "purchases, got %s", rec.Purchases)
	assert.True(t, rec.HQIssues.Equal(types.NewQuantity(30)), "hq issues, got %s", rec.HQIssues)
	assert.True(t, rec.JabiIssues.IsZero(), "jabi issues, got %s", rec.JabiIssues)
	assert.True(t, rec.ClosingStock.Equal(types.NewQuantity(120)), "closing stock, got %s", rec.ClosingStock)

	// The mid-window initial entry is costed twice, so goods available cost
	// 100x10 + 50x12 + 100x10 = 2600 over 150 units.
	assert.True(t, types.RoundPresentation(rec.UnitPrice).Equal(types.MustMoney("17.33")),
		"unit price, got %s", rec.UnitPrice)
	assert.True(t, types.RoundPresentation(rec.TotalValue).Equal(types.MustMoney("2080")),
		"total value, got %s", rec.TotalValue)
	assert.True(t, types.RoundPresentation(rec.COGS).Equal(types.MustMoney("520")),
		"cogs, got %s", rec.COGS)
}

func TestValueItem_PriceUpdateResetsCostBasis(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			pricedEntry(itemID, ledger.KindPurchase, 100, "5", at(2023, time.March, 2)),
			pricedEntry(itemID, ledger.KindPriceUpdate, 0, "8", at(2023, time.March, 10)),
		},
	})
	window := period.Window{Start: at(2023, time.March, 1), End: at(2023, time.March, 31)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	// Cost basis becomes 100x8 = 800 outright, not an average of 5 and 8.
	assert.True(t, rec.UnitPrice.Equal(types.MustMoney("8")), "unit price, got %s", rec.UnitPrice)
	assert.True(t, rec.ClosingStock.Equal(types.NewQuantity(100)), "closing stock, got %s", rec.ClosingStock)
	assert.True(t, rec.TotalValue.Equal(types.MustMoney("800")), "total value, got %s", rec.TotalValue)
}

func TestValueItem_EmptyLedger(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{})
	window := period.Window{Start: at(2023, time.January, 1), End: at(2023, time.January, 31)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	assert.True(t, rec.OpeningStock.IsZero())
	assert.True(t, rec.Purchases.IsZero())
	assert.True(t, rec.Adjustments.IsZero())
	assert.True(t, rec.HQIssues.IsZero())
	assert.True(t, rec.JabiIssues.IsZero())
	assert.True(t, rec.ClosingStock.IsZero())
	assert.True(t, rec.UnitPrice.IsZero())
	assert.True(t, rec.TotalValue.IsZero())
	assert.True(t, rec.COGS.IsZero())
}

func TestValueItem_OpeningBalanceFromHistory(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			pricedEntry(itemID, ledger.KindInitial, 200, "4", at(2022, time.November, 1)),
			issueEntry(itemID, -50, ledger.LocationJabi, at(2022, time.December, 5)),
			pricedEntry(itemID, ledger.KindPurchase, 30, "6", at(2022, time.December, 20)),
			entry(itemID, ledger.KindAdjustment, -10, at(2022, time.December, 28)),
			issueEntry(itemID, -20, ledger.LocationHeadquarters, at(2023, time.January, 10)),
		},
	})
	window := period.Window{Start: at(2023, time.January, 1), End: at(2023, time.January, 31)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	// 200 - 50 + 30 - 10 on hand, priced at the December purchase.
	assert.True(t, rec.OpeningStock.Equal(types.NewQuantity(170)), "opening stock, got %s", rec.OpeningStock)
	assert.True(t, rec.HQIssues.Equal(types.NewQuantity(20)), "hq issues, got %s", rec.HQIssues)
	assert.True(t, rec.ClosingStock.Equal(types.NewQuantity(150)), "closing stock, got %s", rec.ClosingStock)
	assert.True(t, rec.UnitPrice.Equal(types.MustMoney("6")), "unit price, got %s", rec.UnitPrice)
}

func TestValueItem_NoPriceHistoryDefaultsToZero(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			entry(itemID, ledger.KindAdjustment, 40, at(2022, time.December, 1)),
		},
	})
	window := period.Window{Start: at(2023, time.January, 1), End: at(2023, time.January, 31)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	assert.True(t, rec.OpeningStock.Equal(types.NewQuantity(40)))
	assert.True(t, rec.UnitPrice.IsZero(), "unit price, got %s", rec.UnitPrice)
	assert.True(t, rec.TotalValue.IsZero(), "total value, got %s", rec.TotalValue)
}

func TestValueItem_ZeroQuantityFallsBackToLastPrice(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			pricedEntry(itemID, ledger.KindPurchase, 10, "5", at(2022, time.December, 1)),
			issueEntry(itemID, -10, ledger.LocationHeadquarters, at(2022, time.December, 15)),
		},
	})
	window := period.Window{Start: at(2023, time.January, 1), End: at(2023, time.January, 31)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	// Nothing available during the window; price carries over instead of
	// dividing by zero.
	assert.True(t, rec.UnitPrice.Equal(types.MustMoney("5")), "unit price, got %s", rec.UnitPrice)
	assert.True(t, rec.ClosingStock.IsZero(), "closing stock, got %s", rec.ClosingStock)
}

func TestValueItem_IssuesClassifiedByLocation(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			pricedEntry(itemID, ledger.KindInitial, 100, "2", at(2023, time.May, 1)),
			issueEntry(itemID, -10, ledger.LocationHeadquarters, at(2023, time.May, 5)),
			issueEntry(itemID, -15, ledger.LocationJabi, at(2023, time.May, 10)),
			issueEntry(itemID, -5, "", at(2023, time.May, 12)),
			entry(itemID, ledger.KindAdjustment, -3, at(2023, time.May, 20)),
		},
	})
	window := period.Window{Start: at(2023, time.May, 1), End: at(2023, time.May, 31)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	assert.True(t, rec.HQIssues.Equal(types.NewQuantity(10)), "hq issues, got %s", rec.HQIssues)
	assert.True(t, rec.JabiIssues.Equal(types.NewQuantity(15)), "jabi issues, got %s", rec.JabiIssues)
	assert.True(t, rec.Adjustments.Equal(types.NewQuantity(-3)), "adjustments, got %s", rec.Adjustments)

	// Unlocated issues count toward the closing position and COGS even though
	// they are not surfaced as their own column. The mid-window initial entry
	// doubles the cost basis, so WAC here is 400/100 = 4.
	assert.True(t, rec.ClosingStock.Equal(types.NewQuantity(67)), "closing stock, got %s", rec.ClosingStock)
	assert.True(t, rec.COGS.Equal(types.MustMoney("120")), "cogs, got %s", rec.COGS)
}

func TestValueItem_PeriodContinuity(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			pricedEntry(itemID, ledger.KindInitial, 100, "10", at(2023, time.January, 3)),
			pricedEntry(itemID, ledger.KindPurchase, 40, "11", at(2023, time.January, 12)),
			issueEntry(itemID, -25, ledger.LocationHeadquarters, at(2023, time.January, 18)),
			entry(itemID, ledger.KindAdjustment, -5, at(2023, time.January, 27)),
			pricedEntry(itemID, ledger.KindPurchase, 60, "12", at(2023, time.February, 4)),
			issueEntry(itemID, -30, ledger.LocationJabi, at(2023, time.February, 15)),
		},
	})

	january := period.Window{Start: at(2023, time.January, 1), End: at(2023, time.January, 31)}
	february := period.Window{Start: at(2023, time.February, 1), End: at(2023, time.February, 28)}

	jan, err := engine.ValueItem(context.Background(), testItem(itemID), january)
	require.NoError(t, err)
	feb, err := engine.ValueItem(context.Background(), testItem(itemID), february)
	require.NoError(t, err)

	assert.True(t, jan.ClosingStock.Equal(feb.OpeningStock),
		"january closed at %s but february opened at %s", jan.ClosingStock, feb.OpeningStock)
}

func TestValueItem_EntriesAfterWindowIgnored(t *testing.T) {
	itemID := id.New()
	engine := testEngine(map[id.ID][]ledger.Entry{
		itemID: {
			pricedEntry(itemID, ledger.KindInitial, 50, "3", at(2023, time.June, 1)),
			pricedEntry(itemID, ledger.KindPurchase, 500, "9", at(2023, time.July, 2)),
		},
	})
	window := period.Window{Start: at(2023, time.June, 1), End: at(2023, time.June, 30)}

	rec, err := engine.ValueItem(context.Background(), testItem(itemID), window)
	require.NoError(t, err)

	assert.True(t, rec.Purchases.Equal(types.NewQuantity(50)), "purchases, got %s", rec.Purchases)
	assert.True(t, rec.ClosingStock.Equal(types.NewQuantity(50)), "closing stock, got %s", rec.ClosingStock)
}
