package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/period"
	"stockledger/pkg/logger"
)

// fakeResolver serves a fixed item list and records whether items were
// actually resolved.
type fakeResolver struct {
	items        []catalog.Item
	count        int
	resolveCalls int
}

func (f *fakeResolver) ResolveItems(_ context.Context, _ catalog.ItemFilter, _ time.Time) ([]catalog.Item, error) {
	f.resolveCalls++
	return f.items, nil
}

func (f *fakeResolver) CountItems(_ context.Context, _ catalog.ItemFilter, _ time.Time) (int, error) {
	if f.count > 0 {
		return f.count, nil
	}
	return len(f.items), nil
}

// failingLedger fails for one item and serves canned entries for the rest.
type failingLedger struct {
	fakeLedger
	failFor id.ID
}

func (f *failingLedger) FetchEntries(ctx context.Context, itemID id.ID, upTo time.Time) ([]ledger.Entry, error) {
	if itemID == f.failFor {
		return nil, errors.New("storage unavailable")
	}
	return f.fakeLedger.FetchEntries(ctx, itemID, upTo)
}

func catalogItem(name, category string) catalog.Item {
	return catalog.Item{ID: id.New(), Name: name, CategoryName: category}
}

func mayWindow() period.Window {
	return period.Window{Start: at(2023, time.May, 1), End: at(2023, time.May, 31)}
}

func TestGenerateReport_EmptyItemSet(t *testing.T) {
	resolver := &fakeResolver{}
	engine := testEngine(map[id.ID][]ledger.Entry{})
	agg := NewAggregator(resolver, engine, logger.Default())

	report, err := agg.GenerateReport(context.Background(), catalog.ItemFilter{}, mayWindow())
	require.NoError(t, err)

	assert.Empty(t, report.Groups)
	assert.True(t, report.GrandTotals.TotalValue.IsZero())
	assert.True(t, report.GrandTotals.ClosingStock.IsZero())
}

func TestGenerateReport_TooManyItems(t *testing.T) {
	resolver := &fakeResolver{count: MaxReportItems + 1}
	engine := testEngine(map[id.ID][]ledger.Entry{})
	agg := NewAggregator(resolver, engine, logger.Default())

	_, err := agg.GenerateReport(context.Background(), catalog.ItemFilter{}, mayWindow())
	require.Error(t, err)
	assert.True(t, apperror.IsReportTooLarge(err))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, MaxReportItems+1, appErr.Details["resolved_items"])

	// Rejected before any work: the item set is never even resolved.
	assert.Zero(t, resolver.resolveCalls)
}

func TestGenerateReport_GroupsByCategoryInFirstSeenOrder(t *testing.T) {
	pens := catalogItem("Pens", "Stationery")
	paper := catalogItem("A4 Paper", "Stationery")
	soap := catalogItem("Soap", "Cleaning")

	entries := map[id.ID][]ledger.Entry{
		pens.ID: {
			pricedEntry(pens.ID, ledger.KindPurchase, 10, "2", at(2023, time.May, 3)),
		},
		paper.ID: {
			pricedEntry(paper.ID, ledger.KindPurchase, 20, "5", at(2023, time.May, 4)),
		},
		soap.ID: {
			pricedEntry(soap.ID, ledger.KindPurchase, 4, "10", at(2023, time.May, 5)),
		},
	}
	resolver := &fakeResolver{items: []catalog.Item{pens, paper, soap}}
	agg := NewAggregator(resolver, testEngine(entries), logger.Default())

	report, err := agg.GenerateReport(context.Background(), catalog.ItemFilter{}, mayWindow())
	require.NoError(t, err)

	require.Len(t, report.Groups, 2)
	assert.Equal(t, "Stationery", report.Groups[0].Category)
	assert.Equal(t, "Cleaning", report.Groups[1].Category)
	assert.Len(t, report.Groups[0].Items, 2)
	assert.Len(t, report.Groups[1].Items, 1)

	// Stationery: 10x2 + 20x5 = 120; Cleaning: 4x10 = 40.
	assert.True(t, report.Groups[0].Totals.TotalValue.Equal(types.MustMoney("120")),
		"stationery total, got %s", report.Groups[0].Totals.TotalValue)
	assert.True(t, report.Groups[1].Totals.TotalValue.Equal(types.MustMoney("40")),
		"cleaning total, got %s", report.Groups[1].Totals.TotalValue)
}

func TestGenerateReport_GrandTotalsEqualSumOfCategoryTotals(t *testing.T) {
	itemA := catalogItem("Pens", "Stationery")
	itemB := catalogItem("Soap", "Cleaning")
	itemC := catalogItem("Bleach", "Cleaning")

	entries := map[id.ID][]ledger.Entry{
		itemA.ID: {
			pricedEntry(itemA.ID, ledger.KindPurchase, 10, "2", at(2023, time.May, 3)),
			issueEntry(itemA.ID, -4, ledger.LocationHeadquarters, at(2023, time.May, 8)),
		},
		itemB.ID: {
			pricedEntry(itemB.ID, ledger.KindPurchase, 6, "7", at(2023, time.May, 4)),
			entry(itemB.ID, ledger.KindAdjustment, -1, at(2023, time.May, 9)),
		},
		itemC.ID: {
			pricedEntry(itemC.ID, ledger.KindPurchase, 3, "15", at(2023, time.May, 6)),
			issueEntry(itemC.ID, -2, ledger.LocationJabi, at(2023, time.May, 12)),
		},
	}
	resolver := &fakeResolver{items: []catalog.Item{itemA, itemB, itemC}}
	agg := NewAggregator(resolver, testEngine(entries), logger.Default())

	report, err := agg.GenerateReport(context.Background(), catalog.ItemFilter{}, mayWindow())
	require.NoError(t, err)
	require.Len(t, report.Groups, 2)

	summed := NewTotals()
	for _, group := range report.Groups {
		for _, rec := range group.Items {
			summed.Add(rec)
		}
	}

	grand := report.GrandTotals
	assert.True(t, grand.OpeningStock.Equal(summed.OpeningStock))
	assert.True(t, grand.Purchases.Equal(summed.Purchases))
	assert.True(t, grand.Adjustments.Equal(summed.Adjustments))
	assert.True(t, grand.HQIssues.Equal(summed.HQIssues))
	assert.True(t, grand.JabiIssues.Equal(summed.JabiIssues))
	assert.True(t, grand.ClosingStock.Equal(summed.ClosingStock))
	assert.True(t, grand.TotalValue.Equal(summed.TotalValue))

	// Each accumulation bucket is its own instance.
	assert.NotSame(t, report.Groups[0].Totals, report.Groups[1].Totals)
	assert.NotSame(t, report.Groups[0].Totals, report.GrandTotals)
}

func TestGenerateReport_SkipsItemThatCannotBeValued(t *testing.T) {
	good := catalogItem("Pens", "Stationery")
	bad := catalogItem("Soap", "Cleaning")

	store := &failingLedger{
		fakeLedger: fakeLedger{entries: map[id.ID][]ledger.Entry{
			good.ID: {
				pricedEntry(good.ID, ledger.KindPurchase, 10, "2", at(2023, time.May, 3)),
			},
		}},
		failFor: bad.ID,
	}
	resolver := &fakeResolver{items: []catalog.Item{good, bad}}
	agg := NewAggregator(resolver, NewEngine(store, logger.Default()), logger.Default())

	report, err := agg.GenerateReport(context.Background(), catalog.ItemFilter{}, mayWindow())
	require.NoError(t, err)

	// The failed item is dropped without contaminating the rest.
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "Stationery", report.Groups[0].Category)
	assert.True(t, report.GrandTotals.TotalValue.Equal(types.MustMoney("20")),
		"grand total, got %s", report.GrandTotals.TotalValue)
}
