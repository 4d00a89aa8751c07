package valuation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"stockledger/internal/core/apperror"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/period"
	"stockledger/pkg/logger"
)

// MaxReportItems bounds the item set a single report may cover. Larger sets
// are rejected up front so the caller can narrow the filters.
const MaxReportItems = 5000

// defaultWorkers limits concurrent per-item valuations.
const defaultWorkers = 8

// ItemResolver is the slice of catalog storage the aggregator depends on.
type ItemResolver interface {
	ResolveItems(ctx context.Context, filter catalog.ItemFilter, asOf time.Time) ([]catalog.Item, error)
	CountItems(ctx context.Context, filter catalog.ItemFilter, asOf time.Time) (int, error)
}

// Aggregator runs the valuation engine across a filtered item set and folds
// the records into category groups and grand totals.
type Aggregator struct {
	items   ItemResolver
	engine  *Engine
	log     *logger.Logger
	workers int
}

// NewAggregator creates an aggregator over the given resolver and engine.
func NewAggregator(items ItemResolver, engine *Engine, log *logger.Logger) *Aggregator {
	return &Aggregator{
		items:   items,
		engine:  engine,
		log:     log.WithComponent("report"),
		workers: defaultWorkers,
	}
}

// GenerateReport values every item matching the filter over the window and
// groups the results by category, in first-seen category order.
//
// An empty item set yields an empty report, not an error. A set larger than
// MaxReportItems is rejected before any valuation runs.
func (a *Aggregator) GenerateReport(ctx context.Context, filter catalog.ItemFilter, w period.Window) (*Report, error) {
	count, err := a.items.CountItems(ctx, filter, w.End)
	if err != nil {
		return nil, fmt.Errorf("count report items: %w", err)
	}
	if count > MaxReportItems {
		return nil, apperror.NewReportTooLarge(count, MaxReportItems)
	}

	items, err := a.items.ResolveItems(ctx, filter, w.End)
	if err != nil {
		return nil, fmt.Errorf("resolve report items: %w", err)
	}
	if len(items) == 0 {
		return &Report{Groups: []CategoryGroup{}, GrandTotals: NewTotals()}, nil
	}

	// Items are independent, so valuation fans out. Each worker writes only
	// its own slot; accumulation happens afterwards in one goroutine.
	records := make([]*Record, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, item := range items {
		g.Go(func() error {
			record, err := a.engine.ValueItem(gctx, item, w)
			if err != nil {
				// One unvaluable item must not sink the report. Leave the slot
				// empty and carry on with the rest of the set.
				a.log.WithContext(gctx).Errorw("skipping item that could not be valued",
					"item_id", item.ID, "item_name", item.Name, "error", err)
				return nil
			}
			records[i] = &record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return fold(records), nil
}

// fold accumulates valuation records into category groups and grand totals,
// preserving the order records arrive in. Every accumulation bucket starts
// from its own fresh zero value.
func fold(records []*Record) *Report {
	report := &Report{
		Groups:      []CategoryGroup{},
		GrandTotals: NewTotals(),
	}
	groupIdx := make(map[string]int)

	for _, record := range records {
		if record == nil {
			continue
		}

		idx, ok := groupIdx[record.CategoryName]
		if !ok {
			idx = len(report.Groups)
			groupIdx[record.CategoryName] = idx
			report.Groups = append(report.Groups, CategoryGroup{
				Category: record.CategoryName,
				Items:    []Record{},
				Totals:   NewTotals(),
			})
		}

		group := &report.Groups[idx]
		group.Items = append(group.Items, *record)
		group.Totals.Add(*record)
		report.GrandTotals.Add(*record)
	}

	return report
}
