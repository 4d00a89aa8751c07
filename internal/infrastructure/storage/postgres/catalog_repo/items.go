// Package catalog_repo provides the PostgreSQL implementation of the catalog
// repository.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	itemsTable      = "items"
	categoriesTable = "categories"
)

const itemColumns = "i.id, i.name, i.description, i.category_id, " +
	"COALESCE(c.name, '') AS category_name, i.location, i.quantity, i.unit_price, " +
	"i.created_at, i.updated_at"

// CatalogRepo implements catalog.Repository.
type CatalogRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewCatalogRepo creates a new catalog repository.
func NewCatalogRepo(txManager *postgres.TxManager) *CatalogRepo {
	return &CatalogRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CatalogRepo) itemSelect() squirrel.SelectBuilder {
	return r.builder.Select(itemColumns).
		From(itemsTable + " i").
		LeftJoin(categoriesTable + " c ON c.id = i.category_id")
}

func applyFilter(q squirrel.SelectBuilder, filter catalog.ItemFilter, asOf time.Time) squirrel.SelectBuilder {
	q = q.Where(squirrel.LtOrEq{"i.created_at": asOf})
	if filter.CategoryID != nil {
		q = q.Where(squirrel.Eq{"i.category_id": *filter.CategoryID})
	}
	if filter.ItemID != nil {
		q = q.Where(squirrel.Eq{"i.id": *filter.ItemID})
	}
	return q
}

// ResolveItems returns items known at asOf matching the filter, ordered by
// category name then item name.
func (r *CatalogRepo) ResolveItems(ctx context.Context, filter catalog.ItemFilter, asOf time.Time) ([]catalog.Item, error) {
	q := applyFilter(r.itemSelect(), filter, asOf).
		OrderBy("category_name", "i.name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []catalog.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	return items, nil
}

// CountItems returns the number of items ResolveItems would yield.
func (r *CatalogRepo) CountItems(ctx context.Context, filter catalog.ItemFilter, asOf time.Time) (int, error) {
	q := applyFilter(r.builder.Select("COUNT(*)").From(itemsTable+" i"), filter, asOf)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

// GetItem returns an item by id, or nil when absent.
func (r *CatalogRepo) GetItem(ctx context.Context, itemID id.ID) (*catalog.Item, error) {
	q := r.itemSelect().Where(squirrel.Eq{"i.id": itemID}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item catalog.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return &item, nil
}

// SearchItems finds items whose name contains the term, case-insensitive.
func (r *CatalogRepo) SearchItems(ctx context.Context, term string, limit int) ([]catalog.Item, error) {
	q := r.itemSelect().
		Where(squirrel.ILike{"i.name": "%" + term + "%"}).
		OrderBy("i.name").
		Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []catalog.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

// CreateItem inserts a new item.
func (r *CatalogRepo) CreateItem(ctx context.Context, item *catalog.Item) error {
	q := r.builder.Insert(itemsTable).
		Columns("id", "name", "description", "category_id", "location", "quantity", "unit_price", "created_at", "updated_at").
		Values(item.ID, item.Name, item.Description, item.CategoryID, item.Location,
			item.Quantity, item.UnitPrice, item.CreatedAt, item.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// UpdateItem updates an item's mutable fields.
func (r *CatalogRepo) UpdateItem(ctx context.Context, item *catalog.Item) error {
	q := r.builder.Update(itemsTable).
		Set("description", item.Description).
		Set("category_id", item.CategoryID).
		Set("location", item.Location).
		Set("quantity", item.Quantity).
		Set("unit_price", item.UnitPrice).
		Set("updated_at", item.UpdatedAt).
		Where(squirrel.Eq{"id": item.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// GetItemByName returns an item by exact name, or nil when absent.
func (r *CatalogRepo) GetItemByName(ctx context.Context, name string) (*catalog.Item, error) {
	q := r.itemSelect().Where(squirrel.Eq{"i.name": name}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item catalog.Item
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item by name: %w", err)
	}
	return &item, nil
}
