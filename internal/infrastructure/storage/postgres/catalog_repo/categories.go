package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/domain/catalog"
)

// ListCategories returns all categories ordered by name.
func (r *CatalogRepo) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	q := r.builder.Select("id", "name", "created_at").
		From(categoriesTable).
		OrderBy("name")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var categories []catalog.Category
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &categories, sql, args...); err != nil {
		return nil, fmt.Errorf("select categories: %w", err)
	}
	return categories, nil
}

// GetCategoryByName returns a category by exact name, or nil when absent.
func (r *CatalogRepo) GetCategoryByName(ctx context.Context, name string) (*catalog.Category, error) {
	q := r.builder.Select("id", "name", "created_at").
		From(categoriesTable).
		Where(squirrel.Eq{"name": name}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var category catalog.Category
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &category, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// CreateCategory inserts a new category.
func (r *CatalogRepo) CreateCategory(ctx context.Context, category *catalog.Category) error {
	q := r.builder.Insert(categoriesTable).
		Columns("id", "name", "created_at").
		Values(category.ID, category.Name, category.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}
