// Package catalog provides inventory items and their categories.
package catalog

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Category groups items for reporting.
type Category struct {
	ID        id.ID     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Item is a tracked inventory item.
//
// Quantity and UnitPrice are denormalized "last known" values kept for display.
// Valuation never trusts them: historical numbers always come from replaying
// the ledger.
type Item struct {
	ID           id.ID          `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Description  string         `db:"description" json:"description"`
	CategoryID   id.ID          `db:"category_id" json:"categoryId"`
	CategoryName string         `db:"category_name" json:"categoryName"`
	Location     string         `db:"location" json:"location"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice    types.Money    `db:"unit_price" json:"unitPrice"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

// ItemFilter narrows item resolution for report generation.
type ItemFilter struct {
	CategoryID *id.ID
	ItemID     *id.ID
}

// Repository defines storage operations for items and categories.
type Repository interface {
	// ResolveItems returns items created on or before asOf, optionally narrowed
	// to a category or a single item, with CategoryName populated, ordered by
	// category name then item name.
	ResolveItems(ctx context.Context, filter ItemFilter, asOf time.Time) ([]Item, error)

	// CountItems returns the number of items ResolveItems would yield.
	CountItems(ctx context.Context, filter ItemFilter, asOf time.Time) (int, error)

	GetItem(ctx context.Context, itemID id.ID) (*Item, error)
	SearchItems(ctx context.Context, term string, limit int) ([]Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	GetItemByName(ctx context.Context, name string) (*Item, error)

	ListCategories(ctx context.Context) ([]Category, error)
	GetCategoryByName(ctx context.Context, name string) (*Category, error)
	CreateCategory(ctx context.Context, category *Category) error
}
