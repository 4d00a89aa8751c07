package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
)

// Service provides business operations for the item catalog.
type Service struct {
	repo Repository
}

// NewService creates a new catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Search finds items by name fragment, capped at 20 results.
func (s *Service) Search(ctx context.Context, term string) ([]Item, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Item{}, nil
	}
	items, err := s.repo.SearchItems(ctx, term, 20)
	if err != nil {
		return nil, fmt.Errorf("search items: %w", err)
	}
	return items, nil
}

// GetItem returns a single item by id.
func (s *Service) GetItem(ctx context.Context, itemID id.ID) (*Item, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperror.NewNotFound("item", itemID)
	}
	return item, nil
}

// ListItems returns all items known at asOf.
func (s *Service) ListItems(ctx context.Context, asOf time.Time) ([]Item, error) {
	if asOf.IsZero() {
		asOf = time.Now().UTC()
	}
	return s.repo.ResolveItems(ctx, ItemFilter{}, asOf)
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// EnsureCategory returns the category with the given name, creating it if it
// does not exist. Used by bulk import.
func (s *Service) EnsureCategory(ctx context.Context, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.NewValidation("category name is required")
	}

	existing, err := s.repo.GetCategoryByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	category := &Category{
		ID:        id.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// UpsertItem creates the named item or updates its denormalized fields.
// Used by bulk import; returns the stored item.
func (s *Service) UpsertItem(ctx context.Context, item *Item) (*Item, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, apperror.NewValidation("item name is required")
	}

	existing, err := s.repo.GetItemByName(ctx, item.Name)
	if err != nil {
		return nil, fmt.Errorf("get item by name: %w", err)
	}
	if existing != nil {
		existing.Description = item.Description
		existing.CategoryID = item.CategoryID
		existing.Quantity = item.Quantity
		existing.UnitPrice = item.UnitPrice
		existing.UpdatedAt = item.UpdatedAt
		if err := s.repo.UpdateItem(ctx, existing); err != nil {
			return nil, fmt.Errorf("update item: %w", err)
		}
		return existing, nil
	}

	if id.IsNil(item.ID) {
		item.ID = id.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create item: %w", err)
	}
	return item, nil
}
