package ledger

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/pkg/logger"
)

// Service provides business operations for the ledger.
type Service struct {
	repo Repository
}

// NewService creates a new ledger service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Append validates and records a new ledger entry.
func (s *Service) Append(ctx context.Context, entry *Entry) error {
	if !entry.Kind.Valid() {
		return apperror.NewValidation(fmt.Sprintf("unknown entry kind %q", entry.Kind))
	}
	if id.IsNil(entry.ItemID) {
		return apperror.NewValidation("item_id is required")
	}
	if entry.Kind.RequiresPrice() && entry.UnitPrice == nil {
		return apperror.NewValidation(fmt.Sprintf("%s entries require a unit price", entry.Kind))
	}
	if !entry.Kind.RequiresPrice() && entry.UnitPrice != nil {
		return apperror.NewValidation(fmt.Sprintf("%s entries must not carry a unit price", entry.Kind))
	}
	if entry.Kind == KindIssue && entry.Quantity.Sign() >= 0 {
		return apperror.NewValidation("issue quantity must be negative")
	}
	if entry.Kind != KindIssue && entry.Kind != KindAdjustment && entry.Quantity.Sign() < 0 {
		return apperror.NewValidation(fmt.Sprintf("%s quantity must not be negative", entry.Kind))
	}

	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	logger.Info(ctx, "ledger entry recorded",
		"item_id", entry.ItemID,
		"kind", entry.Kind,
		"quantity", entry.Quantity,
	)

	return nil
}

// RecordIssueRequest stores the request an issue entry originates from.
func (s *Service) RecordIssueRequest(ctx context.Context, req *Request) error {
	if req.Location != "" && req.Location != LocationHeadquarters && req.Location != LocationJabi {
		logger.Warn(ctx, "issue request with unrecognized location", "location", req.Location)
	}
	if id.IsNil(req.ID) {
		req.ID = id.New()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// History returns an item's entries, newest first.
func (s *Service) History(ctx context.Context, itemID id.ID, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	entries, err := s.repo.FetchHistory(ctx, itemID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return entries, nil
}
