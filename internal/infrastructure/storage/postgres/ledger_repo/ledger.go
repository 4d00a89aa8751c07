// Package ledger_repo provides the PostgreSQL implementation of the ledger
// repository.
package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/infrastructure/storage/postgres"
)

const (
	entriesTable  = "ledger_entries"
	requestsTable = "requests"
)

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewLedgerRepo creates a new ledger repository.
func NewLedgerRepo(txManager *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts a new entry. The database assigns seq so insertion order is
// the tie-break for replays at identical timestamps.
func (r *LedgerRepo) Append(ctx context.Context, entry *ledger.Entry) error {
	q := r.builder.Insert(entriesTable).
		Columns("id", "item_id", "kind", "quantity", "unit_price", "request_id", "note", "occurred_at", "created_at").
		Values(entry.ID, entry.ItemID, entry.Kind, entry.Quantity, entry.UnitPrice,
			entry.RequestID, entry.Note, entry.OccurredAt, entry.CreatedAt).
		Suffix("RETURNING seq")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, args...).Scan(&entry.Seq); err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// FetchEntries returns every entry for an item up to and including upTo,
// ordered by (occurred_at, seq), with the issue location joined in.
func (r *LedgerRepo) FetchEntries(ctx context.Context, itemID id.ID, upTo time.Time) ([]ledger.Entry, error) {
	q := r.builder.Select(
		"e.id", "e.seq", "e.item_id", "e.kind", "e.quantity", "e.unit_price",
		"e.request_id", "COALESCE(r.location, '') AS location",
		"e.note", "e.occurred_at", "e.created_at",
	).From(entriesTable + " e").
		LeftJoin(requestsTable + " r ON r.id = e.request_id").
		Where(squirrel.Eq{"e.item_id": itemID}).
		Where(squirrel.LtOrEq{"e.occurred_at": upTo}).
		OrderBy("e.occurred_at", "e.seq")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	return entries, nil
}

// FetchHistory returns entries for an item, newest first.
func (r *LedgerRepo) FetchHistory(ctx context.Context, itemID id.ID, limit, offset int) ([]ledger.Entry, error) {
	q := r.builder.Select(
		"e.id", "e.seq", "e.item_id", "e.kind", "e.quantity", "e.unit_price",
		"e.request_id", "COALESCE(r.location, '') AS location",
		"e.note", "e.occurred_at", "e.created_at",
	).From(entriesTable + " e").
		LeftJoin(requestsTable + " r ON r.id = e.request_id").
		Where(squirrel.Eq{"e.item_id": itemID}).
		OrderBy("e.occurred_at DESC", "e.seq DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger history: %w", err)
	}
	return entries, nil
}

// DeleteByItemAndKind removes entries of one kind for an item.
func (r *LedgerRepo) DeleteByItemAndKind(ctx context.Context, itemID id.ID, kind ledger.Kind) (int64, error) {
	q := r.builder.Delete(entriesTable).
		Where(squirrel.Eq{"item_id": itemID, "kind": kind})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete ledger entries: %w", err)
	}
	return result.RowsAffected(), nil
}

// SumQuantity returns the signed quantity sum over all entries for an item.
func (r *LedgerRepo) SumQuantity(ctx context.Context, itemID id.ID) (types.Quantity, error) {
	q := r.builder.Select("COALESCE(SUM(quantity), 0)").
		From(entriesTable).
		Where(squirrel.Eq{"item_id": itemID})

	sql, args, err := q.ToSql()
	if err != nil {
		return types.Zero(), fmt.Errorf("build query: %w", err)
	}

	var total types.Quantity
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Zero(), nil
		}
		return types.Zero(), fmt.Errorf("sum quantity: %w", err)
	}
	return total, nil
}

// CreateRequest records an issue request.
func (r *LedgerRepo) CreateRequest(ctx context.Context, req *ledger.Request) error {
	q := r.builder.Insert(requestsTable).
		Columns("id", "location", "reference", "created_at").
		Values(req.ID, req.Location, req.Reference, req.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}
