// Package cache_repo provides the PostgreSQL implementation of the report
// snapshot store.
package cache_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/reportcache"
	"stockledger/internal/infrastructure/storage/postgres"
)

const snapshotsTable = "report_snapshots"

// SnapshotRepo implements reportcache.Store.
type SnapshotRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewSnapshotRepo creates a new snapshot repository.
func NewSnapshotRepo(txManager *postgres.TxManager) *SnapshotRepo {
	return &SnapshotRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Put inserts a snapshot.
func (r *SnapshotRepo) Put(ctx context.Context, snapshot *reportcache.StoredSnapshot) error {
	q := r.builder.Insert(snapshotsTable).
		Columns("id", "user_id", "payload", "payload_compressed", "compression_algo", "created_at", "expires_at").
		Values(snapshot.ID, snapshot.UserID, snapshot.Payload, snapshot.PayloadCompressed,
			snapshot.CompressionAlgo, snapshot.CreatedAt, snapshot.ExpiresAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Get returns a snapshot by id, or nil when absent.
func (r *SnapshotRepo) Get(ctx context.Context, snapshotID id.ID) (*reportcache.StoredSnapshot, error) {
	q := r.builder.Select("id", "user_id", "payload", "payload_compressed", "compression_algo", "created_at", "expires_at").
		From(snapshotsTable).
		Where(squirrel.Eq{"id": snapshotID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var snapshot reportcache.StoredSnapshot
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &snapshot, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snapshot, nil
}

// DeleteExpired removes snapshots past their expiry.
func (r *SnapshotRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	q := r.builder.Delete(snapshotsTable).
		Where(squirrel.Lt{"expires_at": now})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("delete expired snapshots: %w", err)
	}
	return result.RowsAffected(), nil
}
