// Package reportcache stores generated report snapshots behind opaque ids so
// the expensive valuation run happens once and later views and exports replay
// the stored result.
package reportcache

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/valuation"
)

// CompressionAlgo specifies the compression applied to a stored payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// Snapshot is a decoded report snapshot as handed back to callers.
type Snapshot struct {
	ID        id.ID            `json:"id"`
	UserID    string           `json:"userId"`
	Report    valuation.Report `json:"report"`
	Meta      valuation.Meta   `json:"meta"`
	CreatedAt time.Time        `json:"createdAt"`
	ExpiresAt time.Time        `json:"expiresAt"`
}

// StoredSnapshot is the persisted form: the report and meta serialized into a
// single payload, compressed when large.
type StoredSnapshot struct {
	ID                id.ID           `db:"id"`
	UserID            string          `db:"user_id"`
	Payload           []byte          `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
	ExpiresAt         time.Time       `db:"expires_at"`
}

// Store defines persistence for report snapshots.
type Store interface {
	// Put inserts a snapshot.
	Put(ctx context.Context, snapshot *StoredSnapshot) error

	// Get returns a snapshot by id, or nil when absent.
	Get(ctx context.Context, snapshotID id.ID) (*StoredSnapshot, error)

	// DeleteExpired removes snapshots past their expiry, returning the count.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
