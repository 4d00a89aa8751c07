// Package ledger provides the append-only inventory movement log.
// Entries are immutable once written: the ledger, replayed in order, is the
// only trusted source for an item's quantity history.
package ledger

import (
	"context"
	"time"

	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
)

// Kind classifies a ledger entry. The set is closed: valuation replay
// switches exhaustively over these values.
type Kind string

const (
	// KindInitial records stock present when an item enters the system.
	KindInitial Kind = "initial"
	// KindPurchase records stock bought in.
	KindPurchase Kind = "purchase"
	// KindIssue records stock handed out (quantity is negative).
	KindIssue Kind = "issue"
	// KindPriceUpdate re-prices existing stock without a quantity change.
	KindPriceUpdate Kind = "price_update"
	// KindAdjustment records a signed correction (stocktake, damage, loss).
	KindAdjustment Kind = "adjustment"
)

// Valid reports whether k is one of the closed set of entry kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindInitial, KindPurchase, KindIssue, KindPriceUpdate, KindAdjustment:
		return true
	}
	return false
}

// RequiresPrice reports whether entries of this kind must carry a unit price.
func (k Kind) RequiresPrice() bool {
	switch k {
	case KindInitial, KindPurchase, KindPriceUpdate:
		return true
	}
	return false
}

// Issue locations resolved from the originating request.
const (
	LocationHeadquarters = "Headquarters"
	LocationJabi         = "Jabi"
)

// Entry is one immutable, timestamped quantity/price movement for an item.
//
// Seq is a monotonically increasing insertion sequence assigned by storage.
// It breaks ties between entries sharing a timestamp so that replay is fully
// deterministic.
type Entry struct {
	ID        id.ID          `db:"id" json:"id"`
	Seq       int64          `db:"seq" json:"seq"`
	ItemID    id.ID          `db:"item_id" json:"itemId"`
	Kind      Kind           `db:"kind" json:"kind"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
	UnitPrice *types.Money   `db:"unit_price" json:"unitPrice,omitempty"`

	// RequestID links an issue back to the request it fulfilled. Only used to
	// resolve Location.
	RequestID *id.ID `db:"request_id" json:"requestId,omitempty"`

	// Location is the issue destination resolved from the originating request,
	// empty when the entry has no request or the request carries no location.
	Location string `db:"location" json:"location,omitempty"`

	Note       string    `db:"note" json:"note,omitempty"`
	OccurredAt time.Time `db:"occurred_at" json:"occurredAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// PriceOrZero returns the entry's unit price, or zero when absent.
func (e Entry) PriceOrZero() types.Money {
	if e.UnitPrice == nil {
		return types.Zero()
	}
	return *e.UnitPrice
}

// Repository defines storage operations for the ledger.
type Repository interface {
	// Append inserts a new entry and assigns its Seq.
	Append(ctx context.Context, entry *Entry) error

	// FetchEntries returns every entry for an item with occurred_at <= upTo,
	// ordered by (occurred_at, seq) ascending, with Location resolved from the
	// originating request where present.
	FetchEntries(ctx context.Context, itemID id.ID, upTo time.Time) ([]Entry, error)

	// FetchHistory returns entries for an item, newest first, for browsing.
	FetchHistory(ctx context.Context, itemID id.ID, limit, offset int) ([]Entry, error)

	// DeleteByItemAndKind removes entries of one kind for an item. Used only by
	// the reprocessing utility; the ledger is otherwise append-only.
	DeleteByItemAndKind(ctx context.Context, itemID id.ID, kind Kind) (int64, error)

	// SumQuantity returns the signed quantity sum over all entries for an item.
	SumQuantity(ctx context.Context, itemID id.ID) (types.Quantity, error)

	// CreateRequest records an issue request carrying a location.
	CreateRequest(ctx context.Context, req *Request) error
}

// Request is the originating document for an issue entry. Only the location
// matters to valuation; everything else is bookkeeping.
type Request struct {
	ID        id.ID     `db:"id" json:"id"`
	Location  string    `db:"location" json:"location"`
	Reference string    `db:"reference" json:"reference"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
