package reportcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/valuation"
	"stockledger/pkg/logger"
)

// DefaultTTL is how long a snapshot stays retrievable.
const DefaultTTL = 24 * time.Hour

// compressThreshold is the payload size above which zstd kicks in. Small
// reports are not worth the round-trip.
const compressThreshold = 10 * 1024

// payload is the serialized snapshot body.
type payload struct {
	Report valuation.Report `json:"report"`
	Meta   valuation.Meta   `json:"meta"`
}

// Service saves and loads report snapshots, handling serialization,
// compression, expiry, and per-user visibility.
type Service struct {
	store   Store
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	ttl     time.Duration
	log     *logger.Logger
}

// NewService creates a snapshot service with the given TTL. A zero ttl means
// DefaultTTL.
func NewService(store Store, ttl time.Duration, log *logger.Logger) (*Service, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		store:   store,
		encoder: encoder,
		decoder: decoder,
		ttl:     ttl,
		log:     log.WithComponent("reportcache"),
	}, nil
}

// Save persists a generated report for the user and returns the opaque id the
// caller uses to retrieve it.
func (s *Service) Save(ctx context.Context, userID string, report *valuation.Report, meta valuation.Meta) (id.ID, error) {
	body, err := json.Marshal(payload{Report: *report, Meta: meta})
	if err != nil {
		return id.Nil(), fmt.Errorf("marshal snapshot: %w", err)
	}

	now := time.Now().UTC()
	stored := &StoredSnapshot{
		ID:              id.New(),
		UserID:          userID,
		Payload:         body,
		CompressionAlgo: CompressionNone,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.ttl),
	}
	if len(body) > compressThreshold {
		stored.PayloadCompressed = s.encoder.EncodeAll(body, nil)
		stored.Payload = nil
		stored.CompressionAlgo = CompressionZstd
	}

	if err := s.store.Put(ctx, stored); err != nil {
		return id.Nil(), fmt.Errorf("store snapshot: %w", err)
	}

	s.log.WithContext(ctx).Infow("report snapshot stored",
		"snapshot_id", stored.ID,
		"payload_bytes", len(body),
		"compression", stored.CompressionAlgo,
	)
	return stored.ID, nil
}

// Load retrieves a snapshot. Only the owning user or an admin may see it;
// missing, expired, and foreign snapshots all surface as not found so ids
// leak nothing.
func (s *Service) Load(ctx context.Context, snapshotID id.ID, userID string, isAdmin bool) (*Snapshot, error) {
	stored, err := s.store.Get(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	if stored == nil || time.Now().UTC().After(stored.ExpiresAt) {
		return nil, apperror.NewNotFound("report", snapshotID)
	}
	if stored.UserID != userID && !isAdmin {
		return nil, apperror.NewNotFound("report", snapshotID)
	}

	body := stored.Payload
	if stored.CompressionAlgo == CompressionZstd {
		body, err = s.decoder.DecodeAll(stored.PayloadCompressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	return &Snapshot{
		ID:        stored.ID,
		UserID:    stored.UserID,
		Report:    p.Report,
		Meta:      p.Meta,
		CreatedAt: stored.CreatedAt,
		ExpiresAt: stored.ExpiresAt,
	}, nil
}

// CleanupExpired drops snapshots past their expiry.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := s.store.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired snapshots: %w", err)
	}
	if removed > 0 {
		s.log.WithContext(ctx).Infow("expired report snapshots removed", "count", removed)
	}
	return removed, nil
}
