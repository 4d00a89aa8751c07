package reportcache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/valuation"
	"stockledger/pkg/logger"
)

type memStore struct {
	snapshots map[id.ID]*StoredSnapshot
}

func newMemStore() *memStore {
	return &memStore{snapshots: make(map[id.ID]*StoredSnapshot)}
}

func (m *memStore) Put(_ context.Context, snapshot *StoredSnapshot) error {
	m.snapshots[snapshot.ID] = snapshot
	return nil
}

func (m *memStore) Get(_ context.Context, snapshotID id.ID) (*StoredSnapshot, error) {
	return m.snapshots[snapshotID], nil
}

func (m *memStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var removed int64
	for key, snapshot := range m.snapshots {
		if snapshot.ExpiresAt.Before(now) {
			delete(m.snapshots, key)
			removed++
		}
	}
	return removed, nil
}

func sampleReport() *valuation.Report {
	report := &valuation.Report{
		Groups: []valuation.CategoryGroup{{
			Category: "Stationery",
			Items: []valuation.Record{{
				ItemName:     "Pens",
				CategoryName: "Stationery",
				ClosingStock: types.NewQuantity(10),
				UnitPrice:    types.MustMoney("2.50"),
				TotalValue:   types.MustMoney("25"),
			}},
			Totals: valuation.NewTotals(),
		}},
		GrandTotals: valuation.NewTotals(),
	}
	report.Groups[0].Totals.Add(report.Groups[0].Items[0])
	report.GrandTotals.Add(report.Groups[0].Items[0])
	return report
}

func sampleMeta() valuation.Meta {
	return valuation.Meta{
		GeneratedBy: "storekeeper",
		GeneratedAt: time.Date(2023, time.June, 1, 10, 0, 0, 0, time.UTC),
		StartDate:   time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2023, time.May, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store, time.Hour, logger.Default())
	require.NoError(t, err)

	snapID, err := svc.Save(context.Background(), "user-1", sampleReport(), sampleMeta())
	require.NoError(t, err)
	require.False(t, id.IsNil(snapID))

	snap, err := svc.Load(context.Background(), snapID, "user-1", false)
	require.NoError(t, err)

	assert.Equal(t, "user-1", snap.UserID)
	assert.Equal(t, "storekeeper", snap.Meta.GeneratedBy)
	require.Len(t, snap.Report.Groups, 1)
	assert.Equal(t, "Stationery", snap.Report.Groups[0].Category)
	assert.True(t, snap.Report.GrandTotals.TotalValue.Equal(types.MustMoney("25")))
}

func TestLoadVisibility(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store, time.Hour, logger.Default())
	require.NoError(t, err)

	snapID, err := svc.Save(context.Background(), "owner", sampleReport(), sampleMeta())
	require.NoError(t, err)

	t.Run("other user sees not found", func(t *testing.T) {
		_, err := svc.Load(context.Background(), snapID, "intruder", false)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("admin sees any snapshot", func(t *testing.T) {
		snap, err := svc.Load(context.Background(), snapID, "admin", true)
		require.NoError(t, err)
		assert.Equal(t, "owner", snap.UserID)
	})
}

func TestLoadMissingSnapshot(t *testing.T) {
	svc, err := NewService(newMemStore(), time.Hour, logger.Default())
	require.NoError(t, err)

	_, err = svc.Load(context.Background(), id.New(), "user-1", false)
	assert.True(t, apperror.IsNotFound(err))
}

func TestExpiredSnapshotNotServed(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store, time.Hour, logger.Default())
	require.NoError(t, err)

	snapID, err := svc.Save(context.Background(), "user-1", sampleReport(), sampleMeta())
	require.NoError(t, err)
	store.snapshots[snapID].ExpiresAt = time.Now().UTC().Add(-time.Minute)

	_, err = svc.Load(context.Background(), snapID, "user-1", false)
	assert.True(t, apperror.IsNotFound(err))

	removed, err := svc.CleanupExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
}

func TestLargePayloadCompressed(t *testing.T) {
	store := newMemStore()
	svc, err := NewService(store, time.Hour, logger.Default())
	require.NoError(t, err)

	report := sampleReport()
	// Inflate past the compression threshold.
	filler := strings.Repeat("very long item description ", 40)
	for i := 0; i < 100; i++ {
		report.Groups[0].Items = append(report.Groups[0].Items, valuation.Record{
			ItemName:     "Filler",
			Description:  filler,
			CategoryName: "Stationery",
		})
	}

	snapID, err := svc.Save(context.Background(), "user-1", report, sampleMeta())
	require.NoError(t, err)

	stored := store.snapshots[snapID]
	assert.Equal(t, CompressionZstd, stored.CompressionAlgo)
	assert.Nil(t, stored.Payload)
	assert.NotEmpty(t, stored.PayloadCompressed)

	snap, err := svc.Load(context.Background(), snapID, "user-1", false)
	require.NoError(t, err)
	assert.Len(t, snap.Report.Groups[0].Items, 101)
}
