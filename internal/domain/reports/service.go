// Package reports orchestrates report generation: window resolution, the
// valuation run, and snapshot storage.
package reports

import (
	"context"
	"time"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/catalog"
	"stockledger/internal/domain/period"
	"stockledger/internal/domain/reportcache"
	"stockledger/internal/domain/valuation"
	"stockledger/pkg/logger"
)

// Period selects how the reporting window is specified.
type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodWeekly    Period = "weekly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
)

// Params is a report generation request.
type Params struct {
	Period    Period
	Month     string // "YYYY-MM", monthly
	WeekRange string // "YYYY-MM-DD to YYYY-MM-DD", weekly
	Year      int    // quarterly, yearly
	Quarter   int    // 1-4, quarterly

	CategoryID *id.ID
	ItemID     *id.ID
}

// Generator runs the valuation pipeline over an item set.
type Generator interface {
	GenerateReport(ctx context.Context, filter catalog.ItemFilter, w period.Window) (*valuation.Report, error)
}

// SnapshotCache stores generated reports for later retrieval.
type SnapshotCache interface {
	Save(ctx context.Context, userID string, report *valuation.Report, meta valuation.Meta) (id.ID, error)
	Load(ctx context.Context, snapshotID id.ID, userID string, isAdmin bool) (*reportcache.Snapshot, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

// Service generates inventory valuation reports and serves stored snapshots.
type Service struct {
	generator Generator
	cache     SnapshotCache
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates a reports service.
func NewService(generator Generator, cache SnapshotCache, log *logger.Logger) *Service {
	return &Service{
		generator: generator,
		cache:     cache,
		log:       log.WithComponent("reports"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ResolveWindow turns request params into a validated reporting window.
func (s *Service) ResolveWindow(params Params) (period.Window, error) {
	var (
		w   period.Window
		err error
	)
	switch params.Period {
	case PeriodMonthly, "":
		w, err = period.Monthly(params.Month)
	case PeriodWeekly:
		w, err = period.Weekly(params.WeekRange)
	case PeriodQuarterly:
		w, err = period.Quarterly(params.Year, params.Quarter)
	case PeriodYearly:
		w, err = period.Yearly(params.Year)
	default:
		return period.Window{}, apperror.NewValidation("unknown report period").
			WithDetail("period", string(params.Period))
	}
	if err != nil {
		return period.Window{}, err
	}
	return w.Clamp(s.now())
}

// Generate runs the valuation pipeline for the window and filters, stores the
// result as a snapshot owned by the requesting user, and returns its id.
func (s *Service) Generate(ctx context.Context, params Params) (id.ID, error) {
	w, err := s.ResolveWindow(params)
	if err != nil {
		return id.Nil(), err
	}

	started := s.now()
	report, err := s.generator.GenerateReport(ctx, catalog.ItemFilter{
		CategoryID: params.CategoryID,
		ItemID:     params.ItemID,
	}, w)
	if err != nil {
		return id.Nil(), err
	}

	userID := appctx.GetUserID(ctx)
	meta := valuation.Meta{
		GeneratedBy: generatedBy(ctx),
		GeneratedAt: started,
		StartDate:   w.Start,
		EndDate:     w.End,
	}
	snapshotID, err := s.cache.Save(ctx, userID, report, meta)
	if err != nil {
		return id.Nil(), err
	}

	s.log.WithContext(ctx).Infow("report generated",
		"snapshot_id", snapshotID,
		"start", w.Start.Format("2006-01-02"),
		"end", w.End.Format("2006-01-02"),
		"categories", len(report.Groups),
		"duration_ms", s.now().Sub(started).Milliseconds(),
	)
	return snapshotID, nil
}

// Get returns a stored snapshot, enforcing per-user visibility.
func (s *Service) Get(ctx context.Context, snapshotID id.ID) (*reportcache.Snapshot, error) {
	return s.cache.Load(ctx, snapshotID, appctx.GetUserID(ctx), appctx.IsAdmin(ctx))
}

// PurgeExpired drops snapshots past their expiry, returning the count.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.cache.CleanupExpired(ctx)
}

func generatedBy(ctx context.Context) string {
	user := appctx.GetUser(ctx)
	if user == nil {
		return "system"
	}
	if user.Name != "" {
		return user.Name
	}
	return user.Email
}
