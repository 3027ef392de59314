package maintenance

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// Report summarizes a repair pass.
type Report struct {
	Scanned    int
	Normalized int
	Cleared    int
	DryRun     bool
}

// Changed returns the number of rows rewritten (or that would be).
func (r Report) Changed() int { return r.Normalized + r.Cleared }

// Repairer rewrites stored expirations into the canonical UTC form and
// nulls the ones that cannot be parsed.
type Repairer struct {
	store  store.ExpirationRepairer
	cache  store.Cache
	logger logger.Logger
}

// NewRepairer creates a repairer. cache may be nil.
func NewRepairer(st store.ExpirationRepairer, cache store.Cache, log logger.Logger) *Repairer {
	if log == nil {
		log = logger.NewNop()
	}
	return &Repairer{
		store:  st,
		cache:  cache,
		logger: log,
	}
}

type pendingFix struct {
	row    store.ExpirationRow
	result domain.RepairResult
}

// Run scans every non-null expiration and fixes the malformed ones. With
// dryRun set nothing is written. Running it twice is a no-op the second time.
func (r *Repairer) Run(ctx context.Context, dryRun bool) (Report, error) {
	r.logger.Info("running expiration repair", logger.Bool("dry_run", dryRun))

	report := Report{DryRun: dryRun}
	var fixes []pendingFix

	err := r.store.ScanExpirations(ctx, func(row store.ExpirationRow) error {
		report.Scanned++
		res := domain.RepairExpiration(row.ExpiresAt)
		if res.Action != domain.RepairNone {
			fixes = append(fixes, pendingFix{row: row, result: res})
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("failed to scan expirations: %w", err)
	}

	for _, fix := range fixes {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if !dryRun {
			if err := r.store.SetExpiration(ctx, fix.row.ID, fix.result.Value); err != nil {
				return report, fmt.Errorf("failed to update link %d: %w", fix.row.ID, err)
			}
			r.invalidate(ctx, fix.row.ShortID)
		}

		switch fix.result.Action {
		case domain.RepairNormalize:
			report.Normalized++
			r.logger.Info("normalized expiration",
				logger.Int64("id", fix.row.ID),
				logger.String("short_id", fix.row.ShortID),
				logger.String("from", fix.row.ExpiresAt),
				logger.String("to", *fix.result.Value),
				logger.Bool("dry_run", dryRun))
		case domain.RepairClear:
			report.Cleared++
			r.logger.Warn("cleared unparseable expiration",
				logger.Int64("id", fix.row.ID),
				logger.String("short_id", fix.row.ShortID),
				logger.String("from", fix.row.ExpiresAt),
				logger.Bool("dry_run", dryRun))
		}
	}

	if report.Changed() > 0 {
		r.logger.Info("expiration repair completed",
			logger.Int("scanned", report.Scanned),
			logger.Int("normalized", report.Normalized),
			logger.Int("cleared", report.Cleared),
			logger.Bool("dry_run", dryRun))
	} else {
		r.logger.Info("no expirations to repair", logger.Int("scanned", report.Scanned))
	}

	return report, nil
}

func (r *Repairer) invalidate(ctx context.Context, shortID string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Invalidate(ctx, shortID); err != nil {
		r.logger.Warn("failed to invalidate cached link",
			logger.String("short_id", shortID),
			logger.Error(err))
	}
}
