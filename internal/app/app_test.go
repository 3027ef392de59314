package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/qrlink/internal/config"
	"github.com/MrSnakeDoc/qrlink/internal/links"
	"github.com/MrSnakeDoc/qrlink/internal/logger"
)

func TestNewWithSQLiteAndRepair(t *testing.T) {
	cfg := config.Default()
	cfg.SQLiteFile = filepath.Join(t.TempDir(), "qrlink.db")
	cfg.CacheDriver = config.CacheMemory

	ctx := context.Background()
	a, err := New(ctx, cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	link, err := a.Links().Create(ctx, "https://example.com", "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	res, err := a.Links().Resolve(ctx, link.ShortID)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Outcome != links.OutcomeRedirect {
		t.Errorf("Outcome = %v, want redirect", res.Outcome)
	}

	report, err := a.Repair(ctx, false)
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if report.Changed() != 0 {
		t.Errorf("Repair() changed %d rows on a clean database", report.Changed())
	}
}

func TestNewWithMemoryStoreNoCache(t *testing.T) {
	cfg := config.Default()
	cfg.StoreDriver = config.StoreMemory
	cfg.CacheDriver = config.CacheNone

	a, err := New(context.Background(), cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	if a.cache != nil {
		t.Error("cache should be disabled")
	}
}
