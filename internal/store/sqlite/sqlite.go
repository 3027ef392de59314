package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MrSnakeDoc/qrlink/internal/domain"
	"github.com/MrSnakeDoc/qrlink/internal/store"
)

// scanBatchSize bounds memory use of the maintenance scan.
const scanBatchSize = 500

// linkRow maps the links table.
type linkRow struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ShortID     string    `gorm:"column:shortId"`
	OriginalURL string    `gorm:"column:originalUrl"`
	ExpiresAt   *string   `gorm:"column:expiresAt"`
	CreatedAt   time.Time `gorm:"column:createdAt;autoCreateTime"`
}

func (linkRow) TableName() string { return "links" }

func (r *linkRow) toDomain() *domain.Link {
	return &domain.Link{
		ID:          r.ID,
		ShortID:     r.ShortID,
		OriginalURL: r.OriginalURL,
		ExpiresAt:   r.ExpiresAt,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

// Store implements store.Store on SQLite through gorm.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database file at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	// SQLite allows a single writer; one connection also keeps :memory: alive.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	applyPragmas(db)

	if err := applyMigrations(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Create inserts a link. A unique violation on shortId maps to
// store.ErrDuplicateShortID.
func (s *Store) Create(ctx context.Context, shortID, originalURL string, expiresAt *string) (*domain.Link, error) {
	row := &linkRow{
		ShortID:     shortID,
		OriginalURL: originalURL,
		ExpiresAt:   expiresAt,
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateShortID
		}
		return nil, fmt.Errorf("failed to insert link: %w", err)
	}

	return row.toDomain(), nil
}

// FindByShortID loads a link by its short ID.
func (s *Store) FindByShortID(ctx context.Context, shortID string) (*domain.Link, error) {
	var row linkRow
	err := s.db.WithContext(ctx).Where("shortId = ?", shortID).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return row.toDomain(), nil
}

// ScanExpirations visits every row with a non-null expiresAt in batches
// ordered by id.
func (s *Store) ScanExpirations(ctx context.Context, fn func(store.ExpirationRow) error) error {
	var batch []linkRow
	res := s.db.WithContext(ctx).
		Model(&linkRow{}).
		Select("id", "shortId", "expiresAt").
		Where("expiresAt IS NOT NULL").
		FindInBatches(&batch, scanBatchSize, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				row := store.ExpirationRow{ID: batch[i].ID, ShortID: batch[i].ShortID}
				if batch[i].ExpiresAt != nil {
					row.ExpiresAt = *batch[i].ExpiresAt
				}
				if err := fn(row); err != nil {
					return err
				}
			}
			return nil
		})
	if res.Error != nil {
		return fmt.Errorf("failed to scan expirations: %w", res.Error)
	}
	return nil
}

// SetExpiration overwrites expiresAt; nil stores NULL.
func (s *Store) SetExpiration(ctx context.Context, id int64, expiresAt *string) error {
	var value interface{}
	if expiresAt != nil {
		value = *expiresAt
	}

	res := s.db.WithContext(ctx).
		Model(&linkRow{}).
		Where("id = ?", id).
		Update("expiresAt", value)
	if res.Error != nil {
		return fmt.Errorf("failed to update expiresAt for id=%d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation detects duplicate keys. Not every driver version
// translates errors, so the SQLite message is checked as well.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ store.Store              = (*Store)(nil)
	_ store.ExpirationRepairer = (*Store)(nil)
)
