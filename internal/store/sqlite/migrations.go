package sqlite

import "gorm.io/gorm"

// schemaSQL is the links table shared with databases created by earlier
// releases, so it is created with plain DDL rather than AutoMigrate.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS links (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  shortId TEXT NOT NULL UNIQUE,
  originalUrl TEXT NOT NULL,
  expiresAt TEXT,
  createdAt DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
}

func applyMigrations(db *gorm.DB) error {
	return db.Exec(schemaSQL).Error
}

func applyPragmas(db *gorm.DB) {
	for _, p := range pragmas {
		// in-memory databases reject WAL; the other pragmas still apply.
		_ = db.Exec(p).Error
	}
}
