package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const MemoryDSN = ":memory:"

// DB wraps the SQLite connection pool.
type DB struct {
	*sql.DB
}

// Open connects to SQLite at dsn and applies migrations. A single
// connection is kept so that in-memory databases are shared by every query.
func Open(dsn string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB}
	if _, _, err := RunMigrations(db); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return db, nil
}
