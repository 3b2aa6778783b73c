// Package storage is the live store: it reconciles normalized session views
// into SQLite once per poll tick and exposes the read queries consumed by
// the API layer. All tick mutations happen inside a single transaction, so
// concurrent readers see either the pre-tick or the post-tick state.
package storage

import (
	"database/sql"
	"time"

	_ "modernc.org/sqlite" // Driver sqlite
)

// PlaceholderImage is served for a level when the enrichment catalog has no
// richer image for the (mod, map) pair yet.
const PlaceholderImage = "/img/level-placeholder.png"

// Repository manages the SQLite database connection and the staleness grace
// window applied during reconciliation.
type Repository struct {
	db    *sql.DB
	grace time.Duration
}

// New initializes a new SQLite connection, sets connection pool parameters,
// and runs migrations. grace is how long a session may go unreported before
// the reconciliation pass marks it ended.
func New(dbPath string, grace time.Duration) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db, grace: grace}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}
