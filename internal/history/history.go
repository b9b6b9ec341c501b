package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"alltube/internal/logging"
	"alltube/internal/metrics"
)

const defaultTimeout = 5 * time.Second

// Entry is one recorded download.
type Entry struct {
	ID        int64     `json:"id"`
	PageURL   string    `json:"page_url"`
	Title     string    `json:"title"`
	Format    string    `json:"format"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is a SQLite-backed download history.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path. The parent
// directory must already exist and be writable.
func Open(ctx context.Context, path string) (*Store, error) {
	// WAL mode keeps readers unblocked during writes; busy_timeout avoids
	// "database is locked" errors under concurrent requests.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to history database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close history database after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	logging.Info("History store ready at %s", path)
	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_url TEXT NOT NULL,
		title TEXT NOT NULL,
		format TEXT NOT NULL,
		kind TEXT NOT NULL,
		created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
	);

	CREATE INDEX IF NOT EXISTS idx_downloads_created_at ON downloads(created_at);
	CREATE INDEX IF NOT EXISTS idx_downloads_page_url ON downloads(page_url);
	`

	initCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(initCtx, schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add records one download. Failures are reported but callers typically log
// and continue: the stream must not fail because bookkeeping did.
func (s *Store) Add(ctx context.Context, e Entry) error {
	addCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := s.db.ExecContext(addCtx,
		`INSERT INTO downloads (page_url, title, format, kind, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.PageURL, e.Title, e.Format, e.Kind, e.CreatedAt.Unix(),
	)
	if err != nil {
		metrics.HistoryWritesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to record download: %w", err)
	}
	metrics.HistoryWritesTotal.WithLabelValues("success").Inc()
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx,
		`SELECT id, page_url, title, format, kind, created_at
		 FROM downloads ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created int64
		if err := rows.Scan(&e.ID, &e.PageURL, &e.Title, &e.Format, &e.Kind, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// HistoryCount reports the number of recorded downloads. It satisfies
// metrics.StatsProvider.
func (s *Store) HistoryCount(ctx context.Context) (int64, error) {
	queryCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(queryCtx, `SELECT COUNT(*) FROM downloads`).Scan(&count)
	return count, err
}
