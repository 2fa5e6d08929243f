// Package watermark determines the incremental cutoff for a pipeline run by
// querying the persisted staging store for the newest previously loaded date.
// A missing value is a valid cold-start answer; an unreachable store is fatal
// for the run and propagates so the orchestrator can retry the whole pipeline.
package watermark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store answers the single watermark query. It is an interface so the
// pipeline can be exercised without a live Postgres instance.
type Store interface {
	// MaxDateKey returns the newest loaded date and ok=false on cold start.
	MaxDateKey(ctx context.Context) (time.Time, bool, error)
}

// Tracker wraps a Store with logging
type Tracker struct {
	store  Store
	logger *slog.Logger
}

// NewTracker creates a watermark tracker over the given store
func NewTracker(store Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, logger: logger}
}

// Latest returns the incremental cutoff date. ok=false means no prior state
// exists and callers must process the entire available history.
func (t *Tracker) Latest(ctx context.Context) (time.Time, bool, error) {
	latest, ok, err := t.store.MaxDateKey(ctx)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("fetch watermark: %w", err)
	}

	if !ok {
		t.logger.InfoContext(ctx, "no previously processed date found, starting fresh")
		return time.Time{}, false, nil
	}

	t.logger.InfoContext(ctx, "last processed date resolved",
		slog.String("date", latest.Format("2006-01-02")))
	return latest, true, nil
}

// PostgresStore queries the staging fact table for the newest date key
type PostgresStore struct {
	pool  *pgxpool.Pool
	table string
}

// NewPostgresStore creates a store over an established pool. The table name
// comes from configuration and is validated there.
func NewPostgresStore(pool *pgxpool.Pool, table string) *PostgresStore {
	return &PostgresStore{pool: pool, table: table}
}

// MaxDateKey implements Store
func (s *PostgresStore) MaxDateKey(ctx context.Context) (time.Time, bool, error) {
	var latest *time.Time
	query := fmt.Sprintf("SELECT MAX(date_key) FROM %s", s.table)

	if err := s.pool.QueryRow(ctx, query).Scan(&latest); err != nil {
		return time.Time{}, false, fmt.Errorf("query %s: %w", s.table, err)
	}

	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}
