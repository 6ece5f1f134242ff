package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"

	"github.com/i474232898/env-monitor/internal/weather"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS env_readings (
    id          BIGSERIAL PRIMARY KEY,
    observed_at TIMESTAMPTZ NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL,
    document    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS env_readings_observed_at_idx ON env_readings (observed_at DESC);
`

// PostgresStore keeps each reading as a JSONB document next to an indexed
// observation time.
type PostgresStore struct {
	db    *sqlx.DB
	clock clockwork.Clock

	migrated atomic.Bool
}

type readingRow struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Document  []byte    `db:"document"`
}

// NewPostgresStore prepares a connection pool for dsn. database/sql dials
// lazily, so an unreachable server surfaces on Init or on first use.
func NewPostgresStore(dsn string, clock clockwork.Clock) (*PostgresStore, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &PostgresStore{db: db, clock: clock}, nil
}

// Init pings the database and applies the schema. A store whose Init failed
// keeps working and applies the schema on its next call.
func (s *PostgresStore) Init(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		return fmt.Errorf("%w: failed to ping database: %v", weather.ErrPersistenceFailure, err)
	}
	return s.migrate(ctx)
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	if s.migrated.Load() {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("%w: failed to apply schema: %v", weather.ErrPersistenceFailure, err)
	}
	s.migrated.Store(true)
	return nil
}

// Append inserts r as a new row.
func (s *PostgresStore) Append(ctx context.Context, r weather.Reading) error {
	if err := s.migrate(ctx); err != nil {
		return err
	}

	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: encode reading: %v", weather.ErrPersistenceFailure, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO env_readings (observed_at, created_at, document) VALUES ($1, $2, $3)`,
		r.Timestamp.UTC(), s.clock.Now().UTC(), doc,
	)
	if err != nil {
		return fmt.Errorf("%w: insert reading: %v", weather.ErrPersistenceFailure, err)
	}
	return nil
}

// Recent returns up to limit records ordered by observation time, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]weather.Record, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}

	var rows []readingRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, created_at, document FROM env_readings ORDER BY observed_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query readings: %v", weather.ErrPersistenceFailure, err)
	}

	records := make([]weather.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", weather.ErrPersistenceFailure, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func (row readingRow) toRecord() (weather.Record, error) {
	var r weather.Reading
	if err := json.Unmarshal(row.Document, &r); err != nil {
		return weather.Record{}, fmt.Errorf("decode reading %d: %w", row.ID, err)
	}
	return weather.Record{
		ID:        strconv.FormatInt(row.ID, 10),
		Reading:   r,
		CreatedAt: row.CreatedAt.UTC(),
	}, nil
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close(_ context.Context) error {
	return s.db.Close()
}
