package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/pricecache/internal/model"
)

// Schema creates the table used by PostgresStore.
const Schema = `
CREATE TABLE IF NOT EXISTS price_samples (
	series_key     TEXT             NOT NULL,
	interval_start TIMESTAMPTZ      NOT NULL,
	interval_end   TIMESTAMPTZ      NOT NULL,
	location       TEXT             NOT NULL,
	location_type  TEXT             NOT NULL DEFAULT '',
	market         TEXT             NOT NULL DEFAULT '',
	price          DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (series_key, interval_start)
)`

const (
	selectSamplesSQL = `
		SELECT interval_start, interval_end, location, location_type, market, price
		FROM price_samples
		WHERE series_key = $1
		ORDER BY interval_start`

	deleteSamplesSQL = `DELETE FROM price_samples WHERE series_key = $1`

	insertSampleSQL = `
		INSERT INTO price_samples (series_key, interval_start, interval_end, location, location_type, market, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

// PgxConn is the subset of *pgxpool.Pool used by PostgresStore.
type PgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PostgresStore keeps series as rows of price_samples keyed by series and interval start.
type PostgresStore struct {
	db     PgxConn
	logger *slog.Logger
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(db PgxConn, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates price_samples if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create price_samples: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Load returns the rows for key ordered by interval start.
func (s *PostgresStore) Load(ctx context.Context, key model.SeriesKey) (*model.Series, error) {
	rows, err := s.db.Query(ctx, selectSamplesSQL, key.String())
	if err != nil {
		return nil, loadError(key, err)
	}
	defer rows.Close()

	series := model.NewSeries(key)
	for rows.Next() {
		var (
			smp   model.Sample
			price float64
		)
		if err := rows.Scan(&smp.IntervalStart, &smp.IntervalEnd, &smp.Location, &smp.LocationType, &smp.Market, &price); err != nil {
			return nil, loadError(key, fmt.Errorf("scan: %w", err))
		}
		smp.Value = model.Value(price)
		series.Samples = append(series.Samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, loadError(key, err)
	}

	series.Normalize()
	return series, nil
}

// Save replaces every row for the series inside one transaction.
func (s *PostgresStore) Save(ctx context.Context, series *model.Series) (err error) {
	key := series.Key
	start := time.Now()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return saveError(key, fmt.Errorf("begin: %w", err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, deleteSamplesSQL, key.String()); err != nil {
		return saveError(key, fmt.Errorf("delete: %w", err))
	}

	batch := insertBatch(series)
	if batch.Len() > 0 {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err = results.Exec(); err != nil {
				results.Close()
				return saveError(key, fmt.Errorf("insert: %w", err))
			}
		}
		if err = results.Close(); err != nil {
			return saveError(key, fmt.Errorf("insert: %w", err))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return saveError(key, fmt.Errorf("commit: %w", err))
	}

	s.logger.Debug("saved series",
		"key", key.String(),
		"rows", batch.Len(),
		"duration", time.Since(start),
	)
	return nil
}

// insertBatch queues one insert per present sample.
func insertBatch(series *model.Series) *pgx.Batch {
	batch := &pgx.Batch{}
	k := series.Key.String()
	for _, smp := range series.Samples {
		if !smp.Present() {
			continue
		}
		batch.Queue(insertSampleSQL,
			k, smp.IntervalStart.UTC(), smp.IntervalEnd.UTC(),
			smp.Location, smp.LocationType, smp.Market, *smp.Value,
		)
	}
	return batch
}
