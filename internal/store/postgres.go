package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mentor-regress/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS regression_runs (
	id               TEXT PRIMARY KEY,
	started_at       TIMESTAMPTZ NOT NULL,
	finished_at      TIMESTAMPTZ NOT NULL,
	total_processed  INTEGER NOT NULL DEFAULT 0,
	total_successful INTEGER NOT NULL DEFAULT 0,
	total_degraded   INTEGER NOT NULL DEFAULT 0,
	high             INTEGER NOT NULL DEFAULT 0,
	medium           INTEGER NOT NULL DEFAULT 0,
	summary          JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_regression_runs_started_at ON regression_runs(started_at DESC);
`

// Migrate creates the schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveRun implements Store.
func (s *PostgresStore) SaveRun(ctx context.Context, sum *model.RunSummary) (string, error) {
	if sum.RunID == "" {
		sum.RunID = uuid.NewString()
	}
	summaryJSON, err := json.Marshal(sum)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal summary")
	}

	rec := recordOf(sum)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO regression_runs (id, started_at, finished_at, total_processed, total_successful, total_degraded, high, medium, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.StartedAt, rec.FinishedAt,
		rec.TotalProcessed, rec.TotalSuccessful, rec.TotalDegraded, rec.High, rec.Medium,
		summaryJSON,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert run %s", rec.ID)
	}
	return rec.ID, nil
}

// GetRun implements Store.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.RunSummary, error) {
	var summaryJSON []byte
	err := s.pool.QueryRow(ctx, `SELECT summary FROM regression_runs WHERE id = $1`, id).Scan(&summaryJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", id)
	}

	var sum model.RunSummary
	if err := json.Unmarshal(summaryJSON, &sum); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}
	return &sum, nil
}

// ListRuns implements Store.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT id, started_at, finished_at, total_processed, total_successful, total_degraded, high, medium FROM regression_runs WHERE 1=1`
	var args []any

	if filter.DegradedOnly {
		query += ` AND total_degraded > 0`
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since.UTC())
		query += fmt.Sprintf(` AND started_at >= $%d`, len(args))
	}
	args = append(args, filter.limit())
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT $%d`, len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.TotalProcessed, &r.TotalSuccessful, &r.TotalDegraded, &r.High, &r.Medium); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
