package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/mentor-regress/internal/model"
)

// sqliteTimeLayout sorts lexically in chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id               TEXT PRIMARY KEY,
	started_at       TEXT NOT NULL,
	finished_at      TEXT NOT NULL,
	total_processed  INTEGER NOT NULL DEFAULT 0,
	total_successful INTEGER NOT NULL DEFAULT 0,
	total_degraded   INTEGER NOT NULL DEFAULT 0,
	high             INTEGER NOT NULL DEFAULT 0,
	medium           INTEGER NOT NULL DEFAULT 0,
	summary          TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the schema.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun implements Store.
func (s *SQLiteStore) SaveRun(ctx context.Context, sum *model.RunSummary) (string, error) {
	if sum.RunID == "" {
		sum.RunID = uuid.NewString()
	}
	summaryJSON, err := json.Marshal(sum)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal summary")
	}

	rec := recordOf(sum)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, total_processed, total_successful, total_degraded, high, medium, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartedAt.Format(sqliteTimeLayout), rec.FinishedAt.Format(sqliteTimeLayout),
		rec.TotalProcessed, rec.TotalSuccessful, rec.TotalDegraded, rec.High, rec.Medium,
		string(summaryJSON),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert run %s", rec.ID)
	}
	return rec.ID, nil
}

// GetRun implements Store.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*model.RunSummary, error) {
	var summaryJSON string
	err := s.db.QueryRowContext(ctx, `SELECT summary FROM runs WHERE id = ?`, id).Scan(&summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", id)
	}

	var sum model.RunSummary
	if err := json.Unmarshal([]byte(summaryJSON), &sum); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	return &sum, nil
}

// ListRuns implements Store.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.RunRecord, error) {
	query := `SELECT id, started_at, finished_at, total_processed, total_successful, total_degraded, high, medium FROM runs WHERE 1=1`
	var args []any

	if filter.DegradedOnly {
		query += ` AND total_degraded > 0`
	}
	if !filter.Since.IsZero() {
		query += ` AND started_at >= ?`
		args = append(args, filter.Since.UTC().Format(sqliteTimeLayout))
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RunRecord
	for rows.Next() {
		var (
			r                 model.RunRecord
			started, finished string
		)
		if err := rows.Scan(&r.ID, &started, &finished, &r.TotalProcessed, &r.TotalSuccessful, &r.TotalDegraded, &r.High, &r.Medium); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if r.StartedAt, err = time.Parse(sqliteTimeLayout, started); err != nil {
			return nil, eris.Wrap(err, "sqlite: parse started_at")
		}
		if r.FinishedAt, err = time.Parse(sqliteTimeLayout, finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: parse finished_at")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}
