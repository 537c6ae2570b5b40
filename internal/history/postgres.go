package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/piwi3910/LotiSmart/internal/model"
)

const createRunsTable = `CREATE TABLE IF NOT EXISTS lot_runs (
	id        TEXT PRIMARY KEY,
	ts        TIMESTAMPTZ NOT NULL,
	source    TEXT NOT NULL,
	min_area  DOUBLE PRECISION NOT NULL,
	lot_count INTEGER NOT NULL,
	seq       BIGSERIAL
)`

// PostgresLog stores records in the lot_runs table.
type PostgresLog struct {
	db *sql.DB
}

// AttachDB wraps an existing connection pool. Call EnsureSchema before use.
func AttachDB(db *sql.DB) *PostgresLog { return &PostgresLog{db: db} }

// OpenPostgres connects with dsn and creates the table when missing.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresLog, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres history needs a DSN")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	l := &PostgresLog{db: db}
	if err := l.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// EnsureSchema creates the lot_runs table if it does not exist.
func (l *PostgresLog) EnsureSchema(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, createRunsTable); err != nil {
		return fmt.Errorf("failed to create lot_runs: %w", err)
	}
	return nil
}

func (l *PostgresLog) Append(ctx context.Context, rec model.RunRecord) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT INTO lot_runs (id, ts, source, min_area, lot_count) VALUES ($1, $2, $3, $4, $5)",
		rec.ID, rec.Timestamp, rec.Source, rec.MinArea, rec.LotCount)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", rec.ID, err)
	}
	return nil
}

func (l *PostgresLog) List(ctx context.Context) ([]model.RunRecord, error) {
	rows, err := l.db.QueryContext(ctx, "SELECT id, ts, source, min_area, lot_count FROM lot_runs ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var records []model.RunRecord
	for rows.Next() {
		var rec model.RunRecord
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &rec.Source, &rec.MinArea, &rec.LotCount); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (l *PostgresLog) Close() error { return l.db.Close() }
