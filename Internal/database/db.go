package datafeed

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// SignalRecord is one scan row flattened for storage.
type SignalRecord struct {
	RunAt          time.Time
	Symbol         string
	Sector         string
	Rating         string
	ScoreLong      int
	ScoreShort     int
	Close          float64
	RelativeReturn float64
	Flags          []string
	LongLevel      string
	LongShares     sql.NullInt64
	ShortLevel     string
	ShortShares    sql.NullInt64
	Values         map[string]float64
}

type FailureRecord struct {
	RunAt    time.Time
	Symbol   string
	Stage    string
	Reason   string
	Attempts int
}

// PostgresSink mirrors the latest run into scan_rows and scan_failures.
// Each write replaces the previous run's contents.
type PostgresSink struct {
	DB *sql.DB
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS scan_rows (
	run_at TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL PRIMARY KEY,
	sector TEXT NOT NULL,
	rating TEXT NOT NULL,
	score_long INTEGER NOT NULL,
	score_short INTEGER NOT NULL,
	close DOUBLE PRECISION NOT NULL,
	relative_return DOUBLE PRECISION NOT NULL,
	flags TEXT[] NOT NULL,
	long_level TEXT,
	long_shares BIGINT,
	short_level TEXT,
	short_shares BIGINT,
	indicator_values JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS scan_failures (
	run_at TIMESTAMPTZ NOT NULL,
	symbol TEXT NOT NULL,
	stage TEXT NOT NULL,
	reason TEXT NOT NULL,
	attempts INTEGER NOT NULL
);
`

func OpenPostgresSink(ctx context.Context, dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &PostgresSink{DB: db}, nil
}

func (s *PostgresSink) Close() error {
	return s.DB.Close()
}

// ReplaceRun swaps in the new run inside one transaction.
func (s *PostgresSink) ReplaceRun(ctx context.Context, signals []SignalRecord, failures []FailureRecord) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scan_rows"); err != nil {
		return fmt.Errorf("clear scan_rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM scan_failures"); err != nil {
		return fmt.Errorf("clear scan_failures: %w", err)
	}

	signalCols := []string{
		"run_at", "symbol", "sector", "rating", "score_long", "score_short", "close", "relative_return",
		"flags", "long_level", "long_shares", "short_level", "short_shares", "indicator_values",
	}
	err = copyRows(ctx, tx, "scan_rows", signalCols, len(signals), func(i int) ([]interface{}, error) {
		r := signals[i]
		values, err := json.Marshal(r.Values)
		if err != nil {
			return nil, err
		}
		return []interface{}{
			r.RunAt, r.Symbol, r.Sector, r.Rating, r.ScoreLong, r.ScoreShort, r.Close, r.RelativeReturn,
			pq.Array(r.Flags), nullString(r.LongLevel), r.LongShares, nullString(r.ShortLevel), r.ShortShares, string(values),
		}, nil
	})
	if err != nil {
		return err
	}

	failureCols := []string{"run_at", "symbol", "stage", "reason", "attempts"}
	err = copyRows(ctx, tx, "scan_failures", failureCols, len(failures), func(i int) ([]interface{}, error) {
		f := failures[i]
		return []interface{}{f.RunAt, f.Symbol, f.Stage, f.Reason, f.Attempts}, nil
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, cols []string, n int, row func(i int) ([]interface{}, error)) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, cols...))
	if err != nil {
		return fmt.Errorf("prepare copy into %s: %w", table, err)
	}
	for i := 0; i < n; i++ {
		args, err := row(i)
		if err != nil {
			stmt.Close()
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			stmt.Close()
			return fmt.Errorf("copy into %s: %w", table, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flush copy into %s: %w", table, err)
	}
	return stmt.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
