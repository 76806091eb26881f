package sqlite

import (
	"context"
	"fmt"
	"time"

	"pathexplorer/domain/core"
	"pathexplorer/domain/run"
	"pathexplorer/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// runRegistry implements the RunRegistry interface on a local sqlite file,
// recording provenance for every dashboard-generation run.
type runRegistry struct {
	db *sqlx.DB
}

// NewRunRegistry opens (creating if needed) the registry database.
func NewRunRegistry(path string) (ports.RunRegistry, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run registry %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &runRegistry{db: db}, nil
}

func migrate(db *sqlx.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		contrast TEXT NOT NULL,
		seed INTEGER NOT NULL,
		method TEXT NOT NULL,
		stage TEXT NOT NULL,
		status TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		hit_count INTEGER NOT NULL,
		output_path TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to migrate run registry: %w", err)
	}
	return nil
}

// Record persists a finished run.
func (r *runRegistry) Record(ctx context.Context, rn *run.Run) error {
	errMsg := ""
	if rn.Err != nil {
		errMsg = rn.Err.Error()
	}
	query := `INSERT INTO runs (
		id, contrast, seed, method, stage, status, record_count, hit_count,
		output_path, error_message, started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		rn.ID.String(), rn.Contrast, rn.Seed, rn.Method, string(rn.Stage), string(rn.Status),
		rn.RecordCount, rn.HitCount, rn.OutputPath, errMsg, rn.StartedAt, rn.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", rn.ID, err)
	}
	return nil
}

// History returns the most recent runs, newest first.
func (r *runRegistry) History(ctx context.Context, limit int) ([]*run.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, contrast, seed, method, stage, status, record_count,
		hit_count, output_path, error_message, started_at, finished_at
	FROM runs ORDER BY started_at DESC LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run history: %w", err)
	}
	defer rows.Close()

	var runs []*run.Run
	for rows.Next() {
		var rn run.Run
		var id, stage, status, errMsg string
		var startedAt, finishedAt time.Time
		if err := rows.Scan(&id, &rn.Contrast, &rn.Seed, &rn.Method, &stage, &status,
			&rn.RecordCount, &rn.HitCount, &rn.OutputPath, &errMsg, &startedAt, &finishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		rn.ID = core.RunID(id)
		rn.Stage = run.Stage(stage)
		rn.Status = run.Status(status)
		rn.StartedAt = startedAt
		rn.FinishedAt = finishedAt
		if errMsg != "" {
			rn.Err = fmt.Errorf("%s", errMsg)
		}
		runs = append(runs, &rn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run history: %w", err)
	}
	return runs, nil
}

// Close releases the database handle.
func (r *runRegistry) Close() error {
	return r.db.Close()
}
