package db

import (
	"context"
	"database/sql"
	"time"
)

// Store is the harvest-run audit log: one row per attempted harvest
// so operators can see what was pulled when, and why a pull failed.
type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) (Store, error) {
	_, err := database.Exec(Schema)
	if err != nil {
		return Store{}, err
	}
	return Store{db: database}, nil
}

type Run struct {
	Kind     string
	Total    int
	Duration time.Duration
	Error    string
	Time     time.Time
}

func (s Store) RecordRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO harvest_runs (kind, total, duration_ms, error, time)
		 VALUES (?, ?, ?, ?, ?)`,
		run.Kind,
		run.Total,
		run.Duration.Milliseconds(),
		run.Error,
		run.Time.Unix(),
	)
	return err
}

func (s Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT kind, total, duration_ms, error, time
		 FROM harvest_runs
		 ORDER BY time DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var durationMs int64
		var unix int64
		err := rows.Scan(&run.Kind, &run.Total, &durationMs, &run.Error, &unix)
		if err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		run.Time = time.Unix(unix, 0)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
