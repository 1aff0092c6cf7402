package store

import (
	"database/sql"
	"fmt"
	"time"
)

// RecordRun inserts run and its packages in a single transaction and
// returns the new run ID.
func (s *Store) RecordRun(run *Run, pkgs []*RunPackage) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		INSERT INTO runs (kind, target, started_at, finished_at, total, succeeded, skipped, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.Kind,
		run.Target,
		run.StartedAt.UTC().Format(timeFormat),
		run.FinishedAt.UTC().Format(timeFormat),
		run.Total,
		run.Succeeded,
		run.Skipped,
		run.Failed,
	)
	if err != nil {
		return 0, wrapErr(err, "failed to insert run")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO run_packages (run_id, name, version, file, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, wrapErr(err, "failed to prepare run package insert")
	}
	defer stmt.Close()

	for _, pkg := range pkgs {
		if _, err := stmt.Exec(id, pkg.Name, pkg.Version, pkg.File, pkg.Outcome, pkg.Detail); err != nil {
			return 0, fmt.Errorf("failed to insert run package %s@%s: %w", pkg.Name, pkg.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	run.ID = id
	return id, nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id int64) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, kind, target, started_at, finished_at, total, succeeded, skipped, failed
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d not found", id)
	}
	if err != nil {
		return nil, wrapErr(err, "failed to get run %d", id)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. kind filters by run kind
// when non-empty; limit <= 0 returns all runs.
func (s *Store) ListRuns(kind string, limit int) ([]*Run, error) {
	query := `
		SELECT id, kind, target, started_at, finished_at, total, succeeded, skipped, failed
		FROM runs
		WHERE (? = '' OR kind = ?)
		ORDER BY id DESC
	`
	args := []any{kind, kind}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, wrapErr(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRunPackages returns the packages recorded for a run.
func (s *Store) GetRunPackages(runID int64) ([]*RunPackage, error) {
	rows, err := s.db.Query(`
		SELECT run_id, name, version, file, outcome, detail
		FROM run_packages
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, wrapErr(err, "failed to get packages for run %d", runID)
	}
	defer rows.Close()

	var pkgs []*RunPackage
	for rows.Next() {
		var pkg RunPackage
		var file, detail sql.NullString
		if err := rows.Scan(&pkg.RunID, &pkg.Name, &pkg.Version, &file, &pkg.Outcome, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan run package: %w", err)
		}
		pkg.File = file.String
		pkg.Detail = detail.String
		pkgs = append(pkgs, &pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run packages: %w", err)
	}

	return pkgs, nil
}

// DeleteRunsBefore removes runs that started before cutoff and returns how
// many were deleted. Their packages go with them.
func (s *Store) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM runs WHERE started_at < ?", cutoff.UTC().Format(timeFormat))
	if err != nil {
		return 0, wrapErr(err, "failed to delete old runs")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted runs: %w", err)
	}
	return n, nil
}

// timeFormat is fixed width so stored timestamps compare correctly as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var target sql.NullString
	var startedAt, finishedAt string

	if err := row.Scan(
		&run.ID,
		&run.Kind,
		&target,
		&startedAt,
		&finishedAt,
		&run.Total,
		&run.Succeeded,
		&run.Skipped,
		&run.Failed,
	); err != nil {
		return nil, err
	}

	run.Target = target.String

	var err error
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse started_at for run %d: %w", run.ID, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finishedAt); err != nil {
		return nil, fmt.Errorf("failed to parse finished_at for run %d: %w", run.ID, err)
	}
	return &run, nil
}
