package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/beamline-core/internal/factory"
	"github.com/nerrad567/beamline-core/internal/health"
)

const (
	defaultListLimit = 20
	maxListLimit     = 500

	// timeLayout sorts lexically in time order.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// Run is one stored connection run.
type Run struct {
	ID        uuid.UUID     `json:"id"`
	Beamline  string        `json:"beamline"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Mock      bool          `json:"mock"`
	Connected int           `json:"connected"`
	Failed    int           `json:"failed"`
}

// DeviceFailure is one failure of a device, with the run it happened in.
type DeviceFailure struct {
	RunID     uuid.UUID    `json:"run_id"`
	StartedAt time.Time    `json:"started_at"`
	Kind      factory.Kind `json:"kind"`
	Message   string       `json:"message"`
}

// Repository stores and queries connection runs.
type Repository interface {
	// RecordRun stores r and its failures atomically.
	RecordRun(ctx context.Context, r *health.Report) error

	// ListRuns returns the latest runs for beamline, newest first.
	// An empty beamline lists every beamline.
	ListRuns(ctx context.Context, beamline string, limit int) ([]Run, error)

	// Failures returns the failures recorded for a run in device order.
	// Returns ErrRunNotFound for unknown runs.
	Failures(ctx context.Context, runID uuid.UUID) ([]health.Failure, error)

	// DeviceFailures returns the latest failures of one device on one
	// beamline, newest first.
	DeviceFailures(ctx context.Context, beamline, device string, limit int) ([]DeviceFailure, error)

	// Prune deletes runs older than olderThan and returns how many went.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository over an open, migrated
// database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// RecordRun stores r and its failures in one transaction.
func (r *SQLiteRepository) RecordRun(ctx context.Context, rep *health.Report) error {
	if rep == nil {
		return ErrNilReport
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	_, err = tx.ExecContext(ctx,
		`INSERT INTO connect_runs (id, beamline, started_at, duration_ms, mock, connected, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID.String(),
		rep.Beamline,
		formatTime(rep.StartedAt),
		rep.Duration.Milliseconds(),
		boolToInt(rep.Mock),
		len(rep.Connected),
		len(rep.Failures),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	for _, f := range rep.Failures {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO connect_failures (run_id, device, kind, message) VALUES (?, ?, ?, ?)",
			rep.RunID.String(),
			f.Device,
			string(f.Kind),
			f.Error,
		)
		if err != nil {
			return fmt.Errorf("inserting failure of %s: %w", f.Device, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// ListRuns returns the latest runs, newest first.
func (r *SQLiteRepository) ListRuns(ctx context.Context, beamline string, limit int) ([]Run, error) {
	limit = clampLimit(limit)

	query := `SELECT id, beamline, started_at, duration_ms, mock, connected, failed
		FROM connect_runs`
	args := []any{}
	if beamline != "" {
		query += " WHERE beamline = ?"
		args = append(args, beamline)
	}
	query += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, limit)
	for rows.Next() {
		var (
			run              Run
			id, started      string
			durationMS, mock int64
		)
		if err := rows.Scan(&id, &run.Beamline, &started, &durationMS, &mock, &run.Connected, &run.Failed); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing run id %q: %w", id, err)
		}
		if run.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Mock = mock != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// Failures returns the failures recorded for runID.
func (r *SQLiteRepository) Failures(ctx context.Context, runID uuid.UUID) ([]health.Failure, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM connect_runs WHERE id = ?", runID.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up run: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT device, kind, message FROM connect_failures
		 WHERE run_id = ? ORDER BY rowid`,
		runID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	defer rows.Close()

	out := []health.Failure{}
	for rows.Next() {
		var f health.Failure
		var kind string
		if err := rows.Scan(&f.Device, &kind, &f.Error); err != nil {
			return nil, fmt.Errorf("scanning failure: %w", err)
		}
		f.Kind = factory.Kind(kind)
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating failures: %w", err)
	}
	return out, nil
}

// DeviceFailures returns the latest failures of one device.
func (r *SQLiteRepository) DeviceFailures(ctx context.Context, beamline, device string, limit int) ([]DeviceFailure, error) {
	if device == "" {
		return nil, fmt.Errorf("device name is required")
	}
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT f.run_id, r.started_at, f.kind, f.message
		 FROM connect_failures f
		 JOIN connect_runs r ON r.id = f.run_id
		 WHERE r.beamline = ? AND f.device = ?
		 ORDER BY r.started_at DESC
		 LIMIT ?`,
		beamline, device, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying device failures: %w", err)
	}
	defer rows.Close()

	out := []DeviceFailure{}
	for rows.Next() {
		var (
			df                DeviceFailure
			id, started, kind string
		)
		if err := rows.Scan(&id, &started, &kind, &df.Message); err != nil {
			return nil, fmt.Errorf("scanning device failure: %w", err)
		}
		if df.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing run id %q: %w", id, err)
		}
		if df.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		df.Kind = factory.Kind(kind)
		out = append(out, df)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating device failures: %w", err)
	}
	return out, nil
}

// Prune deletes runs started more than olderThan ago. Their failures go
// with them.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("olderThan must be positive")
	}

	cutoff := formatTime(r.now().Add(-olderThan))
	result, err := r.db.ExecContext(ctx, "DELETE FROM connect_runs WHERE started_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting runs: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing started_at %q: %w", value, err)
	}
	return t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
