package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"archivist/internal/config"
)

// Ledger manages run history backed by SQLite.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database at cfg.LedgerPath().
func Open(cfg *config.Config) (*Ledger, error) {
	if cfg == nil {
		return nil, errors.New("ledger: config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.LedgerPath())
}

// OpenPath opens the ledger stored at dbPath.
func OpenPath(dbPath string) (*Ledger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	ledger := &Ledger{db: db, path: dbPath}
	if err := ledger.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// Path returns the database file location.
func (l *Ledger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// StartRun inserts a running row for a new batch invocation.
func (l *Ledger) StartRun(ctx context.Context, run Run) (*Run, error) {
	if strings.TrimSpace(run.ID) == "" {
		return nil, errors.New("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Attempt <= 0 {
		run.Attempt = 1
	}
	run.Status = RunRunning

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, media_type, attempt, dry_run, status, total, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.InputPath,
		run.MediaType,
		run.Attempt,
		boolToInt(run.DryRun),
		run.Status,
		run.Total,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &run, nil
}

// RecordOutcome appends the terminal state of one record.
func (l *Ledger) RecordOutcome(ctx context.Context, outcome Outcome) error {
	if strings.TrimSpace(outcome.RunID) == "" {
		return errors.New("outcome run id is required")
	}
	if outcome.RecordedAt.IsZero() {
		outcome.RecordedAt = time.Now().UTC()
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO outcomes (
            run_id, row_number, asset_id, identifier, state, error_kind, error_message,
            details_url, files, bytes, status_code, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.RunID,
		outcome.Row,
		nullableString(outcome.AssetID),
		nullableString(outcome.Identifier),
		outcome.State,
		nullableString(outcome.ErrorKind),
		nullableString(outcome.Error),
		nullableString(outcome.DetailsURL),
		outcome.Files,
		outcome.Bytes,
		outcome.StatusCode,
		formatTime(outcome.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert outcome: %w", err)
	}
	return nil
}

// FinishRun stamps the totals and terminal status of a run. A non-nil runErr
// marks the run aborted.
func (l *Ledger) FinishRun(ctx context.Context, id string, totals Totals, retryPath string, runErr error) error {
	status := RunCompleted
	message := ""
	if runErr != nil {
		status = RunAborted
		message = runErr.Error()
	}
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, total = ?, succeeded = ?, failed = ?, skipped = ?,
            retry_path = ?, error_message = ?, finished_at = ?
         WHERE id = ?`,
		status,
		totals.Total,
		totals.Succeeded,
		totals.Failed,
		totals.Skipped,
		nullableString(retryPath),
		nullableString(message),
		formatTime(time.Now().UTC()),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("finish run: run %s not found", id)
	}
	return nil
}

// SupersedeRetry records that run id removed the stale retry artifact at path.
func (l *Ledger) SupersedeRetry(ctx context.Context, id, path string) error {
	res, err := l.db.ExecContext(ctx, "UPDATE runs SET retry_superseded = ? WHERE id = ?", nullableString(path), id)
	if err != nil {
		return fmt.Errorf("supersede retry: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("supersede retry: run %s not found", id)
	}
	return nil
}

// GetRun fetches a run by id. A missing run returns (nil, nil).
func (l *Ledger) GetRun(ctx context.Context, id string) (*Run, error) {
	row := l.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// FindRun resolves a run by full id or unique id prefix, the way operators
// paste the short ids shown by the history table.
func (l *Ledger) FindRun(ctx context.Context, idOrPrefix string) (*Run, error) {
	idOrPrefix = strings.TrimSpace(idOrPrefix)
	if idOrPrefix == "" {
		return nil, errors.New("run id is required")
	}
	if run, err := l.GetRun(ctx, idOrPrefix); err != nil || run != nil {
		return run, err
	}
	rows, err := l.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 2",
		stripLikeWildcards(idOrPrefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("find run: %w", err)
	}
	defer rows.Close()
	runs, err := collectRuns(rows)
	if err != nil {
		return nil, err
	}
	switch len(runs) {
	case 0:
		return nil, nil
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", idOrPrefix)
	}
}

// ListRuns returns the most recent runs first. A non-positive limit returns
// every run.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()
	return collectRuns(rows)
}

// Outcomes lists the outcomes of a run in input order.
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := l.db.QueryContext(ctx,
		"SELECT "+outcomeColumns+" FROM outcomes WHERE run_id = ? ORDER BY row_number", runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		outcome, err := scanOutcome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcomes = append(outcomes, *outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// Uploaded reports the most recent successful outcome for identifier, or nil
// when the identifier has never been uploaded.
func (l *Ledger) Uploaded(ctx context.Context, identifier string) (*Outcome, error) {
	row := l.db.QueryRowContext(ctx,
		"SELECT "+outcomeColumns+" FROM outcomes WHERE identifier = ? AND state = ? ORDER BY recorded_at DESC LIMIT 1",
		identifier, StateSucceeded)
	outcome, err := scanOutcome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup uploaded identifier: %w", err)
	}
	return outcome, nil
}

func collectRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}
