package ledger

import (
	"database/sql"
	"errors"
	"strings"
	"time"
)

const runColumns = "id, input_path, media_type, attempt, dry_run, status, total, succeeded, failed, skipped, retry_path, retry_superseded, error_message, started_at, finished_at"

const outcomeColumns = "run_id, row_number, asset_id, identifier, state, error_kind, error_message, details_url, files, bytes, status_code, recorded_at"

type scanner interface{ Scan(dest ...any) error }

func scanRun(s scanner) (*Run, error) {
	var (
		run         Run
		dryRun      int
		status      string
		retryPath   sql.NullString
		superseded  sql.NullString
		errorMsg    sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := s.Scan(
		&run.ID,
		&run.InputPath,
		&run.MediaType,
		&run.Attempt,
		&dryRun,
		&status,
		&run.Total,
		&run.Succeeded,
		&run.Failed,
		&run.Skipped,
		&retryPath,
		&superseded,
		&errorMsg,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	run.DryRun = dryRun != 0
	run.Status = RunStatus(status)
	run.RetryPath = retryPath.String
	run.RetrySuperseded = superseded.String
	run.Error = errorMsg.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			run.FinishedAt = &finished
		}
	}
	return &run, nil
}

func scanOutcome(s scanner) (*Outcome, error) {
	var (
		outcome     Outcome
		assetID     sql.NullString
		identifier  sql.NullString
		errorKind   sql.NullString
		errorMsg    sql.NullString
		detailsURL  sql.NullString
		recordedRaw string
	)
	if err := s.Scan(
		&outcome.RunID,
		&outcome.Row,
		&assetID,
		&identifier,
		&outcome.State,
		&errorKind,
		&errorMsg,
		&detailsURL,
		&outcome.Files,
		&outcome.Bytes,
		&outcome.StatusCode,
		&recordedRaw,
	); err != nil {
		return nil, err
	}
	outcome.AssetID = assetID.String
	outcome.Identifier = identifier.String
	outcome.ErrorKind = errorKind.String
	outcome.Error = errorMsg.String
	outcome.DetailsURL = detailsURL.String
	if recorded, err := parseTimeString(recordedRaw); err == nil {
		outcome.RecordedAt = recorded
	}
	return &outcome, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func stripLikeWildcards(value string) string {
	replacer := strings.NewReplacer(`%`, ``, `_`, ``)
	return replacer.Replace(value)
}
