package ledger

import "time"

// RunStatus tracks the lifecycle of a batch run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// Run summarises one batch invocation.
type Run struct {
	ID        string    `json:"id"`
	InputPath string    `json:"input_path"`
	MediaType string    `json:"media_type"`
	Attempt   int       `json:"attempt"`
	DryRun    bool      `json:"dry_run"`
	Status    RunStatus `json:"status"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Skipped   int       `json:"skipped"`
	RetryPath string    `json:"retry_path,omitempty"`
	// RetrySuperseded is a stale retry artifact this run removed because
	// nothing was left to retry.
	RetrySuperseded string     `json:"retry_superseded,omitempty"`
	Error           string     `json:"error,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
}

// Duration reports the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Outcome is the terminal state of one source record within a run.
type Outcome struct {
	RunID      string    `json:"run_id"`
	Row        int       `json:"row"`
	AssetID    string    `json:"asset_id,omitempty"`
	Identifier string    `json:"identifier,omitempty"`
	State      string    `json:"state"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	DetailsURL string    `json:"details_url,omitempty"`
	Files      int       `json:"files"`
	Bytes      int64     `json:"bytes"`
	StatusCode int       `json:"status_code,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Totals aggregates outcome counts for FinishRun.
type Totals struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
}

// StateSucceeded is the outcome state recorded for uploaded records.
const StateSucceeded = "succeeded"
