package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"archivist/internal/config"
	"archivist/internal/ledger"
	"archivist/internal/locator"
	"archivist/internal/logging"
	"archivist/internal/metadata"
	"archivist/internal/services"
	"archivist/internal/services/archiveorg"
	"archivist/internal/tabular"
)

// Locator resolves an asset id to its ordered file set.
type Locator interface {
	Locate(ctx context.Context, assetID string, media config.MediaType) (locator.FileSet, error)
}

// Uploader sends one item to the archive. A non-2xx status with a nil error
// is a rejection; an error is a transport fault.
type Uploader interface {
	Upload(ctx context.Context, identifier string, files []string, md *metadata.Target) (archiveorg.Result, error)
}

// UploadFunc adapts a function to the Uploader interface.
type UploadFunc func(ctx context.Context, identifier string, files []string, md *metadata.Target) (archiveorg.Result, error)

// Upload calls f.
func (f UploadFunc) Upload(ctx context.Context, identifier string, files []string, md *metadata.Target) (archiveorg.Result, error) {
	return f(ctx, identifier, files, md)
}

// Transformer rewrites located files before upload, keeping their order.
// cleanup removes anything it created.
type Transformer interface {
	Transform(ctx context.Context, files []string) ([]string, func(), error)
}

// Recorder persists run history.
type Recorder interface {
	StartRun(ctx context.Context, run ledger.Run) (*ledger.Run, error)
	RecordOutcome(ctx context.Context, outcome ledger.Outcome) error
	FinishRun(ctx context.Context, id string, totals ledger.Totals, retryPath string, runErr error) error
	SupersedeRetry(ctx context.Context, id, path string) error
}

// Runner processes tabular batches. Resolver, Mapper, Locator and Uploader
// are required; the rest are optional.
type Runner struct {
	Resolver    *metadata.Resolver
	Mapper      *metadata.Mapper
	Locator     Locator
	Uploader    Uploader
	Transformer Transformer
	Ledger      Recorder
	Metrics     *Metrics
	Logger      *slog.Logger

	// DryRun stops each record after mapping and reports it skipped.
	DryRun bool
	// DetailsURL is the base of the public item page.
	DetailsURL string
	// RetryDir receives retry artifacts; empty means next to the input.
	RetryDir string

	newID func() string
	now   func() time.Time
}

// Outcome is the terminal report for one source record.
type Outcome struct {
	Row        int
	AssetID    string
	Identifier string
	State      State
	Kind       services.Kind
	Err        error
	Files      []string
	Bytes      int64
	StatusCode int
	DetailsURL string
	UploadTime time.Duration
	Missing    []string
	Degraded   []string
	Target     *metadata.Target
}

// Result is the product of one pass over a table.
type Result struct {
	RunID     string
	Attempt   int
	Outcomes  []Outcome
	Retry     *tabular.Table
	RetryPath string
	// RetrySuperseded is the stale retry artifact removed because this pass
	// left nothing to retry.
	RetrySuperseded string
}

// Count returns the number of outcomes in state.
func (r Result) Count(state State) int {
	count := 0
	for _, outcome := range r.Outcomes {
		if outcome.State == state {
			count++
		}
	}
	return count
}

// Totals summarises the outcomes for the ledger.
func (r Result) Totals() ledger.Totals {
	return ledger.Totals{
		Total:     len(r.Outcomes),
		Succeeded: r.Count(StateSucceeded),
		Failed:    r.Count(StateFailed),
		Skipped:   r.Count(StateSkipped),
	}
}

// NewRunner wires a Runner from configuration and the supplied collaborators.
func NewRunner(cfg *config.Config, loc Locator, up Uploader, logger *slog.Logger) *Runner {
	return &Runner{
		Resolver:   metadata.NewResolverFromConfig(cfg),
		Mapper:     metadata.NewMapperFromConfig(cfg),
		Locator:    loc,
		Uploader:   up,
		Logger:     logger,
		DetailsURL: cfg.Archive.DetailsURL,
		RetryDir:   cfg.Paths.RetryDir,
	}
}

// Run processes every record of table once. The returned error is non-nil
// only for fatal conditions or cancellation; record failures are reported in
// the Result and its retry batch.
func (r *Runner) Run(ctx context.Context, table *tabular.Table, media config.MediaType) (Result, error) {
	return r.run(ctx, table, media, 1)
}

func (r *Runner) run(ctx context.Context, table *tabular.Table, media config.MediaType, attempt int) (Result, error) {
	if err := r.validate(table, media); err != nil {
		return Result{}, err
	}
	logger := logging.NewComponentLogger(r.Logger, "batch")

	runID := r.id()
	ctx = services.WithRunID(ctx, runID)
	result := Result{RunID: runID, Attempt: attempt}
	if r.Ledger != nil {
		_, err := r.Ledger.StartRun(ctx, ledger.Run{
			ID:        runID,
			InputPath: table.Path,
			MediaType: media.String(),
			Attempt:   attempt,
			DryRun:    r.DryRun,
			Total:     table.Len(),
			StartedAt: r.clock(),
		})
		if err != nil {
			return Result{}, services.Wrap(services.ErrConfiguration, "batch", "start run", "ledger", err)
		}
	}

	logging.WithContext(ctx, logger).Info("batch started",
		logging.String("input", table.Path),
		logging.String("media", media.String()),
		logging.Int("records", table.Len()),
		logging.Int("attempt", attempt),
		logging.Bool("dry_run", r.DryRun),
	)

	var failed []tabular.Record
	seen := make(map[string]int, table.Len())
	var runErr error
	for idx, rec := range table.Records {
		if err := ctx.Err(); err != nil {
			runErr = err
			failed = append(failed, table.Records[idx:]...)
			logging.WarnWithContext(logging.WithContext(ctx, logger), "batch cancelled", "batch_cancelled",
				logging.Int("remaining", table.Len()-idx),
				logging.String(logging.FieldErrorHint, "re-run with the retry artifact to resume"),
			)
			break
		}

		outcome := r.processRecord(ctx, rec, media, seen)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.State == StateFailed {
			failed = append(failed, rec)
		}
		r.Metrics.observe(outcome)
		r.record(ctx, logger, runID, outcome)
	}

	result.Retry = table.Subset(failed)
	if !r.DryRun && result.Retry.Len() > 0 && table.Path != "" {
		path, err := WriteRetry(result.Retry, table.Path, r.RetryDir)
		if err != nil {
			logging.ErrorWithContext(logging.WithContext(ctx, logger), "retry artifact write failed", "retry_write_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "failed rows are listed in the run history"),
			)
			if runErr == nil {
				runErr = err
			}
		} else {
			result.RetryPath = path
			result.Retry.Path = path
		}
	}
	if !r.DryRun && runErr == nil && result.Retry.Len() == 0 && table.Path != "" {
		path, err := RemoveRetry(table.Path, r.RetryDir)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, logger), "stale retry artifact not removed", "retry_remove_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "delete the artifact by hand; every row has been handled"),
			)
		} else if path != "" {
			result.RetrySuperseded = path
			logging.WithContext(ctx, logger).Info("retry artifact superseded", logging.String("retry_path", path))
		}
	}

	finished := r.clock()
	r.Metrics.finish(result, finished)
	if err := r.Metrics.Flush(); err != nil {
		logger.Warn("metrics export failed", logging.Error(err))
	}
	if r.Ledger != nil {
		if err := r.Ledger.FinishRun(context.WithoutCancel(ctx), runID, result.Totals(), result.RetryPath, runErr); err != nil {
			logger.Warn("ledger finish failed", logging.Error(err))
		}
		if result.RetrySuperseded != "" {
			if err := r.Ledger.SupersedeRetry(context.WithoutCancel(ctx), runID, result.RetrySuperseded); err != nil {
				logger.Warn("ledger supersede failed", logging.Error(err))
			}
		}
	}

	totals := result.Totals()
	logging.WithContext(ctx, logger).Info("batch finished",
		logging.Int("succeeded", totals.Succeeded),
		logging.Int("failed", totals.Failed),
		logging.Int("skipped", totals.Skipped),
		logging.Int("retry", result.Retry.Len()),
		logging.String("retry_path", result.RetryPath),
	)
	return result, runErr
}

// RetryUntil runs table, then re-runs the retry batch up to attempts more
// times while it is non-empty. Results are returned in attempt order.
func (r *Runner) RetryUntil(ctx context.Context, table *tabular.Table, media config.MediaType, attempts int) ([]Result, error) {
	var results []Result
	current := table
	for attempt := 1; attempt <= attempts+1; attempt++ {
		result, err := r.run(ctx, current, media, attempt)
		if result.RunID != "" {
			results = append(results, result)
		}
		if err != nil {
			return results, err
		}
		if r.DryRun || result.Retry.Len() == 0 {
			break
		}
		current = result.Retry
	}
	return results, nil
}

func (r *Runner) validate(table *tabular.Table, media config.MediaType) error {
	if media != config.MediaVideo && media != config.MediaAudio {
		return services.Wrap(services.ErrInvalidInput, "batch", "media type", fmt.Sprintf("unsupported media type %q", media), nil)
	}
	if table == nil {
		return services.Wrap(services.ErrInvalidInput, "batch", "input", "no table supplied", nil)
	}
	if r.Resolver == nil || r.Mapper == nil || r.Locator == nil || r.Uploader == nil {
		return services.Wrap(services.ErrConfiguration, "batch", "runner", "resolver, mapper, locator and uploader are required", nil)
	}
	return nil
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, runID string, outcome Outcome) {
	if r.Ledger == nil {
		return
	}
	entry := ledger.Outcome{
		RunID:      runID,
		Row:        outcome.Row,
		AssetID:    outcome.AssetID,
		Identifier: outcome.Identifier,
		State:      outcome.State.String(),
		ErrorKind:  string(outcome.Kind),
		DetailsURL: outcome.DetailsURL,
		Files:      len(outcome.Files),
		Bytes:      outcome.Bytes,
		StatusCode: outcome.StatusCode,
	}
	if outcome.Err != nil {
		entry.Error = outcome.Err.Error()
	}
	if err := r.Ledger.RecordOutcome(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("ledger outcome write failed", logging.Int(logging.FieldRow, outcome.Row), logging.Error(err))
	}
}

func (r *Runner) id() string {
	if r.newID != nil {
		return r.newID()
	}
	return uuid.NewString()
}

func (r *Runner) clock() time.Time {
	if r.now != nil {
		return r.now()
	}
	return time.Now().UTC()
}

// WriteRetry writes retry next to input, or into dir when set, and returns
// the artifact path.
func WriteRetry(retry *tabular.Table, input, dir string) (string, error) {
	if retry.Len() == 0 {
		return "", errors.New("retry batch is empty")
	}
	path := tabular.RetryPath(input, dir)
	if err := retry.Write(path); err != nil {
		return "", fmt.Errorf("write retry artifact: %w", err)
	}
	return path, nil
}

// RemoveRetry deletes the retry artifact WriteRetry would produce for input.
// It returns the removed path, or "" when there was nothing to remove.
func RemoveRetry(input, dir string) (string, error) {
	path := tabular.RetryPath(input, dir)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("remove retry artifact: %w", err)
	}
	return path, nil
}

func fileBytes(files []string) int64 {
	var total int64
	for _, path := range files {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}

func humanBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
