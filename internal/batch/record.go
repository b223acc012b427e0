package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"archivist/internal/config"
	"archivist/internal/ledger"
	"archivist/internal/locator"
	"archivist/internal/logging"
	"archivist/internal/services"
	"archivist/internal/services/archiveorg"
	"archivist/internal/tabular"
)

// processRecord drives rec to a terminal state. It never panics and never
// returns a failure to the caller other than through the Outcome.
func (r *Runner) processRecord(ctx context.Context, rec tabular.Record, media config.MediaType, seen map[string]int) (outcome Outcome) {
	outcome = Outcome{Row: rec.Row, State: StatePending}
	ctx = services.WithRow(ctx, rec.Row)
	logger := logging.NewComponentLogger(r.Logger, "batch")

	defer func() {
		if recovered := recover(); recovered != nil {
			err := fmt.Errorf("panic during %s: %v", outcome.State, recovered)
			if outcome.State == StateUploading {
				err = services.Wrap(services.ErrUploadTransport, "uploading", "upload", "collaborator panicked", err)
			}
			outcome = r.fail(ctx, logger, outcome, err)
		}
	}()

	outcome.State = StateResolving
	resolved := r.Resolver.Resolve(rec)
	outcome.AssetID = resolved.AssetID
	outcome.Identifier = resolved.Identifier
	outcome.Degraded = resolved.Degraded
	ctx = services.WithAssetID(ctx, resolved.AssetID)
	stageLogger := func(state State) *slog.Logger {
		return logging.WithContext(services.WithStage(ctx, state.String()), logger)
	}
	if resolved.IsDegraded() {
		logging.WarnWithContext(stageLogger(StateResolving), "identifier resolved from fallback", "resolution_degraded",
			logging.String(logging.FieldIdentifier, resolved.Identifier),
			logging.Strings("fallbacks", resolved.Degraded),
			logging.String(logging.FieldErrorKind, string(services.KindResolutionDegraded)),
			logging.String(logging.FieldErrorHint, "fill the identifier column to pin the archive item name"),
		)
	}
	if id := resolved.Identifier; id != "" {
		if firstRow, dup := seen[id]; dup {
			return r.fail(ctx, logger, outcome, services.Wrap(services.ErrDuplicateIdentifier, "resolving", "identifier",
				fmt.Sprintf("%s already used by row %d", id, firstRow), nil))
		}
		seen[id] = rec.Row
	}

	outcome.State = StateLocating
	files, err := r.Locator.Locate(ctx, resolved.AssetID, media)
	if err != nil {
		return r.fail(ctx, logger, outcome, err)
	}
	outcome.Files = append([]string(nil), files...)
	if err := checkFiles(files); err != nil {
		return r.fail(ctx, logger, outcome, err)
	}

	uploadFiles := []string(files)
	if r.Transformer != nil && media.IsVisual() {
		outcome.State = StateTransforming
		transformed, cleanup, err := r.Transformer.Transform(ctx, uploadFiles)
		if err != nil {
			return r.fail(ctx, logger, outcome, err)
		}
		defer cleanup()
		uploadFiles = transformed
	}

	outcome.State = StateMapping
	target, missing, err := r.Mapper.Map(resolved, rec, media)
	if err != nil {
		return r.fail(ctx, logger, outcome, err)
	}
	outcome.Target = target
	outcome.Missing = missing
	if len(missing) > 0 {
		logging.WarnWithContext(stageLogger(StateMapping), "required fields absent after mapping", "mapping_incomplete",
			logging.String(logging.FieldIdentifier, resolved.Identifier),
			logging.Strings("missing", missing),
			logging.String(logging.FieldErrorKind, string(services.KindMappingIncomplete)),
			logging.String(logging.FieldErrorHint, "fill the source columns for the missing fields"),
		)
	}

	if r.DryRun {
		outcome.State = StateSkipped
		outcome.Bytes = fileBytes(uploadFiles)
		stageLogger(StateMapping).Info("dry run, upload skipped",
			logging.String(logging.FieldIdentifier, resolved.Identifier),
			logging.Int("files", len(uploadFiles)),
			logging.String("size", humanBytes(outcome.Bytes)),
		)
		return outcome
	}

	outcome.State = StateUploading
	if err := checkFiles(uploadFiles); err != nil {
		return r.fail(ctx, logger, outcome, err)
	}
	started := time.Now()
	res, err := r.Uploader.Upload(services.WithStage(ctx, StateUploading.String()), resolved.Identifier, uploadFiles, target)
	outcome.UploadTime = time.Since(started)
	outcome.StatusCode = res.StatusCode
	if err != nil {
		return r.fail(ctx, logger, outcome, classifyUpload(err))
	}
	if !successful(res) {
		return r.fail(ctx, logger, outcome, services.Wrap(services.ErrUploadRejected, "uploading", "upload",
			fmt.Sprintf("archive returned status %d", res.StatusCode), nil))
	}

	outcome.State = StateSucceeded
	outcome.Bytes = res.Bytes
	outcome.DetailsURL = archiveorg.DetailsURL(r.DetailsURL, resolved.Identifier)
	stageLogger(StateUploading).Info("record uploaded",
		logging.String(logging.FieldIdentifier, resolved.Identifier),
		logging.Int("files", res.Files),
		logging.String("size", humanBytes(res.Bytes)),
		logging.Duration("elapsed", outcome.UploadTime),
		logging.String("details_url", outcome.DetailsURL),
	)
	return outcome
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, outcome Outcome, err error) Outcome {
	stage := outcome.State
	outcome.State = StateFailed
	outcome.Err = err
	outcome.Kind = services.KindOf(err)
	logging.WarnWithContext(logging.WithContext(services.WithStage(ctx, stage.String()), logger), "record failed", "record_failed",
		logging.String(logging.FieldIdentifier, outcome.Identifier),
		logging.Error(err),
	)
	return outcome
}

func classifyUpload(err error) error {
	if services.KindOf(err) != services.KindUnknown {
		return err
	}
	return services.Wrap(services.ErrUploadTransport, "uploading", "upload", "", err)
}

func successful(res archiveorg.Result) bool {
	return res.StatusCode >= 200 && res.StatusCode < 300
}

func checkFiles(files []string) error {
	if len(files) == 0 {
		return services.Wrap(services.ErrUploadPrecondition, "uploading", "files", "empty file set", nil)
	}
	var missing []string
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return services.Wrap(services.ErrUploadPrecondition, "uploading", "files",
			"not a local file: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

var (
	_ Locator  = (*locator.Locator)(nil)
	_ Uploader = (*archiveorg.Uploader)(nil)
	_ Recorder = (*ledger.Ledger)(nil)
)
