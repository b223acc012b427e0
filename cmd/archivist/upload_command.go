package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"archivist/internal/batch"
	"archivist/internal/config"
	"archivist/internal/deps"
	"archivist/internal/fetch"
	"archivist/internal/ledger"
	"archivist/internal/locator"
	"archivist/internal/media/ffmpeg"
	"archivist/internal/services"
	"archivist/internal/services/archiveorg"
	"archivist/internal/services/resourcespace"
	"archivist/internal/tabular"
)

type uploadOptions struct {
	media   string
	retries int
	dryRun  bool
	json    bool
}

func newUploadCommand(ctx *commandContext) *cobra.Command {
	opts := &uploadOptions{retries: -1}
	cmd := &cobra.Command{
		Use:   "upload <input>",
		Short: "Upload every row of a CSV/XLSX batch",
		Long: "Upload every row of a CSV/XLSX batch to the archive.\n\n" +
			"<input> is a local path, an http(s) URL, a Google Drive share link or an s3:// URL.\n" +
			"Rows that fail are written to <input>_retry with the same columns.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, ctx, args[0], opts)
		},
	}
	bindUploadFlags(cmd, opts)
	return cmd
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	opts := &uploadOptions{retries: -1}
	cmd := &cobra.Command{
		Use:   "retry <retry-artifact>",
		Short: "Re-run the rows of a retry artifact",
		Long: "Re-run the rows of a retry artifact written by a previous upload.\n\n" +
			"Rows that fail again replace the artifact in place.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, ctx, args[0], opts)
		},
	}
	bindUploadFlags(cmd, opts)
	return cmd
}

func bindUploadFlags(cmd *cobra.Command, opts *uploadOptions) {
	cmd.Flags().StringVarP(&opts.media, "media", "m", "", "Media type of the batch: video (v) or audio (a)")
	cmd.Flags().IntVar(&opts.retries, "retries", -1, "Re-run failed rows this many times (default from batch.retries)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Resolve, locate and map every row without uploading")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Print the run summary as JSON")
}

func runUpload(cmd *cobra.Command, ctx *commandContext, input string, opts *uploadOptions) error {
	media, err := parseMediaFlag(opts.media)
	if err != nil {
		return services.Wrap(services.ErrInvalidInput, "upload", "media", "", err)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDAM(); err != nil {
		return services.Wrap(services.ErrConfiguration, "upload", "resourcespace", "", err)
	}
	if !opts.dryRun {
		if err := cfg.ValidateArchive(); err != nil {
			return services.Wrap(services.ErrConfiguration, "upload", "archive", "", err)
		}
	}
	if cfg.Media.SquarePixels && media.IsVisual() {
		if missing := deps.MissingRequired(deps.CheckBinaries(cmd.Context(), deps.MediaRequirements(cfg))); len(missing) > 0 {
			return services.Wrap(services.ErrConfiguration, "upload", "dependencies",
				fmt.Sprintf("%s not found (%s)", missing[0].Name, missing[0].Detail), nil)
		}
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lock, err := batch.AcquireLock(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	table, err := loadTable(runCtx, cfg, logger, input)
	if err != nil {
		return err
	}

	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	runner, err := buildRunner(cfg, logger, media)
	if err != nil {
		return err
	}
	runner.Ledger = store
	runner.DryRun = opts.dryRun

	retries := opts.retries
	if retries < 0 {
		retries = cfg.Batch.Retries
	}
	results, runErr := runner.RetryUntil(runCtx, table, media, retries)

	out := cmd.OutOrStdout()
	if opts.json {
		if err := writeJSON(cmd, summarizeResults(results)); err != nil {
			return err
		}
	} else {
		printRunSummary(out, results)
	}
	if runErr != nil {
		return runErr
	}
	if len(results) > 0 {
		last := results[len(results)-1]
		if failed := last.Count(batch.StateFailed); failed > 0 {
			return fmt.Errorf("%w: %d of %d rows; retry with: archivist retry %s --media %s",
				errRecordsFailed, failed, len(last.Outcomes), last.RetryPath, media)
		}
	}
	return nil
}

func loadTable(ctx context.Context, cfg *config.Config, logger *slog.Logger, input string) (*tabular.Table, error) {
	fetcher, err := fetch.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	path, err := fetcher.Fetch(ctx, input)
	if err != nil {
		return nil, err
	}
	return tabular.ReadFile(path)
}

// buildRunner wires the production collaborators.
func buildRunner(cfg *config.Config, logger *slog.Logger, media config.MediaType) (*batch.Runner, error) {
	client := resourcespace.NewFromConfig(cfg, logger)
	loc := locator.New(client,
		locator.WithVerifyFiles(cfg.Batch.VerifyFiles),
		locator.WithLogger(logger),
	)
	uploader := archiveorg.NewFromConfig(cfg, logger)

	runner := batch.NewRunner(cfg, loc, uploader, logger)
	runner.Metrics = batch.NewMetrics(cfg.Metrics.TextfilePath)
	if cfg.Media.SquarePixels && media.IsVisual() {
		squarifier, err := ffmpeg.NewFromConfig(cfg, logger)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "upload", "ffmpeg", "", err)
		}
		runner.Transformer = squarifier
	}
	return runner, nil
}

type outcomeSummary struct {
	Row        int      `json:"row"`
	AssetID    string   `json:"asset_id,omitempty"`
	Identifier string   `json:"identifier,omitempty"`
	State      string   `json:"state"`
	Kind       string   `json:"error_kind,omitempty"`
	Error      string   `json:"error,omitempty"`
	Files      int      `json:"files"`
	Bytes      int64    `json:"bytes"`
	DetailsURL string   `json:"details_url,omitempty"`
	Missing    []string `json:"missing,omitempty"`
}

type runSummary struct {
	RunID        string           `json:"run_id"`
	Attempt      int              `json:"attempt"`
	Succeeded    int              `json:"succeeded"`
	Failed       int              `json:"failed"`
	Skipped      int              `json:"skipped"`
	RetryPath    string           `json:"retry_path,omitempty"`
	RetryRemoved string           `json:"retry_removed,omitempty"`
	Outcomes     []outcomeSummary `json:"outcomes"`
}

func summarizeResults(results []batch.Result) []runSummary {
	summaries := make([]runSummary, 0, len(results))
	for _, result := range results {
		summary := runSummary{
			RunID:     result.RunID,
			Attempt:   result.Attempt,
			Succeeded: result.Count(batch.StateSucceeded),
			Failed:    result.Count(batch.StateFailed),
			Skipped:   result.Count(batch.StateSkipped),
			RetryPath: result.RetryPath,
			Outcomes:  make([]outcomeSummary, 0, len(result.Outcomes)),
		}
		summary.RetryRemoved = result.RetrySuperseded
		for _, outcome := range result.Outcomes {
			entry := outcomeSummary{
				Row:        outcome.Row,
				AssetID:    outcome.AssetID,
				Identifier: outcome.Identifier,
				State:      outcome.State.String(),
				Kind:       string(outcome.Kind),
				Files:      len(outcome.Files),
				Bytes:      outcome.Bytes,
				DetailsURL: outcome.DetailsURL,
				Missing:    outcome.Missing,
			}
			if outcome.Err != nil {
				entry.Error = outcome.Err.Error()
			}
			summary.Outcomes = append(summary.Outcomes, entry)
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func printRunSummary(out io.Writer, results []batch.Result) {
	for _, result := range results {
		fmt.Fprintf(out, "Run %s (attempt %d)\n", shortID(result.RunID), result.Attempt)
		rows := make([][]string, 0, len(result.Outcomes))
		for _, outcome := range result.Outcomes {
			detail := outcome.DetailsURL
			if outcome.Err != nil {
				detail = string(outcome.Kind)
			}
			rows = append(rows, []string{
				strconv.Itoa(outcome.Row),
				outcome.AssetID,
				outcome.Identifier,
				outcome.State.String(),
				strconv.Itoa(len(outcome.Files)),
				humanize.Bytes(uint64(max(outcome.Bytes, 0))),
				detail,
			})
		}
		if len(rows) > 0 {
			fmt.Fprintln(out, renderTable(
				[]column{num("Row"), num("Asset"), col("Identifier"), col("State"), num("Files"), num("Size"), wide("Detail", 60)},
				rows,
			))
		}
		fmt.Fprintf(out, "Succeeded: %d  Failed: %d  Skipped: %d\n",
			result.Count(batch.StateSucceeded), result.Count(batch.StateFailed), result.Count(batch.StateSkipped))
		if result.RetryPath != "" {
			fmt.Fprintf(out, "Retry artifact: %s\n", result.RetryPath)
		}
		if result.RetrySuperseded != "" {
			fmt.Fprintf(out, "Retry artifact removed: %s\n", result.RetrySuperseded)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
