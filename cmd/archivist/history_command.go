package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"archivist/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List recent batch runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Ledger) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runs)
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					mode := run.MediaType
					if run.DryRun {
						mode += " (dry run)"
					}
					rows = append(rows, []string{
						shortID(run.ID),
						formatStarted(run.StartedAt),
						string(run.Status),
						mode,
						strconv.Itoa(run.Attempt),
						strconv.Itoa(run.Succeeded),
						strconv.Itoa(run.Failed),
						run.InputPath,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{col("Run"), col("Started"), col("Status"), col("Media"), num("Attempt"), num("OK"), num("Failed"), col("Input")},
					rows,
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	historyCmd.Flags().BoolVar(&asJSON, "json", false, "Print runs as JSON")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show per-row outcomes of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(ctx, func(store *ledger.Ledger) error {
				run, err := store.FindRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("run %s not found", args[0])
				}
				outcomes, err := store.Outcomes(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, struct {
						Run      *ledger.Run      `json:"run"`
						Outcomes []ledger.Outcome `json:"outcomes"`
					}{run, outcomes})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:      %s\n", run.ID)
				fmt.Fprintf(out, "Input:    %s\n", run.InputPath)
				fmt.Fprintf(out, "Media:    %s\n", run.MediaType)
				fmt.Fprintf(out, "Dry run:  %s\n", yesNo(run.DryRun))
				fmt.Fprintf(out, "Status:   %s\n", run.Status)
				fmt.Fprintf(out, "Started:  %s\n", formatStarted(run.StartedAt))
				if d := run.Duration(); d > 0 {
					fmt.Fprintf(out, "Duration: %s\n", d.Round(time.Second))
				}
				if run.RetryPath != "" {
					fmt.Fprintf(out, "Retry:    %s\n", run.RetryPath)
				}
				if run.RetrySuperseded != "" {
					fmt.Fprintf(out, "Removed:  %s\n", run.RetrySuperseded)
				}
				if run.Error != "" {
					fmt.Fprintf(out, "Error:    %s\n", run.Error)
				}
				if len(outcomes) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(outcomes))
				for _, outcome := range outcomes {
					detail := outcome.DetailsURL
					if outcome.ErrorKind != "" {
						detail = outcome.ErrorKind
					}
					rows = append(rows, []string{
						strconv.Itoa(outcome.Row),
						outcome.AssetID,
						outcome.Identifier,
						outcome.State,
						humanize.Bytes(uint64(max(outcome.Bytes, 0))),
						detail,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]column{num("Row"), num("Asset"), col("Identifier"), col("State"), num("Size"), wide("Detail", 60)},
					rows,
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run and its outcomes as JSON")
	return cmd
}

func withLedger(ctx *commandContext, fn func(*ledger.Ledger) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		if errors.Is(err, ledger.ErrSchemaMismatch) {
			return fmt.Errorf("%w; run history is safe to discard", err)
		}
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func formatStarted(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04") + " (" + humanize.Time(t) + ")"
}
