package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"archivist/internal/config"
	"archivist/internal/metadata"
	"archivist/internal/tabular"
)

type resolvedRow struct {
	Row      int               `json:"row"`
	Resolved metadata.Resolved `json:"resolved"`
	Target   *metadata.Target  `json:"target,omitempty"`
	Missing  []string          `json:"missing,omitempty"`
	Error    string            `json:"error,omitempty"`
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var mediaFlag string

	cmd := &cobra.Command{
		Use:   "resolve <input>",
		Short: "Preview resolved metadata for a batch without network access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			table, err := tabular.ReadFile(args[0])
			if err != nil {
				return err
			}
			resolver := metadata.NewResolverFromConfig(cfg)

			var mapper *metadata.Mapper
			var media config.MediaType
			if strings.TrimSpace(mediaFlag) != "" {
				if media, err = parseMediaFlag(mediaFlag); err != nil {
					return err
				}
				mapper = metadata.NewMapperFromConfig(cfg)
			}

			rows := make([]resolvedRow, 0, table.Len())
			for _, rec := range table.Records {
				entry := resolvedRow{Row: rec.Row, Resolved: resolver.Resolve(rec)}
				if mapper != nil {
					target, missing, err := mapper.Map(entry.Resolved, rec, media)
					if err != nil {
						entry.Error = err.Error()
					}
					entry.Target = target
					entry.Missing = missing
				}
				rows = append(rows, entry)
			}

			if asJSON {
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			tableRows := make([][]string, 0, len(rows))
			for _, row := range rows {
				note := strings.Join(row.Resolved.Degraded, ", ")
				if row.Error != "" {
					note = row.Error
				} else if len(row.Missing) > 0 {
					note = "missing: " + strings.Join(row.Missing, ", ")
				}
				tableRows = append(tableRows, []string{
					strconv.Itoa(row.Row),
					row.Resolved.AssetID,
					row.Resolved.Identifier,
					truncate(row.Resolved.Title, 40),
					truncate(strings.Join(row.Resolved.Creator, "; "), 30),
					row.Resolved.Date,
					note,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{num("Row"), num("Asset"), col("Identifier"), col("Title"), col("Creator"), col("Date"), wide("Notes", 50)},
				tableRows,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print resolved records as JSON")
	cmd.Flags().StringVarP(&mediaFlag, "media", "m", "", "Also map each record for this media type (video or audio)")
	return cmd
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}
