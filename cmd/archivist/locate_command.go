package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"archivist/internal/locator"
	"archivist/internal/services"
	"archivist/internal/services/resourcespace"
)

func newLocateCommand(ctx *commandContext) *cobra.Command {
	var mediaFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "locate <asset-id>",
		Short: "Show the files the DAM reports for one asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			media, err := parseMediaFlag(mediaFlag)
			if err != nil {
				return services.Wrap(services.ErrInvalidInput, "locate", "media", "", err)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDAM(); err != nil {
				return services.Wrap(services.ErrConfiguration, "locate", "resourcespace", "", err)
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			client := resourcespace.NewFromConfig(cfg, logger)
			loc := locator.New(client, locator.WithLogger(logger))
			files, err := loc.Locate(cmd.Context(), args[0], media)
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd, files)
			}
			rows := make([][]string, 0, len(files))
			for idx, path := range files {
				role := "alternate"
				if idx == 0 {
					role = "primary"
				}
				size, readable := "-", "no"
				if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
					size = humanize.Bytes(uint64(info.Size()))
					readable = yesNo(locator.VerifyFiles(locator.FileSet{path}) == nil)
				}
				rows = append(rows, []string{role, path, size, readable})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{col("Role"), wide("Path", 80), num("Size"), col("Readable")},
				rows,
			))
			return nil
		},
	}
	cmd.Flags().StringVarP(&mediaFlag, "media", "m", "", "Media type: video (v) or audio (a)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the file set as JSON")
	return cmd
}
