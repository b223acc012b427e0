package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"archivist/internal/config"
	"archivist/internal/deps"
	"archivist/internal/metadata"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set resourcespace.base_url, the DAM user and key, and the archive keys (or export RESOURCESPACE_USER, RESOURCESPACE_API_KEY, IA_ACCESS_KEY, IA_SECRET_KEY) before uploading.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file and external tools",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := loadConfigFile(ctx)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", resolved)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}

			var problems []string
			if err := cfg.ValidateDAM(); err != nil {
				problems = append(problems, err.Error())
			}
			if err := cfg.ValidateArchive(); err != nil {
				problems = append(problems, err.Error())
			}

			statuses := deps.CheckBinaries(cmd.Context(), deps.MediaRequirements(cfg))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					if status.Optional {
						state = "missing (optional)"
					}
				}
				location := status.Path
				if location == "" {
					location = status.Command
				}
				rows = append(rows, []string{status.Name, location, status.Version, state, status.Detail})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]column{col("Tool"), wide("Path", 60), col("Version"), col("Status"), wide("Detail", 60)},
					rows,
				))
			}
			for _, missing := range deps.MissingRequired(statuses) {
				problems = append(problems, fmt.Sprintf("%s (%s) is required when media.square_pixels is enabled", missing.Name, missing.Command))
			}

			rules := metadata.RulesFromConfig(cfg.Fields.Rules)
			ruleRows := make([][]string, 0, len(rules))
			for _, rule := range rules {
				ruleRows = append(ruleRows, []string{rule.Name, string(rule.Strategy), strings.Join(rule.Columns, " > ")})
			}
			fmt.Fprintln(out, renderTable([]column{col("Field"), col("Strategy"), wide("Columns (precedence)", 80)}, ruleRows))

			if len(problems) > 0 {
				for _, problem := range problems {
					fmt.Fprintf(out, "- %s\n", problem)
				}
				return fmt.Errorf("configuration incomplete: %d problem(s)", len(problems))
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective configuration with credentials masked",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := loadConfigFile(ctx)
			if err != nil {
				return err
			}
			data, err := cfg.EncodeTOML()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := resolved
			if !exists {
				source = "defaults (" + resolved + " not found)"
			}
			fmt.Fprintf(out, "# effective configuration from %s\n", source)
			_, err = out.Write(data)
			return err
		},
	}
}

// loadConfigFile loads the --config file without the root command's
// validation so inspection commands work on incomplete files.
func loadConfigFile(ctx *commandContext) (*config.Config, string, bool, error) {
	var path string
	if ctx.configFlag != nil {
		path = strings.TrimSpace(*ctx.configFlag)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, "", false, fmt.Errorf("load config: %w", err)
	}
	return cfg, resolved, exists, nil
}
