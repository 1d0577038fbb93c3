package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/castlists/internal/config"
	"github.com/mesh-intelligence/castlists/internal/sqlite"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration file and data directory",
		Long: "Writes config.yaml to the config directory if it does not exist and\n" +
			"creates the data directory with empty JSONL files. Safe to re-run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, cfg, err := resolveConfig(f)
			if err != nil {
				return err
			}
			wrote, err := config.WriteDefault(configDir, cfg)
			if err != nil {
				return sysError(err)
			}

			backend := sqlite.NewBackend(sqlite.WithLogger(newLogger(cmd.ErrOrStderr(), f.verbose)))
			if err := backend.Attach(cfg); err != nil {
				return sysError(fmt.Errorf("initialize data dir: %w", err))
			}
			if err := backend.Detach(); err != nil {
				return sysError(fmt.Errorf("detach store: %w", err))
			}

			out := cmd.OutOrStdout()
			if f.jsonMode {
				return printJSON(out, map[string]any{
					"configDir":     configDir,
					"configWritten": wrote,
					"dataDir":       cfg.DataDir,
				})
			}
			if wrote {
				fmt.Fprintf(out, "Wrote %s/%s\n", configDir, config.FileName)
			}
			fmt.Fprintf(out, "castlists initialized successfully at %s\n", cfg.DataDir)
			return nil
		},
	}
}
