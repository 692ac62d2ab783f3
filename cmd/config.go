package cmd

import (
	"fmt"
	"path/filepath"

	"activation/internal/common"
	"activation/internal/config"
	apperrors "activation/pkg/errors"

	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			if used := a.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the effective configuration to a file",
		Long: `Write the effective configuration as YAML. Without a path the file is
written to ~/.activation/activation.yaml.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := filepath.Join(config.GetConfigPath(), config.FileName+".yaml")
			if len(args) == 1 {
				path = args[0]
			}

			if common.FileExists(path) && !force {
				return apperrors.New(apperrors.ErrCodeFileOperation, "Config file already exists").
					WithContext("file", path).
					WithSuggestions("Pass --force to overwrite it")
			}

			if err := config.Save(a.cfg, path); err != nil {
				return apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "Failed to write config file").
					WithContext("file", path)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(showCmd, initCmd)
	return configCmd
}
