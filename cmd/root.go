package cmd

import (
	"os"

	"activation/internal/common"
	"activation/internal/config"
	"activation/internal/observability"
	"activation/internal/ui"
	apperrors "activation/pkg/errors"
	"activation/pkg/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries state shared by the commands of one invocation
type app struct {
	configFile string
	envFile    string

	v      *viper.Viper
	cfg    *models.Config
	logger *observability.Logger
	ui     *ui.UI
}

// NewRootCmd builds the command tree. Running it without a subcommand builds the table.
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "activation",
		Short: "Build gold__fact_advanced_activation in the analytics database",
		Long: `activation rebuilds the gold__fact_advanced_activation table from
gold__dim_accounts, gold__fact_product_events and gold__fact_deals.

An account is activated when it has both a core product event in a deal
context and a deal within 14 days of signup.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runBuild,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is ./activation.yaml or ~/.activation/activation.yaml)")
	flags.StringVar(&a.envFile, "env-file", ".env", "env file loaded before reading ACTIVATION_* variables")
	flags.String("db", "", "path to the DuckDB database file")
	flags.Duration("timeout", 0, "per statement timeout, 0 disables")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "write logs as JSON")

	rootCmd.Flags().Bool("summary", false, "print activation statistics after the build")

	rootCmd.AddCommand(
		newBuildCmd(a),
		newVerifyCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		ui.NewUI(os.Stdout, os.Stderr).Error(err)
		os.Exit(1)
	}
}

// setup resolves configuration and logging before any command runs
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}

	base, err := common.ExecutableDir()
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeFileOperation, "Failed to resolve executable location")
	}

	a.v = config.New(common.DefaultDatabasePath(base))
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	runID := observability.NewRunID()
	a.logger = observability.NewLogger(observability.LoggerConfig{
		Level:   cfg.LogLevel,
		JSON:    cfg.LogJSON,
		Output:  cmd.ErrOrStderr(),
		Service: "activation",
		Version: Version,
	}).WithField("run_id", runID)
	observability.SetDefaultLogger(a.logger)

	cmd.SetContext(observability.WithRunID(cmd.Context(), runID))
	a.ui = ui.NewUI(cmd.OutOrStdout(), cmd.ErrOrStderr())

	a.logger.DebugWithFields("configuration loaded", map[string]interface{}{
		"database": cfg.Database.Path,
		"config":   a.v.ConfigFileUsed(),
		"command":  cmd.Name(),
	})

	return nil
}
