package cmd

import (
	"activation/internal/activation"
	"activation/internal/duckdb"

	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Rebuild gold__fact_advanced_activation",
		Long: `Replace gold__fact_advanced_activation with one row per account in
gold__dim_accounts. This is also what running activation without a
subcommand does.`,
		Args: cobra.NoArgs,
		RunE: a.runBuild,
	}

	buildCmd.Flags().Bool("summary", false, "print activation statistics after the build")

	return buildCmd
}

func (a *app) runBuild(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	service := duckdb.NewService(duckdb.Config{
		Path:    a.cfg.Database.Path,
		Timeout: a.cfg.Database.Timeout,
	}, a.logger)

	if err := service.Connect(ctx); err != nil {
		return err
	}
	defer a.release(service)

	transformer := activation.NewTransformer(service, a.logger)

	result, err := transformer.Build(ctx)
	if err != nil {
		return err
	}

	// read everything back before confirming so a failure leaves stdout empty
	var summary *activation.Summary
	if a.cfg.Summary {
		facts, err := transformer.Facts(ctx)
		if err != nil {
			return err
		}
		s := activation.Summarize(facts)
		summary = &s
	}

	a.ui.Created(result.Table)
	if summary != nil {
		a.ui.Summary(*summary)
	}

	return nil
}

// release closes the connection; a close failure is logged, never returned
func (a *app) release(service *duckdb.Service) {
	if err := service.Close(); err != nil {
		a.logger.WithError(err).Warn("failed to close database")
	}
}
