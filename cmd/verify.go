package cmd

import (
	"fmt"

	"activation/internal/activation"
	"activation/internal/duckdb"
	apperrors "activation/pkg/errors"

	"github.com/spf13/cobra"
)

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check gold__fact_advanced_activation against its invariants",
		Long: `Open the database read-only and check the activation table: one row
per account, activation flag and date consistent with the first core
event and first deal, non-negative time to value and non-null counts.`,
		Args: cobra.NoArgs,
		RunE: a.runVerify,
	}
}

func (a *app) runVerify(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	service := duckdb.NewService(duckdb.Config{
		Path:     a.cfg.Database.Path,
		Timeout:  a.cfg.Database.Timeout,
		ReadOnly: true,
	}, a.logger)

	if err := service.Connect(ctx); err != nil {
		return err
	}
	defer a.release(service)

	result, err := activation.NewTransformer(service, a.logger).Verify(ctx)
	if err != nil {
		return err
	}

	a.ui.Verification(result)

	if failed := result.Failed(); len(failed) > 0 {
		return apperrors.New(apperrors.ErrCodeInvariantBroken,
			fmt.Sprintf("%d of %d checks failed on %s", len(failed), len(result.Checks), result.Table)).
			WithContext("table", result.Table)
	}

	return nil
}
