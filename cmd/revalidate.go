package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var revalidateCmd = &cobra.Command{
	Use:   "revalidate <submission-id>",
	Short: "Re-validate a revision against its parent by delta",
	Long:  "Computes the change set between the revision and its parent, then re-runs only the impacted rules. The significance score is reported alongside for reviewer attention.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		cat, err := loadCatalogue()
		if err != nil {
			return err
		}

		result, err := buildPipeline(st, cat).Revalidate(ctx, args[0], cfg.Validation.SignificanceThreshold)
		if err != nil {
			return eris.Wrap(err, "revalidate")
		}
		zap.L().Info("revalidation finished",
			zap.String("submission_id", args[0]),
			zap.Float64("significance", result.Significance),
			zap.Bool("significant", result.Significant),
			zap.Int("targeted_rules", len(result.RuleIDs)))
		return printJSON(result)
	},
}

func init() {
	rootCmd.AddCommand(revalidateCmd)
}
