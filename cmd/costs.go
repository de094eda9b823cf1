package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sgshaji/PlanProof-sub000/internal/cost"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Summarize escalation spend",
	Long:  "Rolls up estimated model spend across validation runs, per submission.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		submissionID, _ := cmd.Flags().GetString("submission")
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			SubmissionID: submissionID,
			Limit:        limit,
		})
		if err != nil {
			return eris.Wrap(err, "list runs")
		}
		return printJSON(cost.Summarize(runs))
	},
}

func init() {
	costsCmd.Flags().String("submission", "", "restrict to one submission")
	costsCmd.Flags().Int("limit", 1000, "maximum runs to aggregate")
	rootCmd.AddCommand(costsCmd)
}
