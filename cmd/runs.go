package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List validation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		status, _ := cmd.Flags().GetString("status")
		submissionID, _ := cmd.Flags().GetString("submission")
		limit, _ := cmd.Flags().GetInt("limit")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status:       model.RunStatus(status),
			SubmissionID: submissionID,
			Limit:        limit,
		})
		if err != nil {
			return eris.Wrap(err, "list runs")
		}
		return printJSON(runs)
	},
}

func init() {
	runsCmd.Flags().String("status", "", "filter by run status")
	runsCmd.Flags().String("submission", "", "filter by submission id")
	runsCmd.Flags().Int("limit", 50, "maximum runs to return")
	rootCmd.AddCommand(runsCmd)
}
