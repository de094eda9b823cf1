package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/geometry"
)

var geometryCmd = &cobra.Command{
	Use:   "geometry",
	Short: "Manage submission geometry",
}

var geometryIngestCmd = &cobra.Command{
	Use:   "ingest <submission-id> <shapefile>",
	Short: "Load a shapefile and derive spatial metrics",
	Long:  "Reads site geometry from a shapefile, stores the features, and derives area and length metrics for spatial rules to check.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		submissionID := args[0]

		features, err := geometry.ReadFeatures(args[1], submissionID)
		if err != nil {
			return err
		}
		if len(features) == 0 {
			return eris.Errorf("no usable shapes in %s", args[1])
		}
		metrics, err := geometry.DeriveMetrics(features)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.PutGeometryFeatures(ctx, features); err != nil {
			return eris.Wrap(err, "storing geometry")
		}
		if err := st.PutSpatialMetrics(ctx, metrics); err != nil {
			return eris.Wrap(err, "storing metrics")
		}

		zap.L().Info("geometry ingested",
			zap.String("submission_id", submissionID),
			zap.Int("features", len(features)),
			zap.Int("metrics", len(metrics)))
		for _, line := range geometry.Summarize(metrics) {
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	geometryCmd.AddCommand(geometryIngestCmd)
	rootCmd.AddCommand(geometryCmd)
}
