package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/pipeline"
)

// batchManifest is the on-disk input for a batch run: documents paired
// with their extractions, keyed to an existing submission.
type batchManifest struct {
	Documents []struct {
		Document   model.Document          `json:"document"`
		Extraction *model.ExtractionResult `json:"extraction"`
	} `json:"documents"`
}

var batchCmd = &cobra.Command{
	Use:   "batch <submission-id> <manifest.json>",
	Short: "Validate every document of a submission",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		submissionID := args[0]
		data, err := os.ReadFile(args[1])
		if err != nil {
			return eris.Wrapf(err, "reading manifest %s", args[1])
		}
		var manifest batchManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return eris.Wrapf(err, "parsing manifest %s", args[1])
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		cat, err := loadCatalogue()
		if err != nil {
			return err
		}

		inputs := make([]pipeline.DocumentInput, 0, len(manifest.Documents))
		for _, d := range manifest.Documents {
			doc := d.Document
			doc.SubmissionID = submissionID
			inputs = append(inputs, pipeline.DocumentInput{Document: doc, Extraction: d.Extraction})
		}

		result, err := buildPipeline(st, cat).ProcessBatch(ctx, submissionID, inputs)
		if err != nil {
			return eris.Wrap(err, "batch")
		}
		zap.L().Info("batch finished",
			zap.String("submission_id", submissionID),
			zap.Int("succeeded", len(result.Results)),
			zap.Int("failed", len(result.Failures)))
		return printJSON(result)
	},
}

func init() {
	rootCmd.AddCommand(batchCmd)
}
