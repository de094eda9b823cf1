package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// submitManifest is the on-disk input for registering a submission: the
// documents with their extractions, plus the application reference.
type submitManifest struct {
	Documents []struct {
		Filename   string                  `json:"filename"`
		DocType    string                  `json:"doc_type"`
		Pages      int                     `json:"pages,omitempty"`
		Extraction *model.ExtractionResult `json:"extraction"`
	} `json:"documents"`
}

var submitCmd = &cobra.Command{
	Use:   "submit <application-ref> <manifest.json>",
	Short: "Register a submission and its documents",
	Long:  "Creates the application if needed, records a new submission version, and stores each document with its extracted fields. Pass --parent to register a revision.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		appRef := args[0]
		appType, _ := cmd.Flags().GetString("type")
		parentID, _ := cmd.Flags().GetString("parent")

		data, err := os.ReadFile(args[1])
		if err != nil {
			return eris.Wrapf(err, "reading manifest %s", args[1])
		}
		var manifest submitManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			return eris.Wrapf(err, "parsing manifest %s", args[1])
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate")
		}

		app, err := st.GetApplication(ctx, appRef)
		if err != nil {
			app = &model.Application{
				ID:        uuid.NewString(),
				Reference: appRef,
				Type:      model.ApplicationType(appType),
			}
			if err := st.CreateApplication(ctx, app); err != nil {
				return eris.Wrapf(err, "creating application %s", appRef)
			}
		}

		version := 0
		if parentID != "" {
			parent, err := st.GetSubmission(ctx, parentID)
			if err != nil {
				return eris.Wrapf(err, "loading parent submission %s", parentID)
			}
			if parent.ApplicationRef != appRef {
				return eris.Errorf("parent submission %s belongs to application %s", parentID, parent.ApplicationRef)
			}
			version = parent.Version + 1
		}

		sub := &model.Submission{
			ID:             uuid.NewString(),
			ApplicationRef: appRef,
			Version:        version,
			ParentID:       parentID,
			Status:         model.SubmissionPending,
		}
		if err := st.CreateSubmission(ctx, sub); err != nil {
			return eris.Wrap(err, "creating submission")
		}

		for _, d := range manifest.Documents {
			doc := &model.Document{
				ID:           uuid.NewString(),
				SubmissionID: sub.ID,
				Filename:     d.Filename,
				DocType:      d.DocType,
				Pages:        d.Pages,
			}
			if err := st.CreateDocument(ctx, doc); err != nil {
				return eris.Wrapf(err, "creating document %s", d.Filename)
			}
			if d.Extraction == nil {
				continue
			}
			fields := make([]model.ExtractedField, 0, len(d.Extraction.Fields))
			for name, value := range d.Extraction.Fields {
				confidence := 0.0
				if ev := d.Extraction.EvidenceIndex[name]; len(ev) > 0 {
					confidence = ev[0].Confidence
				}
				fields = append(fields, model.ExtractedField{
					DocumentID: doc.ID,
					Name:       name,
					Value:      value,
					Confidence: confidence,
				})
			}
			if err := st.PutExtractedFields(ctx, doc.ID, fields); err != nil {
				return eris.Wrapf(err, "storing fields for %s", d.Filename)
			}
		}

		zap.L().Info("submission registered",
			zap.String("application_ref", appRef),
			zap.String("submission_id", sub.ID),
			zap.Int("version", version),
			zap.Int("documents", len(manifest.Documents)))
		return printJSON(sub)
	},
}

func init() {
	submitCmd.Flags().String("type", "householder", "application type")
	submitCmd.Flags().String("parent", "", "parent submission id for revisions")
	rootCmd.AddCommand(submitCmd)
}
