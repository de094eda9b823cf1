package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate <extraction.json>",
	Short: "Validate a single document extraction ad hoc",
	Long:  "Runs the rule catalogue against one extraction file without touching the store. Submission-scoped rules are skipped.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		docType, _ := cmd.Flags().GetString("doc-type")

		extraction, err := readExtraction(args[0])
		if err != nil {
			return err
		}
		cat, err := loadCatalogue()
		if err != nil {
			return err
		}

		report, err := validate.NewEngine().Evaluate(ctx, cat.Rules, &validate.Context{
			DocumentID:   args[0],
			DocumentType: docType,
			Extraction:   extraction,
		})
		if err != nil {
			return eris.Wrap(err, "validate")
		}

		zap.L().Info("validation complete",
			zap.Int("rules", report.Summary.RuleCount),
			zap.Int("pass", report.Summary.Pass),
			zap.Int("needs_review", report.Summary.NeedsReview),
			zap.Int("fail", report.Summary.Fail),
			zap.Bool("needs_llm", report.Summary.NeedsLLM))

		return printJSON(report)
	},
}

func readExtraction(path string) (*model.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "reading extraction %s", path)
	}
	var extraction model.ExtractionResult
	if err := json.Unmarshal(data, &extraction); err != nil {
		return nil, eris.Wrapf(err, "parsing extraction %s", path)
	}
	return &extraction, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "render output")
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	validateCmd.Flags().String("doc-type", "", "classified document type")
	rootCmd.AddCommand(validateCmd)
}
