package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validateDocumentRequired checks that the submission contains at least one
// document of every required type. The required set comes from the rule's
// document config keyed by application type, falling back to the rule's
// required_fields as a flat type list. A missing mandatory document is a
// hard fail.
func validateDocumentRequired(ctx context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	required, ok := r.Config.Document.TypesFor(vctx.ApplicationType)
	if !ok {
		required = r.RequiredFields
	}
	if len(required) == 0 {
		return nil, nil
	}

	docs, err := vctx.Store.ListDocuments(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "listing documents for submission %s", vctx.SubmissionID)
	}
	present := make(map[string]bool, len(docs))
	for _, d := range docs {
		present[d.DocType] = true
	}

	var missing []string
	for _, t := range required {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) == 0 {
		return passFinding(r, "all required document types present"), nil
	}
	f := failFinding(r, fmt.Sprintf("missing required documents: %s", strings.Join(missing, ", ")))
	f.MissingFields = missing
	return f, nil
}
