package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// validateModification applies only to revision submissions. It requires
// a parent reference, the declared change fields and a computed change set
// with at least one recorded difference; anything short of that cannot be
// assessed against the parent and goes to review.
func validateModification(ctx context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	sub, err := vctx.Store.GetSubmission(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "loading submission %s", vctx.SubmissionID)
	}
	if sub.IsOriginal() {
		return nil, nil
	}
	if sub.ParentID == "" {
		return reviewFinding(r, fmt.Sprintf("revision (version %d) does not reference a parent submission", sub.Version)), nil
	}

	var missing []string
	for _, name := range r.RequiredFields {
		if !vctx.Extraction.FieldPresent(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		f := reviewFinding(r, fmt.Sprintf("revision is missing change declarations: %s",
			strings.Join(missing, ", ")))
		f.MissingFields = missing
		return f, nil
	}

	cs, err := vctx.Store.GetChangeSetForSubmission(ctx, vctx.SubmissionID)
	if err != nil {
		return nil, eris.Wrapf(err, "loading change set for submission %s", vctx.SubmissionID)
	}
	if cs == nil {
		return reviewFinding(r, "revision has no computed change set against its parent"), nil
	}
	if len(cs.Items) == 0 {
		// An empty delta on a revision means the computation is suspect,
		// not that nothing changed.
		return reviewFinding(r, "revision's change set records no differences against its parent"), nil
	}
	return passFinding(r, fmt.Sprintf("revision carries %d recorded changes", len(cs.Items))), nil
}
