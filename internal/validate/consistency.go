package validate

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// normalizer strips diacritics so "Müller Straße" and "Muller Strasse"
// style variants compare equal across documents.
var normalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeValue canonicalizes a field value for cross-document comparison:
// diacritics removed, lowercased, whitespace collapsed. Idempotent, so a
// value that already went through one pass compares equal to itself.
func normalizeValue(v any) string {
	s := asString(v)
	if folded, _, err := transform.String(normalizer, s); err == nil {
		s = folded
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// validateConsistency checks that each of the rule's fields carries the
// same value everywhere it appears in the submission. A field appearing in
// fewer than two documents is trivially consistent; a field absent from
// every document makes the rule inapplicable for that field.
func validateConsistency(ctx context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	if len(r.RequiredFields) == 0 {
		return nil, nil
	}
	grouped, err := submissionFields(ctx, vctx)
	if err != nil {
		return nil, eris.Wrapf(err, "loading fields for submission %s", vctx.SubmissionID)
	}

	var conflicts []string
	checked := 0
	for _, name := range r.RequiredFields {
		values := grouped[name]
		if len(values) == 0 {
			continue
		}
		checked++
		canonical := normalizeValue(values[0].Value)
		for _, v := range values[1:] {
			if normalizeValue(v.Value) != canonical {
				conflicts = append(conflicts, fmt.Sprintf("%s: %q (%s) vs %q (%s)",
					name, asString(values[0].Value), values[0].Filename,
					asString(v.Value), v.Filename))
				break
			}
		}
	}

	if checked == 0 {
		return nil, nil
	}
	if len(conflicts) == 0 {
		return passFinding(r, "cross-document values agree"), nil
	}
	f := reviewFinding(r, "conflicting values across documents: "+strings.Join(conflicts, "; "))
	f.AttachEvidence(collectEvidence(vctx.Extraction, r, r.RequiredFields)...)
	return f, nil
}
