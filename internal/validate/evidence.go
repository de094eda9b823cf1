package validate

import (
	"strings"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

// collectEvidence assembles the evidence payload for a finding: entries
// keyed by the rule's fields first, then keyword matches over the rest of
// the index. Entries below the rule's confidence floor are dropped and the
// result is capped at MaxFindingEvidence.
func collectEvidence(extraction *model.ExtractionResult, r *rules.Rule, fields []string) []model.Evidence {
	if extraction == nil || len(extraction.EvidenceIndex) == 0 {
		return nil
	}
	min := r.Evidence.MinConfidence

	var out []model.Evidence
	add := func(items []model.Evidence) {
		for _, item := range items {
			if len(out) >= model.MaxFindingEvidence {
				return
			}
			if item.Confidence < min {
				continue
			}
			out = append(out, item.Truncate())
		}
	}

	seen := make(map[string]bool, len(fields))
	for _, name := range fields {
		seen[name] = true
		add(extraction.EvidenceIndex[name])
	}
	if len(out) >= model.MaxFindingEvidence || len(r.Evidence.Keywords) == 0 {
		return out
	}
	for key, items := range extraction.EvidenceIndex {
		if seen[key] {
			continue
		}
		for _, kw := range r.Evidence.Keywords {
			if strings.Contains(strings.ToLower(key), strings.ToLower(kw)) {
				add(items)
				break
			}
		}
		if len(out) >= model.MaxFindingEvidence {
			break
		}
	}
	return out
}

// keywordEvidence scans text blocks for any of the keywords and returns
// matching snippets as evidence. Used by validators that ground a decision
// in body text rather than a mapped field.
func keywordEvidence(extraction *model.ExtractionResult, keywords []string, max int) []model.Evidence {
	if extraction == nil || len(keywords) == 0 {
		return nil
	}
	var out []model.Evidence
	for _, block := range extraction.TextBlocks {
		lower := strings.ToLower(block.Text)
		for _, kw := range keywords {
			if kw == "" || !strings.Contains(lower, strings.ToLower(kw)) {
				continue
			}
			out = append(out, model.Evidence{
				Page:    block.Page,
				Snippet: block.Text,
				Source:  "text_block",
			}.Truncate())
			break
		}
		if len(out) >= max {
			break
		}
	}
	return out
}
