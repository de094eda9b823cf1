package rules

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
)

// LoadXLSX reads a rule catalogue maintained as a spreadsheet: one rule per
// row, a header row naming the columns, list cells separated by semicolons
// and the per-category config held as an inline YAML cell.
func LoadXLSX(path string) (*Catalogue, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "rules: open catalogue %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("rules: catalogue %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) < 2 {
		return nil, eris.Errorf("rules: catalogue %s has no rule rows", path)
	}

	header := map[string]int{}
	for i, cell := range sheet.Rows[0].Cells {
		header[strings.TrimSpace(strings.ToLower(cell.String()))] = i
	}
	if _, ok := header["rule_id"]; !ok {
		return nil, eris.Errorf("rules: catalogue %s is missing a rule_id column", path)
	}

	var list []Rule
	for i, row := range sheet.Rows[1:] {
		rule, err := ruleFromRow(row, header)
		if err != nil {
			return nil, eris.Wrapf(err, "rules: row %d", i+2)
		}
		if rule == nil {
			continue // blank row
		}
		list = append(list, *rule)
	}

	cat, err := NewCatalogue(list)
	if err != nil {
		return nil, err
	}

	zap.L().Info("rules: catalogue loaded",
		zap.String("path", path),
		zap.Int("rules", cat.Len()),
	)
	return cat, nil
}

func ruleFromRow(row *xlsx.Row, header map[string]int) (*Rule, error) {
	cell := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(row.Cells) {
			return ""
		}
		return strings.TrimSpace(row.Cells[idx].String())
	}
	list := func(name string) []string {
		raw := cell(name)
		if raw == "" {
			return nil
		}
		parts := strings.Split(raw, ";")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	id := cell("rule_id")
	if id == "" {
		return nil, nil
	}

	anyFields, _ := strconv.ParseBool(cell("required_fields_any"))

	rule := &Rule{
		ID:                id,
		Title:             cell("title"),
		Description:       cell("description"),
		Category:          Category(cell("rule_category")),
		RequiredFields:    list("required_fields"),
		RequiredFieldsAny: anyFields,
		Severity:          model.Severity(cell("severity")),
		AppliesTo:         list("applies_to"),
		Tags:              list("tags"),
	}

	rule.Evidence.SourceTypes = list("evidence_source_types")
	rule.Evidence.Keywords = list("evidence_keywords")
	if raw := cell("evidence_min_confidence"); raw != "" {
		conf, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, eris.Wrapf(err, "parse evidence_min_confidence %q", raw)
		}
		rule.Evidence.MinConfidence = conf
	}

	if raw := cell("config"); raw != "" {
		if err := yaml.Unmarshal([]byte(raw), &rule.Config); err != nil {
			return nil, eris.Wrapf(err, "parse config cell for %s", id)
		}
	}

	return rule, nil
}
