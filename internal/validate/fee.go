package validate

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

const defaultFeeField = "fee_amount"

// parseAmount reads a monetary or numeric field value, tolerating currency
// symbols and thousands separators.
func parseAmount(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	}
	s := asString(v)
	s = strings.NewReplacer("£", "", "$", "", "€", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// validateFee checks the declared fee against the acceptable range for the
// application type. Out-of-range fees go to review rather than hard fail:
// councils routinely apply discounts and surcharges the catalogue does not
// model.
func validateFee(_ context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	cfg := r.Config.Fee
	appType := vctx.ApplicationType

	if cfg != nil {
		for _, exempt := range cfg.ExemptTypes {
			if exempt == appType {
				return passFinding(r, fmt.Sprintf("application type %s is fee exempt", appType)), nil
			}
		}
	}

	field := defaultFeeField
	if cfg != nil && cfg.FeeField != "" {
		field = cfg.FeeField
	}
	amount, ok := parseAmount(vctx.Extraction.Fields[field])
	if !ok {
		f := reviewFinding(r, fmt.Sprintf("fee field %s missing or unreadable", field))
		f.MissingFields = []string{field}
		return f, nil
	}

	rng, ok := cfg.RangeFor(appType)
	if !ok {
		return nil, nil
	}
	if rng.Contains(amount) {
		return passFinding(r, fmt.Sprintf("fee %.2f within expected range", amount)), nil
	}
	f := reviewFinding(r, fmt.Sprintf("fee %.2f outside expected range [%.2f, %.2f] for %s",
		amount, rng.Min, rng.Max, appType))
	f.AttachEvidence(collectEvidence(vctx.Extraction, r, []string{field})...)
	return f, nil
}
