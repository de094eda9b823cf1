package validate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sgshaji/PlanProof-sub000/internal/model"
	"github.com/sgshaji/PlanProof-sub000/internal/rules"
)

var (
	defaultCertificates       = []string{"a", "b", "c", "d"}
	defaultNoticeCertificates = []string{"b", "c", "d"}
)

// validateOwnership walks the ownership-certificate decision tree: the
// certificate must be declared and recognized, and certificates covering
// land not wholly owned by the applicant additionally require a served
// notice date.
func validateOwnership(_ context.Context, r *rules.Rule, vctx *Context) (*model.Finding, error) {
	cfg := r.Config.Ownership

	certField := "ownership_certificate"
	noticeField := "notice_served_date"
	valid := defaultCertificates
	noticed := defaultNoticeCertificates
	if cfg != nil {
		if cfg.CertificateField != "" {
			certField = cfg.CertificateField
		}
		if cfg.NoticeDateField != "" {
			noticeField = cfg.NoticeDateField
		}
		if len(cfg.ValidCertificates) > 0 {
			valid = lowerAll(cfg.ValidCertificates)
		}
		if len(cfg.NoticeCertificates) > 0 {
			noticed = lowerAll(cfg.NoticeCertificates)
		}
	}

	cert := strings.ToLower(stringField(vctx.Extraction, certField))
	if cert == "" {
		f := reviewFinding(r, "ownership certificate not declared")
		f.MissingFields = []string{certField}
		return f, nil
	}
	cert = strings.TrimPrefix(cert, "certificate ")
	if !contains(valid, cert) {
		return failFinding(r, fmt.Sprintf("unrecognized ownership certificate %q", cert)), nil
	}
	if contains(noticed, cert) && !vctx.Extraction.FieldPresent(noticeField) {
		f := reviewFinding(r, fmt.Sprintf("certificate %s requires a notice served date", strings.ToUpper(cert)))
		f.MissingFields = []string{noticeField}
		return f, nil
	}
	return passFinding(r, fmt.Sprintf("ownership certificate %s in order", strings.ToUpper(cert))), nil
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
