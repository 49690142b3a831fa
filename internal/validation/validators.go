package validation

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"plancheck/internal/catalog"
)

// validatorFunc evaluates one rule against the dispatch context. Validators
// never return errors: anything unevaluable becomes a needs_review finding.
type validatorFunc func(ctx context.Context, rule catalog.Rule, vctx *Context) Finding

// fieldFormat is a pattern/length constraint applied once a value is found.
type fieldFormat struct {
	pattern *regexp.Regexp
	maxLen  int
	label   string
}

// knownFormats are checked by suffix match on the field name, so
// "applicant_postcode" and "site_postcode" share the postcode rule.
var knownFormats = map[string]fieldFormat{
	"postcode": {
		pattern: regexp.MustCompile(`(?i)^[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}$`),
		label:   "a valid UK postcode",
	},
	"email": {
		pattern: regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		maxLen:  254,
		label:   "a valid email address",
	},
	"phone": {
		pattern: regexp.MustCompile(`^[\d+()\s-]{7,20}$`),
		label:   "a valid phone number",
	},
}

// minBiodiversityGainPercent is the statutory net-gain floor.
const minBiodiversityGainPercent = 10.0

// ownershipCertificateTypes are the recognized certificate classes.
var ownershipCertificateTypes = map[string]bool{"A": true, "B": true, "C": true, "D": true}

// defaultPlanQualityKeywords back the plan-quality heuristic when a rule
// carries no keyword hints of its own.
var defaultPlanQualityKeywords = []string{"scale", "north"}

// ----------------------------------------------------------------------------
// Finding constructors
// ----------------------------------------------------------------------------

func pass(rule catalog.Rule, message string, evidence ...string) Finding {
	return Finding{RuleID: rule.ID, Status: StatusPass, Message: message, Evidence: evidence, Confidence: 1.0}
}

func fail(rule catalog.Rule, message string, missing ...string) Finding {
	return Finding{RuleID: rule.ID, Status: StatusFail, Message: message, MissingFields: missing, Confidence: 1.0}
}

func review(rule catalog.Rule, message string) Finding {
	return Finding{RuleID: rule.ID, Status: StatusNeedsReview, Message: message}
}

// ----------------------------------------------------------------------------
// field-required (default presence/pattern/length check)
// ----------------------------------------------------------------------------

func validateFieldRequired(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	if len(rule.RequiredFields) == 0 {
		// Nothing is required, so there is nothing to fail.
		return pass(rule, "no required fields")
	}

	var present []string
	var missing []string
	minConfidence := 1.0
	for _, name := range rule.RequiredFields {
		fv, ok := vctx.Extraction.Field(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		if f := formatFor(name); f.pattern != nil || f.maxLen > 0 {
			if msg, ok := checkFormat(name, fv.Value, f); !ok {
				return fail(rule, msg)
			}
		}
		present = append(present, name)
		if fv.Confidence < minConfidence {
			minConfidence = fv.Confidence
		}
	}

	if rule.RequiredFieldsAny {
		if len(present) == 0 {
			return fail(rule, "none of the alternative fields are present", missing...)
		}
	} else if len(missing) > 0 {
		return fail(rule, fmt.Sprintf("%d required field(s) missing", len(missing)), missing...)
	}

	if rule.Evidence.MinConfidence > 0 && minConfidence < rule.Evidence.MinConfidence {
		f := review(rule, fmt.Sprintf("extraction confidence %.2f below rule floor %.2f", minConfidence, rule.Evidence.MinConfidence))
		f.Confidence = minConfidence
		return f
	}

	f := pass(rule, "required fields present")
	f.Confidence = minConfidence
	return f
}

func formatFor(field string) fieldFormat {
	for suffix, f := range knownFormats {
		if strings.HasSuffix(field, suffix) {
			return f
		}
	}
	return fieldFormat{}
}

func checkFormat(field, value string, f fieldFormat) (string, bool) {
	if f.maxLen > 0 && len(value) > f.maxLen {
		return fmt.Sprintf("%s exceeds %d characters", field, f.maxLen), false
	}
	if f.pattern != nil && !f.pattern.MatchString(strings.TrimSpace(value)) {
		return fmt.Sprintf("%s is not %s", field, f.label), false
	}
	return "", true
}

// ----------------------------------------------------------------------------
// document-required
// ----------------------------------------------------------------------------

func validateDocumentRequired(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	sources := rule.Evidence.SourceTypes
	if len(sources) == 1 && sources[0] == "unknown" {
		return review(rule, "rule does not specify which document types satisfy it")
	}

	for _, docType := range sources {
		if vctx.Extraction.HasDocumentType(docType) {
			return pass(rule, "expected document present", "document: "+docType)
		}
	}

	// Keyword fallback: the material may exist in an unclassified document.
	if term, ok := vctx.index().AnyOf(rule.Evidence.Keywords); ok {
		snippet, _ := vctx.index().Snippet(term)
		f := review(rule, fmt.Sprintf("no %s document classified, but %q appears in submission text", strings.Join(sources, "/"), term))
		f.Evidence = []string{snippet}
		return f
	}

	return fail(rule, "expected document type(s) missing: "+strings.Join(sources, ", "))
}

// ----------------------------------------------------------------------------
// consistency (cross-field)
// ----------------------------------------------------------------------------

func validateConsistency(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	if len(rule.RequiredFields) < 2 {
		return review(rule, "consistency rule needs at least two fields to compare")
	}

	values := make(map[string]string, len(rule.RequiredFields))
	var missing []string
	for _, name := range rule.RequiredFields {
		fv, ok := vctx.Extraction.Field(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		values[name] = fv.Value
	}
	if len(missing) > 0 {
		f := review(rule, "cannot compare: field(s) missing")
		f.MissingFields = missing
		return f
	}

	first := rule.RequiredFields[0]
	for _, name := range rule.RequiredFields[1:] {
		if normalize(values[first]) != normalize(values[name]) {
			return fail(rule, fmt.Sprintf("%s (%q) disagrees with %s (%q)", name, values[name], first, values[first]))
		}
	}

	evidence := []string{}
	if snippet, ok := vctx.index().Snippet(values[first]); ok {
		evidence = append(evidence, snippet)
	}
	return pass(rule, "fields agree", evidence...)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ----------------------------------------------------------------------------
// modification (version-aware)
// ----------------------------------------------------------------------------

func validateModification(ctx context.Context, rule catalog.Rule, vctx *Context) Finding {
	if !vctx.versionAware() {
		return review(rule, "modification rule requires a submission id and repository handle")
	}
	version, err := vctx.lookupVersion(ctx)
	if err != nil {
		return review(rule, "could not load persisted submission: "+err.Error())
	}

	// The persisted record and the live extraction must agree for the fields
	// this rule watches; divergence means the amendment bypassed recording.
	for _, name := range rule.RequiredFields {
		persisted, inRepo := version.Fields[name]
		fv, inExtraction := vctx.Extraction.Field(name)
		if !inRepo || !inExtraction {
			continue
		}
		if normalize(persisted) != normalize(fv.Value) {
			return fail(rule, fmt.Sprintf("persisted %s (%q) does not match extracted value (%q)", name, persisted, fv.Value))
		}
	}
	return pass(rule, "persisted and extracted values agree")
}

// ----------------------------------------------------------------------------
// spatial (geometry bound)
// ----------------------------------------------------------------------------

func validateSpatial(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	if len(rule.RequiredFields) == 0 {
		return review(rule, "spatial rule names no metric fields")
	}
	for _, name := range rule.RequiredFields {
		fv, ok := vctx.Extraction.Field(name)
		if !ok {
			return fail(rule, "spatial metric missing", name)
		}
		value, err := parseMeasurement(fv.Value)
		if err != nil {
			return review(rule, fmt.Sprintf("%s is not a measurable value: %q", name, fv.Value))
		}
		if value <= 0 {
			return fail(rule, fmt.Sprintf("%s must be a positive measurement, got %v", name, value))
		}
		if fv.Unit == "" && !hasUnitSuffix(fv.Value) {
			return review(rule, fmt.Sprintf("%s has no unit; cannot verify geometry bound", name))
		}
	}
	return pass(rule, "spatial metrics within bounds")
}

// parseMeasurement accepts "12.5", "12.5m", "12.5 m2" style values.
func parseMeasurement(s string) (float64, error) {
	s = strings.TrimSpace(s)
	end := len(s)
	for i, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != '-' {
			end = i
			break
		}
	}
	return strconv.ParseFloat(strings.TrimSpace(s[:end]), 64)
}

func hasUnitSuffix(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) > 0 && (strings.HasSuffix(s, "m") || strings.HasSuffix(s, "m2") ||
		strings.HasSuffix(s, "m²") || strings.HasSuffix(s, "ha") || strings.HasSuffix(s, "sqm"))
}

// ----------------------------------------------------------------------------
// fee (amount bound)
// ----------------------------------------------------------------------------

func validateFee(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	fields := rule.RequiredFields
	if len(fields) == 0 {
		fields = []string{"fee_amount"}
	}
	fv, ok := vctx.Extraction.Field(fields[0])
	if !ok {
		if term, found := vctx.index().AnyOf([]string{"fee exempt", "exemption"}); found {
			snippet, _ := vctx.index().Snippet(term)
			return pass(rule, "fee exemption claimed", snippet)
		}
		return fail(rule, "fee amount missing", fields[0])
	}
	amount, err := parseMeasurement(strings.TrimPrefix(strings.TrimSpace(fv.Value), "£"))
	if err != nil {
		return review(rule, fmt.Sprintf("fee amount is not numeric: %q", fv.Value))
	}
	if amount <= 0 {
		return fail(rule, fmt.Sprintf("fee amount must be positive, got %v", amount))
	}
	return pass(rule, fmt.Sprintf("fee amount %v recorded", amount))
}

// ----------------------------------------------------------------------------
// ownership (certificate type)
// ----------------------------------------------------------------------------

func validateOwnership(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	fields := rule.RequiredFields
	if len(fields) == 0 {
		fields = []string{"ownership_certificate"}
	}
	fv, ok := vctx.Extraction.Field(fields[0])
	if !ok {
		return fail(rule, "ownership certificate not declared", fields[0])
	}
	cert := strings.ToUpper(strings.TrimSpace(fv.Value))
	cert = strings.TrimPrefix(cert, "CERTIFICATE ")
	if !ownershipCertificateTypes[cert] {
		return fail(rule, fmt.Sprintf("unrecognized ownership certificate type %q (expected A, B, C or D)", fv.Value))
	}
	return pass(rule, "ownership certificate "+cert+" declared")
}

// ----------------------------------------------------------------------------
// prior-approval (applicability)
// ----------------------------------------------------------------------------

func validatePriorApproval(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	fields := rule.RequiredFields
	if len(fields) == 0 {
		fields = []string{"prior_approval_required"}
	}
	fv, ok := vctx.Extraction.Field(fields[0])
	if !ok {
		return review(rule, "prior approval applicability not stated")
	}
	applicable, err := parseBool(fv.Value)
	if err != nil {
		return review(rule, fmt.Sprintf("cannot read prior approval applicability from %q", fv.Value))
	}
	if !applicable {
		return pass(rule, "prior approval not applicable")
	}
	for _, docType := range rule.Evidence.SourceTypes {
		if docType != "unknown" && vctx.Extraction.HasDocumentType(docType) {
			return pass(rule, "prior approval evidence present", "document: "+docType)
		}
	}
	return fail(rule, "prior approval applies but no supporting document is present")
}

// ----------------------------------------------------------------------------
// constraint (flag presence)
// ----------------------------------------------------------------------------

func validateConstraint(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	if len(rule.RequiredFields) == 0 {
		return review(rule, "constraint rule names no flags")
	}
	var unassessed []string
	for _, name := range rule.RequiredFields {
		fv, ok := vctx.Extraction.Field(name)
		if !ok {
			unassessed = append(unassessed, name)
			continue
		}
		if _, err := parseBool(fv.Value); err != nil {
			return review(rule, fmt.Sprintf("constraint flag %s has unreadable value %q", name, fv.Value))
		}
	}
	if len(unassessed) > 0 {
		return fail(rule, "constraint flag(s) not assessed", unassessed...)
	}
	return pass(rule, "all constraint flags assessed")
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "y", "1":
		return true, nil
	case "no", "false", "n", "0":
		return false, nil
	default:
		return false, fmt.Errorf("not a yes/no value: %q", s)
	}
}

// ----------------------------------------------------------------------------
// biodiversity-offset (percentage)
// ----------------------------------------------------------------------------

func validateBiodiversityOffset(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	fields := rule.RequiredFields
	if len(fields) == 0 {
		fields = []string{"biodiversity_net_gain_percent"}
	}
	fv, ok := vctx.Extraction.Field(fields[0])
	if !ok {
		return fail(rule, "biodiversity net gain not stated", fields[0])
	}
	percent, err := parseMeasurement(strings.TrimSuffix(strings.TrimSpace(fv.Value), "%"))
	if err != nil {
		return review(rule, fmt.Sprintf("biodiversity net gain is not numeric: %q", fv.Value))
	}
	if percent < minBiodiversityGainPercent {
		return fail(rule, fmt.Sprintf("biodiversity net gain %.1f%% is below the %.0f%% requirement", percent, minBiodiversityGainPercent))
	}
	return pass(rule, fmt.Sprintf("biodiversity net gain %.1f%% meets the requirement", percent))
}

// ----------------------------------------------------------------------------
// plan-quality (heuristic)
// ----------------------------------------------------------------------------

func validatePlanQuality(_ context.Context, rule catalog.Rule, vctx *Context) Finding {
	keywords := rule.Evidence.Keywords
	if len(keywords) == 0 {
		keywords = defaultPlanQualityKeywords
	}
	var hits []string
	for _, kw := range keywords {
		if snippet, ok := vctx.index().Snippet(kw); ok {
			hits = append(hits, snippet)
		}
	}
	switch {
	case len(hits) == len(keywords):
		return pass(rule, "plan quality markers present", hits...)
	case len(hits) > 0:
		f := review(rule, fmt.Sprintf("only %d of %d plan quality markers found", len(hits), len(keywords)))
		f.Evidence = hits
		return f
	default:
		return fail(rule, "no plan quality markers (e.g. scale bar, north point) found")
	}
}
