package catalog

import (
	"regexp"
	"strconv"
	"strings"

	id "plancheck/pkg/domain"
	strutil "plancheck/pkg/platform/strings"
)

// Header forms recognized as the start of a rule block:
//
//	RULE-12: Title text
//	12 - Title text
//	3.1.4: Title text
//
// Anything between one header and the next belongs to the open block.
var (
	rulePrefixHeader = regexp.MustCompile(`(?i)^RULE-(\d+)\s*[:\-]\s*(.+)$`)
	numericHeader    = regexp.MustCompile(`^(\d+(?:\.\d+)*)\s*[:\-]\s*(.+)$`)
)

// metadataLine matches "Label: value" or "Label - value" with a known label.
var metadataLine = regexp.MustCompile(`(?i)^\s*(required fields(?:\s*\(any\))?|evidence|severity|applies to|tags|keywords|category|dependent fields|triggers)\s*[:\-]\s*(.*)$`)

// ParseResult carries the parsed rules plus non-fatal authoring warnings.
// Malformed blocks are dropped rather than raised, but every drop or
// fallback is reported here so catalog errors stay visible.
type ParseResult struct {
	Rules    []Rule
	Warnings []string
}

// Parse reads semi-structured catalog text into ordered Rule records.
//
// Text before the first header is ignored. Labelled metadata lines are
// tolerant of case and of ':' vs '-' separators; unlabelled lines accumulate
// as description. Missing labels fall back to defaults: evidence source
// types ["unknown"], severity error, category field-required.
func Parse(text string) ParseResult {
	var res ParseResult
	var current *Rule
	var descLines []string

	flush := func() {
		if current == nil {
			return
		}
		current.Description = strings.TrimSpace(strings.Join(descLines, "\n"))
		applyDefaults(current)
		res.Rules = append(res.Rules, *current)
		current = nil
		descLines = nil
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if ruleID, title, ok := matchHeader(line); ok {
			flush()
			current = &Rule{ID: ruleID, Title: title}
			continue
		}

		if current == nil {
			// Preamble or a stray header-like line with no open block.
			if looksHeaderish(line) {
				res.Warnings = append(res.Warnings, "dropped header-like line outside any rule block: "+truncate(line, 80))
			}
			continue
		}

		if m := metadataLine.FindStringSubmatch(line); m != nil {
			applyMetadata(current, strings.ToLower(strings.TrimSpace(m[1])), strings.TrimSpace(m[2]), &res.Warnings)
			continue
		}

		descLines = append(descLines, line)
	}
	flush()

	return res
}

// matchHeader recognizes both header forms and normalizes the id to R<n>.
func matchHeader(line string) (id.RuleID, string, bool) {
	if m := rulePrefixHeader.FindStringSubmatch(line); m != nil {
		return id.RuleID("R" + m[1]), strings.TrimSpace(m[2]), true
	}
	if m := numericHeader.FindStringSubmatch(line); m != nil {
		return id.RuleID("R" + m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// looksHeaderish flags lines that resemble a rule header but match neither
// pattern, so authors hear about probable typos.
func looksHeaderish(line string) bool {
	return strings.HasPrefix(strings.ToUpper(line), "RULE")
}

func applyMetadata(r *Rule, label, value string, warnings *[]string) {
	switch {
	case strings.HasPrefix(label, "required fields"):
		r.RequiredFields = splitList(value)
		if strings.Contains(label, "any") || strings.Contains(strings.ToLower(value), "(any)") {
			r.RequiredFieldsAny = true
		}
	case label == "evidence":
		parseEvidence(r, value)
	case label == "severity":
		sev := Severity(strings.ToLower(value))
		if sev.IsValid() {
			r.Severity = sev
		} else {
			*warnings = append(*warnings, string(r.ID)+": unknown severity "+strconv.Quote(value)+", defaulting to error")
		}
	case label == "applies to", label == "tags":
		r.AppliesTo = strutil.DedupeAndTrim(append(r.AppliesTo, splitList(value)...))
	case label == "keywords":
		r.Evidence.Keywords = strutil.DedupeAndTrim(splitList(value))
	case label == "category":
		cat, err := ParseCategory(strings.ToLower(value))
		if err != nil {
			*warnings = append(*warnings, string(r.ID)+": unknown category "+strconv.Quote(value)+", defaulting to field-required")
			return
		}
		r.Category = cat
	case label == "dependent fields":
		parseDependentFields(r, value, warnings)
	case label == "triggers":
		for _, t := range splitList(value) {
			ruleID, err := id.ParseRuleID(normalizeRuleRef(t))
			if err != nil {
				continue
			}
			r.TriggersRules = append(r.TriggersRules, ruleID)
		}
	}
}

// parseEvidence reads "type_a, type_b; min confidence: 0.7" style values.
func parseEvidence(r *Rule, value string) {
	for _, part := range strings.Split(value, ";") {
		part = strings.TrimSpace(part)
		lower := strings.ToLower(part)
		if strings.HasPrefix(lower, "min confidence") {
			if i := strings.IndexAny(part, ":-"); i >= 0 {
				if f, err := strconv.ParseFloat(strings.TrimSpace(part[i+1:]), 64); err == nil {
					r.Evidence.MinConfidence = f
				}
			}
			continue
		}
		r.Evidence.SourceTypes = append(r.Evidence.SourceTypes, splitList(part)...)
	}
}

// parseDependentFields reads "site_address (critical), fee_amount (medium)".
// Fields without an explicit level default to medium.
func parseDependentFields(r *Rule, value string, warnings *[]string) {
	if r.DependentFields == nil {
		r.DependentFields = make(map[string]ImpactLevel)
	}
	for _, part := range splitList(value) {
		name := part
		level := ImpactMedium
		if i := strings.Index(part, "("); i >= 0 {
			name = strings.TrimSpace(part[:i])
			lv := ImpactLevel(strings.ToLower(strings.Trim(part[i:], "() ")))
			if lv.IsValid() {
				level = lv
			} else {
				*warnings = append(*warnings, string(r.ID)+": unknown impact level in dependent field "+strconv.Quote(part))
			}
		}
		if name != "" {
			r.DependentFields[name] = level
		}
	}
}

func applyDefaults(r *Rule) {
	if len(r.Evidence.SourceTypes) == 0 {
		r.Evidence.SourceTypes = []string{"unknown"}
	}
	if r.Severity == "" {
		r.Severity = SeverityError
	}
	if r.Category == "" {
		r.Category = CategoryFieldRequired
	}
}

// normalizeRuleRef accepts "R3", "RULE-3", or bare "3" trigger references.
func normalizeRuleRef(s string) string {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)
	switch {
	case strings.HasPrefix(upper, "RULE-"):
		return "R" + s[5:]
	case strings.HasPrefix(upper, "R"):
		return "R" + s[1:]
	default:
		return "R" + s
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
