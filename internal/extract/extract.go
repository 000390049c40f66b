// Package extract pulls structured hints out of raw medical document text
// with simple pattern matching.
package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Document types returned by ClassifyDocumentType
const (
	TypeLaboratory   = "Laboratory Results"
	TypePrescription = "Prescription"
	TypeDischarge    = "Discharge Summary"
	TypeImaging      = "Imaging Report"
	TypeGeneral      = "Medical Document"
)

// DocumentTypes lists every classification, most specific first
var DocumentTypes = []string{TypeLaboratory, TypePrescription, TypeDischarge, TypeImaging, TypeGeneral}

// typeRules are checked in order; the first rule with a matching term wins
var typeRules = []struct {
	docType string
	terms   []string
}{
	{TypeLaboratory, []string{"lab", "laboratory", "blood test", "urinalysis"}},
	{TypePrescription, []string{"prescription", "medication", "pharmacy"}},
	{TypeDischarge, []string{"discharge", "summary", "hospital"}},
	{TypeImaging, []string{"radiology", "x-ray", "ct scan", "mri"}},
}

var concerningTerms = []string{"abnormal", "elevated", "low", "high", "critical"}

var (
	knownMedicationPattern = regexp.MustCompile(`(?i)\b(aspirin|ibuprofen|acetaminophen|metformin|lisinopril|atorvastatin|amlodipine|metoprolol|omeprazole|losartan)\b`)
	dosagePattern          = regexp.MustCompile(`(?i)\b\w+\s+\d+\s*mg\b`)
	labValuePattern        = regexp.MustCompile(`(?i)\b(\w+)\s*:?\s*(\d+\.?\d*)\s*(mg/dl|g/dl|mmol/l)`)
	datePatterns           = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`),
		regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{1,2},?\s+\d{2,4}\b`),
	}
)

// Entities are the hints found in a document
type Entities struct {
	Medications []string `json:"medications"`
	LabValues   []string `json:"lab_values"`
	Dates       []string `json:"dates"`
}

// Empty reports whether nothing was found
func (e Entities) Empty() bool {
	return len(e.Medications) == 0 && len(e.LabValues) == 0 && len(e.Dates) == 0
}

// ClassifyDocumentType guesses the kind of document from its wording
func ClassifyDocumentType(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range typeRules {
		for _, term := range rule.terms {
			if strings.Contains(lower, term) {
				return rule.docType
			}
		}
	}
	return TypeGeneral
}

// ExtractEntities finds medications, lab values and dates in text.
// Each list is de-duplicated and sorted.
func ExtractEntities(text string) Entities {
	var meds []string
	meds = append(meds, knownMedicationPattern.FindAllString(text, -1)...)
	meds = append(meds, dosagePattern.FindAllString(text, -1)...)

	var labs []string
	for _, m := range labValuePattern.FindAllStringSubmatch(text, -1) {
		labs = append(labs, fmt.Sprintf("%s: %s %s", m[1], m[2], m[3]))
	}

	var dates []string
	for _, p := range datePatterns {
		dates = append(dates, p.FindAllString(text, -1)...)
	}

	return Entities{
		Medications: dedupe(meds),
		LabValues:   dedupe(labs),
		Dates:       dedupe(dates),
	}
}

// KeyFindings summarizes entities and flags the first concerning term in text
func KeyFindings(text string, entities Entities) []string {
	findings := []string{}

	if n := len(entities.Medications); n > 0 {
		findings = append(findings, fmt.Sprintf("Document mentions %d medications", n))
	}
	if n := len(entities.LabValues); n > 0 {
		findings = append(findings, fmt.Sprintf("Contains %d laboratory values", n))
	}

	lower := strings.ToLower(text)
	for _, term := range concerningTerms {
		if strings.Contains(lower, term) {
			findings = append(findings, fmt.Sprintf("Document contains '%s' - review recommended", term))
			break
		}
	}

	return findings
}

// Metadata returns the hints as document metadata values
func Metadata(text string) map[string]any {
	entities := ExtractEntities(text)
	return map[string]any{
		"entities": map[string]any{
			"medications": entities.Medications,
			"lab_values":  entities.LabValues,
			"dates":       entities.Dates,
		},
		"key_findings": KeyFindings(text, entities),
	}
}

// dedupe returns the distinct values, trimmed and sorted
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := []string{}
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
