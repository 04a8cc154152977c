// Package exemptions detects candidate FOIA privacy redactions in document text.
package exemptions

import (
	"cmp"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// FOIA exemption codes under 5 U.S.C. § 552(b).
const (
	CodeB1 = "b1"
	CodeB2 = "b2"
	CodeB3 = "b3"
	CodeB4 = "b4"
	CodeB5 = "b5"
	CodeB6 = "b6"
	CodeB7 = "b7"
	CodeB8 = "b8"
	CodeB9 = "b9"
)

// Codes maps each exemption code to its statutory description.
var Codes = map[string]string{
	CodeB1: "Classified national defense and foreign relations information",
	CodeB2: "Internal agency rules and practices",
	CodeB3: "Information prohibited from disclosure by another federal law",
	CodeB4: "Trade secrets and commercial or financial information",
	CodeB5: "Privileged communications within or between agencies",
	CodeB6: "Information that would invade personal privacy",
	CodeB7: "Law enforcement records",
	CodeB8: "Financial institution supervision information",
	CodeB9: "Geological and geophysical information on wells",
}

// Exemption types produced by the Detector.
const (
	TypePhone = "phone"
	TypeSSN   = "ssn"
	TypeEmail = "email"
)

// DefaultGovernmentDomains are email domains never flagged as personal.
var DefaultGovernmentDomains = []string{
	"@agency.gov",
	"@state.gov",
	"@federal.gov",
	".gov",
}

// Exemption is a candidate redaction span. Start and End are character
// (rune) offsets into the scanned content, End exclusive.
type Exemption struct {
	Type        string `json:"type"`
	Code        string `json:"exemption_code"`
	Text        string `json:"text"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Description string `json:"description"`
}

type rule struct {
	kind        string
	description string
	pattern     *regexp.Regexp
}

var rules = []rule{
	{TypePhone, "Personal phone number", regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)},
	{TypePhone, "Personal phone number", regexp.MustCompile(`\(\d{3}\)\s?\d{3}[-.]?\d{4}\b`)},
	{TypeSSN, "Social Security Number", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{TypeEmail, "Personal email address", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
}

// Detector scans text for personally identifiable information.
type Detector struct {
	governmentDomains []string
	logger            *slog.Logger
}

// NewDetector creates a Detector. Emails containing any of governmentDomains
// are treated as official and skipped; a nil slice uses DefaultGovernmentDomains.
func NewDetector(governmentDomains []string, logger *slog.Logger) *Detector {
	if governmentDomains == nil {
		governmentDomains = DefaultGovernmentDomains
	}

	domains := make([]string, len(governmentDomains))
	for i, d := range governmentDomains {
		domains[i] = strings.ToLower(d)
	}

	return &Detector{
		governmentDomains: domains,
		logger:            logger.With("system", "exemptions"),
	}
}

// Detect returns every PII span in content sorted by start offset. When the
// same (text, start) pair is matched by more than one rule only the first
// rule's match is kept. Overlapping spans are logged and left in place.
func (d *Detector) Detect(content string) []Exemption {
	found := make([]Exemption, 0)
	type key struct {
		text  string
		start int
	}
	seen := make(map[key]bool)

	for _, r := range rules {
		for _, loc := range r.pattern.FindAllStringIndex(content, -1) {
			text := content[loc[0]:loc[1]]
			if r.kind == TypeEmail && d.official(text) {
				continue
			}

			start := utf8.RuneCountInString(content[:loc[0]])
			k := key{text, start}
			if seen[k] {
				continue
			}
			seen[k] = true

			found = append(found, Exemption{
				Type:        r.kind,
				Code:        CodeB6,
				Text:        text,
				Start:       start,
				End:         start + utf8.RuneCountInString(text),
				Description: r.description,
			})
		}
	}

	slices.SortStableFunc(found, func(a, b Exemption) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})

	for _, pair := range Overlaps(found) {
		d.logger.Warn(
			"overlapping exemption spans",
			"first", pair[0].Text, "first_type", pair[0].Type,
			"second", pair[1].Text, "second_type", pair[1].Type,
		)
	}

	return found
}

func (d *Detector) official(email string) bool {
	email = strings.ToLower(email)
	for _, domain := range d.governmentDomains {
		if strings.Contains(email, domain) {
			return true
		}
	}
	return false
}

// Overlaps returns each pair of spans in a start-sorted list whose ranges
// intersect.
func Overlaps(sorted []Exemption) [][2]Exemption {
	var pairs [][2]Exemption
	for i := range sorted {
		for j := i + 1; j < len(sorted) && sorted[j].Start < sorted[i].End; j++ {
			pairs = append(pairs, [2]Exemption{sorted[i], sorted[j]})
		}
	}
	return pairs
}
