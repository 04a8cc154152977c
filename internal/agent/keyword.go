package agent

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/JaimeStill/docket/internal/documents"
)

var (
	wordPattern  = regexp.MustCompile(`[a-z0-9]+`)
	topicPattern = regexp.MustCompile(`\b(?:about|regarding|concerning|related to|relating to|mentioning|on)\s+(.+)$`)
	quotePattern = regexp.MustCompile(`"([^"]+)"`)
)

var stopwords = map[string]bool{
	"all": true, "any": true, "and": true, "the": true, "for": true,
	"from": true, "with": true, "that": true, "this": true, "records": true,
	"documents": true, "emails": true, "email": true, "files": true,
	"between": true, "including": true, "communications": true, "correspondence": true,
}

// Keyword is an offline Classifier that matches the topic of the request
// against document content. It needs no credentials and is intended for
// local runs and tests.
type Keyword struct{}

// NewKeyword creates a Keyword classifier.
func NewKeyword() *Keyword {
	return &Keyword{}
}

func (k *Keyword) Model() string {
	return ProviderKeyword
}

// Classify labels the document responsive when it contains the request
// topic, uncertain when it contains only part of it, and non_responsive
// otherwise. Email-formatted documents carry higher confidence.
func (k *Keyword) Classify(ctx context.Context, prompt Prompt) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Verdict{}, fmt.Errorf("%w: %w", ErrCapability, err)
	}

	topic := Topic(prompt.Request)
	terms := terms(topic)
	content := strings.ToLower(prompt.Content)

	if len(terms) == 0 {
		return Verdict{
			Classification: documents.Uncertain,
			Confidence:     0.5,
			Justification:  "The request has no searchable topic. Requires human review.",
		}, nil
	}

	words := wordPattern.FindAllString(content, -1)
	matched := 0
	for _, t := range terms {
		if slices.Contains(words, t) {
			matched++
		}
	}

	email := strings.Contains(content, "from:") && strings.Contains(content, "to:")
	full := strings.Contains(content, topic) || matched == len(terms)

	switch {
	case full && email:
		return Verdict{
			Classification: documents.Responsive,
			Confidence:     0.95,
			Justification:  fmt.Sprintf("This email directly discusses %q. It contains the key terms and is in email format.", topic),
		}, nil
	case full:
		return Verdict{
			Classification: documents.Responsive,
			Confidence:     0.85,
			Justification:  fmt.Sprintf("This document mentions %q but is not an email. Marking as responsive since it discusses the topic.", topic),
		}, nil
	case matched > 0:
		return Verdict{
			Classification: documents.Uncertain,
			Confidence:     0.60,
			Justification:  fmt.Sprintf("This document mentions %d of %d key terms but does not clearly reference %q. Requires human review.", matched, len(terms), topic),
		}, nil
	default:
		return Verdict{
			Classification: documents.NonResponsive,
			Confidence:     0.90,
			Justification:  fmt.Sprintf("This document does not mention %q or related terms.", topic),
		}, nil
	}
}

// Topic extracts the subject of a request: a quoted phrase when present,
// otherwise the text following "about", "regarding", and similar, otherwise
// the whole request. The result is lower case.
func Topic(request string) string {
	request = strings.TrimSpace(request)
	if m := quotePattern.FindStringSubmatch(request); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}

	lower := strings.ToLower(request)
	if m := topicPattern.FindStringSubmatch(lower); m != nil {
		lower = m[1]
	}
	return strings.TrimRight(strings.TrimSpace(lower), ".?!")
}

func terms(topic string) []string {
	var out []string
	for _, w := range wordPattern.FindAllString(topic, -1) {
		if len(w) < 3 || stopwords[w] || slices.Contains(out, w) {
			continue
		}
		out = append(out, w)
	}
	return out
}
