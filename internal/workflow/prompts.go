package workflow

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/feedback"
)

// SystemPrompt instructs the classifier on labels and response format.
const SystemPrompt = `You are a FOIA (Freedom of Information Act) response analyst.
Your job is to classify documents based on whether they are responsive to a FOIA request.

Classify documents as:
- "responsive": The document directly relates to or discusses the topic in the FOIA request
- "non_responsive": The document is clearly unrelated to the FOIA request
- "uncertain": You're not sure if the document is responsive (ambiguous cases)

You must respond with valid JSON containing these exact fields:
{
    "classification": "responsive" or "non_responsive" or "uncertain",
    "confidence": 0.0 to 1.0,
    "justification": "your explanation here"
}`

// BuildPrompt composes the classification prompt. When entries is not
// empty, a section summarizing reviewer corrections precedes the document.
func BuildPrompt(request, content string, entries []feedback.Entry) agent.Prompt {
	var sb strings.Builder
	sb.WriteString("FOIA Request: ")
	sb.WriteString(request)
	sb.WriteString("\n\n")

	if len(entries) > 0 {
		sb.WriteString(FeedbackSection(entries))
		sb.WriteString("\n")
	}

	sb.WriteString("Document Content:\n")
	sb.WriteString(content)
	sb.WriteString("\n\nClassify this document and explain your reasoning.")

	return agent.Prompt{
		System:  SystemPrompt,
		User:    sb.String(),
		Request: request,
		Content: content,
	}
}

// FeedbackSection renders reviewer corrections as correction pattern counts
// followed by the corrected examples.
func FeedbackSection(entries []feedback.Entry) string {
	var sb strings.Builder
	sb.WriteString("Reviewer corrections for this request:\n")
	for _, p := range feedback.Patterns(entries) {
		fmt.Fprintf(&sb, "- %s: %d\n", p.Pattern, p.Count)
	}

	sb.WriteString("\nCorrected examples:\n")
	for i, e := range entries {
		fmt.Fprintf(
			&sb, "%d. %s was classified %s (confidence %.2f); the reviewer decided %s.\n",
			i+1, e.Filename, e.OriginalClassification, e.OriginalConfidence, e.HumanDecision,
		)
		if e.Snippet != "" {
			fmt.Fprintf(&sb, "   Excerpt: %q\n", e.Snippet)
		}
	}

	sb.WriteString("\nApply the same judgment to documents that resemble these examples.\n")
	return sb.String()
}
