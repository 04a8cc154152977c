package documents_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/pkg/query"
	"github.com/JaimeStill/docket/pkg/repository"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", documents.ErrNotFound, http.StatusNotFound},
		{"duplicate", documents.ErrDuplicate, http.StatusConflict},
		{"invalid decision", documents.ErrInvalidDecision, http.StatusBadRequest},
		{"invalid request", documents.ErrInvalidRequest, http.StatusBadRequest},
		{"check violation", fmt.Errorf("update: %w", repository.ErrInvalid), http.StatusBadRequest},
		{"unknown error", errors.New("something else"), http.StatusInternalServerError},
		{"wrapped not found", fmt.Errorf("find failed: %w", documents.ErrNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := documents.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidDecision(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{documents.Responsive, true},
		{documents.NonResponsive, true},
		{documents.Uncertain, true},
		{documents.Duplicate, false},
		{"", false},
		{"non-responsive", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := documents.ValidDecision(tt.label); got != tt.want {
				t.Errorf("ValidDecision(%q) = %v, want %v", tt.label, got, tt.want)
			}
		})
	}
}

func TestFiltersFromQuery(t *testing.T) {
	t.Run("all params present", func(t *testing.T) {
		values := url.Values{
			"classification": {"responsive"},
			"filename":       {"memo"},
			"reviewed":       {"true"},
			"duplicate":      {"false"},
			"errored":        {"1"},
		}

		f := documents.FiltersFromQuery(values)

		if f.Classification == nil || *f.Classification != "responsive" {
			t.Errorf("Classification = %v, want responsive", f.Classification)
		}
		if f.Filename == nil || *f.Filename != "memo" {
			t.Errorf("Filename = %v, want memo", f.Filename)
		}
		if f.Reviewed == nil || !*f.Reviewed {
			t.Errorf("Reviewed = %v, want true", f.Reviewed)
		}
		if f.Duplicate == nil || *f.Duplicate {
			t.Errorf("Duplicate = %v, want false", f.Duplicate)
		}
		if f.Errored == nil || !*f.Errored {
			t.Errorf("Errored = %v, want true", f.Errored)
		}
	})

	t.Run("empty and invalid params ignored", func(t *testing.T) {
		f := documents.FiltersFromQuery(url.Values{"reviewed": {"maybe"}})

		if f.Classification != nil || f.Filename != nil || f.Reviewed != nil || f.Duplicate != nil || f.Errored != nil {
			t.Errorf("FiltersFromQuery() = %+v, want all nil", f)
		}
	})
}

func TestFiltersApply(t *testing.T) {
	f := documents.Filters{
		Classification: ptr("responsive"),
		Reviewed:       ptr(true),
		Filename:       ptr("memo"),
		Duplicate:      ptr(false),
	}

	sql, args := f.Apply(query.NewBuilder(documents.Projection)).BuildCount()

	wants := []string{
		"(d.classification = $1 OR d.human_decision = $2)",
		"d.human_decision <> ''",
		"d.filename ILIKE $3",
		"d.is_duplicate = $4",
	}
	for _, want := range wants {
		if !strings.Contains(sql, want) {
			t.Errorf("sql missing %q:\n%s", want, sql)
		}
	}
	if len(args) != 4 {
		t.Fatalf("len(args) = %d, want 4", len(args))
	}
	if args[2] != "%memo%" {
		t.Errorf("args[2] = %v, want %%memo%%", args[2])
	}
}

func TestFiltersMatch(t *testing.T) {
	doc := documents.Document{
		Filename:       "Budget_Memo.txt",
		Classification: documents.NonResponsive,
		HumanDecision:  documents.Responsive,
	}

	tests := []struct {
		name    string
		filters documents.Filters
		want    bool
	}{
		{"no filters", documents.Filters{}, true},
		{"classification matches human decision", documents.Filters{Classification: ptr("responsive")}, true},
		{"classification matches model label", documents.Filters{Classification: ptr("non_responsive")}, true},
		{"classification mismatch", documents.Filters{Classification: ptr("uncertain")}, false},
		{"filename case insensitive", documents.Filters{Filename: ptr("memo")}, true},
		{"reviewed", documents.Filters{Reviewed: ptr(true)}, true},
		{"unreviewed", documents.Filters{Reviewed: ptr(false)}, false},
		{"duplicate", documents.Filters{Duplicate: ptr(true)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filters.Match(&doc); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTally(t *testing.T) {
	docs := []documents.Document{
		{Filename: "a", Classification: documents.Responsive, Exemptions: []exemptions.Exemption{{Type: "ssn"}}},
		{Filename: "b", Classification: documents.Responsive, HumanDecision: documents.Responsive},
		{Filename: "c", Classification: documents.Uncertain, HumanDecision: documents.NonResponsive},
		{Filename: "d", Classification: documents.Duplicate, IsDuplicate: true},
		{Filename: "e", Classification: documents.Uncertain, Errored: true},
	}

	got := documents.Tally(docs)
	want := documents.Statistics{
		Total:          5,
		Reviewed:       2,
		Responsive:     2,
		NonResponsive:  1,
		Uncertain:      1,
		Duplicates:     1,
		Errors:         1,
		WithExemptions: 1,
		Agreed:         1,
		AgreementRate:  0.5,
	}

	if got != want {
		t.Errorf("Tally() = %+v, want %+v", got, want)
	}
}

func TestTallyEmpty(t *testing.T) {
	if got := documents.Tally(nil); got != (documents.Statistics{}) {
		t.Errorf("Tally(nil) = %+v, want zero", got)
	}
}
