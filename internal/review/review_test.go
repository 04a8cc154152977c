package review_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/feedback"
	"github.com/JaimeStill/docket/internal/review"
	"github.com/JaimeStill/docket/pkg/pagination"
	"github.com/JaimeStill/docket/pkg/routes"
)

type fixture struct {
	svc   *review.Service
	docs  documents.System
	fb    *feedback.Store
	trail *audit.Trail
	reqID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	page := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

	f := &fixture{
		docs:  documents.NewMemory(logger, page),
		fb:    feedback.New(feedback.NewMemory(), logger),
		trail: audit.NewTrail(audit.NewMemoryStore(page), logger),
		reqID: uuid.New(),
	}
	f.svc = review.New(f.docs, f.fb, f.trail, logger)

	for _, d := range []documents.Document{
		{Filename: "a.txt", Content: "budget memo", Classification: documents.Responsive, Confidence: 0.9},
		{Filename: "b.txt", Content: "lunch order", Classification: documents.Responsive, Confidence: 0.6},
		{Filename: "c.txt", Content: "travel", Classification: documents.NonResponsive, Confidence: 0.8},
	} {
		d.RequestID = f.reqID
		if err := f.docs.Save(context.Background(), d); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}
	return f
}

func (f *fixture) corrections(t *testing.T) int {
	t.Helper()
	summary, err := f.svc.Feedback(context.Background(), f.reqID)
	if err != nil {
		t.Fatalf("Feedback() error = %v", err)
	}
	return summary.Statistics.TotalCorrections
}

func (f *fixture) events(t *testing.T, eventType string) []audit.Event {
	t.Helper()
	events, err := f.trail.Store().All(context.Background(), f.reqID, audit.Filters{Type: &eventType})
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	return events
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name         string
		filename     string
		decision     string
		wantOverride bool
		wantDetails  string
	}{
		{"agreement", "a.txt", documents.Responsive, false, "User Review - Approved"},
		{"override", "b.txt", documents.NonResponsive, true, "User Review - Override"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			out, err := f.svc.Submit(context.Background(), f.reqID, tt.filename, review.Decision{Decision: tt.decision, Note: "checked"})
			if err != nil {
				t.Fatalf("Submit() error = %v", err)
			}

			if out.Override != tt.wantOverride || (out.Feedback != nil) != tt.wantOverride {
				t.Errorf("(override, feedback) = (%v, %v), want override %v", out.Override, out.Feedback, tt.wantOverride)
			}
			if got := f.corrections(t) > 0; got != tt.wantOverride {
				t.Errorf("feedback recorded = %v, want %v", got, tt.wantOverride)
			}
			if out.Document.HumanDecision != tt.decision || out.Document.HumanFeedback != "checked" || out.Document.ReviewedAt == nil {
				t.Errorf("document human fields = %+v", out.Document)
			}

			events := f.events(t, audit.TypeReview)
			if len(events) != 1 || events[0].Details != tt.wantDetails {
				t.Errorf("review events = %+v, want %q", events, tt.wantDetails)
			}
		})
	}
}

func TestSubmitRejects(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		decision string
		want     error
	}{
		{"duplicate is not a decision", "a.txt", documents.Duplicate, review.ErrInvalidDecision},
		{"empty decision", "a.txt", "", review.ErrInvalidDecision},
		{"unknown document", "zzz.txt", documents.Responsive, documents.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.svc.Submit(context.Background(), f.reqID, tt.filename, review.Decision{Decision: tt.decision})
			if !errors.Is(err, tt.want) {
				t.Errorf("Submit() error = %v, want %v", err, tt.want)
			}
			if f.corrections(t) != 0 {
				t.Error("rejected review recorded feedback")
			}
		})
	}
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"a.txt", "c.txt"} {
		if _, err := f.svc.Submit(ctx, f.reqID, name, review.Decision{Decision: documents.Responsive}); err != nil {
			t.Fatal(err)
		}
	}

	all, err := f.svc.Export(ctx, f.reqID, nil)
	if err != nil || len(all) != 2 {
		t.Fatalf("Export(nil) = %d docs, %v; want 2", len(all), err)
	}

	some, err := f.svc.Export(ctx, f.reqID, []string{"c.txt", "b.txt"})
	if err != nil || len(some) != 1 || some[0].Filename != "c.txt" {
		t.Fatalf("Export(subset) = %v, %v; want [c.txt]", some, err)
	}

	events := f.events(t, audit.TypeExport)
	if len(events) != 2 || !strings.HasPrefix(events[1].Details, "Export json - 1 documents") {
		t.Errorf("export events = %+v", events)
	}
}

func TestHandler(t *testing.T) {
	f := newFixture(t)
	h := review.NewHandler(f.svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())

	post := func(target string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		json.NewEncoder(&buf).Encode(body)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", target, &buf))
		return rec
	}

	base := "/requests/" + f.reqID.String()

	t.Run("submit override", func(t *testing.T) {
		rec := post(base+"/documents/b.txt/review", review.Decision{Decision: documents.NonResponsive})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
		}
		var out review.Outcome
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !out.Override {
			t.Error("Override = false")
		}
	})

	t.Run("feedback summary", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", base+"/feedback", nil))

		var summary review.FeedbackSummary
		if err := json.NewDecoder(rec.Body).Decode(&summary); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if summary.Statistics.TotalCorrections != 1 || summary.Statistics.MostCorrected != "responsive → non_responsive" {
			t.Errorf("statistics = %+v", summary.Statistics)
		}
	})

	t.Run("status mapping", func(t *testing.T) {
		tests := []struct {
			name   string
			target string
			body   any
			want   int
		}{
			{"invalid decision", base + "/documents/a.txt/review", review.Decision{Decision: "maybe"}, http.StatusBadRequest},
			{"missing document", base + "/documents/none.txt/review", review.Decision{Decision: documents.Responsive}, http.StatusNotFound},
			{"invalid request id", "/requests/nope/documents/a.txt/review", review.Decision{Decision: documents.Responsive}, http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if rec := post(tt.target, tt.body); rec.Code != tt.want {
					t.Errorf("status = %d, want %d", rec.Code, tt.want)
				}
			})
		}
	})
}
