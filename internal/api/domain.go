package api

import (
	"fmt"

	"github.com/JaimeStill/docket/internal/agent"
	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/documents"
	"github.com/JaimeStill/docket/internal/embeddings"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/internal/feedback"
	"github.com/JaimeStill/docket/internal/fingerprint"
	"github.com/JaimeStill/docket/internal/pipeline"
	"github.com/JaimeStill/docket/internal/requests"
	"github.com/JaimeStill/docket/internal/review"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Requests   requests.System
	Documents  documents.System
	Embeddings embeddings.Store
	Feedback   *feedback.Store
	Audit      *audit.Trail
	Review     *review.Service
	Pipeline   *pipeline.Pipeline
	Runner     *pipeline.Runner
}

// NewDomain creates all domain systems from the API runtime. Stores are
// backed by Postgres or held in memory as the runtime selects.
func NewDomain(runtime *Runtime) (*Domain, error) {
	logger := runtime.Logger

	var (
		reqs  requests.System
		docs  documents.System
		store audit.Store
		fbs   feedback.Repository
		embs  embeddings.Store
	)

	if runtime.postgres(runtime.Store) {
		db := runtime.Database.Connection()
		reqs = requests.New(db, logger, runtime.Pagination)
		docs = documents.New(db, logger, runtime.Pagination)
		store = audit.NewRepository(db, logger, runtime.Pagination)
		fbs = feedback.NewRepository(db)
	} else {
		reqs = requests.NewMemory(logger, runtime.Pagination)
		docs = documents.NewMemory(logger, runtime.Pagination)
		store = audit.NewMemoryStore(runtime.Pagination)
		fbs = feedback.NewMemory()
	}

	if runtime.postgres(runtime.Processing.EmbeddingStore) {
		embs = embeddings.New(runtime.Database.Connection(), logger)
	} else {
		embs = embeddings.NewMemory()
	}

	classifier, err := agent.NewClassifier(&runtime.Agent.Classifier, logger)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	embedder, err := agent.NewEmbedder(&runtime.Agent.Embedder, logger)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	fb := feedback.New(fbs, logger)
	trail := audit.NewTrail(store, logger)

	p := pipeline.New(
		pipeline.Runtime{
			Fingerprint: fingerprint.New(embedder, runtime.Processing.EmbedMaxChars, logger),
			Embeddings:  embs,
			Classifier:  classifier,
			Detector:    exemptions.NewDetector(runtime.Processing.GovernmentDomains, logger),
			Documents:   docs,
			Feedback:    fb,
			Audit:       trail,
		},
		runtime.Processing.Pipeline(),
		logger,
	)

	return &Domain{
		Requests:   reqs,
		Documents:  docs,
		Embeddings: embs,
		Feedback:   fb,
		Audit:      trail,
		Review:     review.New(docs, fb, trail, logger),
		Pipeline:   p,
		Runner:     pipeline.NewRunner(p),
	}, nil
}
