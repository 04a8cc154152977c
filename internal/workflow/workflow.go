package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/JaimeStill/docket/internal/audit"
	"github.com/JaimeStill/docket/internal/exemptions"
	"github.com/JaimeStill/docket/pkg/state"
)

// Workflow is a compiled classification graph. It is safe for concurrent
// use; each Execute builds its own state.
type Workflow struct {
	rt    *Runtime
	graph state.StateGraph
}

// New compiles the graph for rt.
func New(rt *Runtime) (*Workflow, error) {
	graph, err := buildGraph(rt)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return &Workflow{rt: rt, graph: graph}, nil
}

// Execute runs one document through the graph. Load and classification
// failures are recorded on the returned document; an error is returned only
// when the graph itself cannot complete, such as on cancellation.
func (w *Workflow) Execute(ctx context.Context, in Input) (*Output, error) {
	start := time.Now()

	doc := in.Document
	doc.Exemptions = make([]exemptions.Exemption, 0)
	rec := audit.NewRecorder(doc.RequestID, doc.Filename)

	initial := state.New(map[string]any{
		KeyDocument: doc,
		KeyRequest:  in.Request,
		KeyFeedback: in.Feedback,
		KeyRecorder: rec,
	})

	final, err := w.graph.Execute(ctx, initial)
	if err != nil {
		return nil, fmt.Errorf("execute graph: %w", err)
	}

	result, err := documentFrom(final)
	if err != nil {
		return nil, err
	}
	result.ProcessingTime = time.Since(start)

	return &Output{Document: result, Events: rec.Events()}, nil
}

func buildGraph(rt *Runtime) (state.StateGraph, error) {
	graph, err := state.NewGraph(state.DefaultGraphConfig("docket-classify"))
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("load", LoadNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("duplicate", DuplicateNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("classify", ClassifyNode(rt)); err != nil {
		return nil, err
	}

	if err := graph.AddNode("exempt", ExemptNode(rt)); err != nil {
		return nil, err
	}

	// load → duplicate (when content loaded)
	if err := graph.AddEdge("load", "duplicate", loaded); err != nil {
		return nil, err
	}

	// duplicate → classify (when not a duplicate)
	if err := graph.AddEdge("duplicate", "classify", state.Not(duplicate)); err != nil {
		return nil, err
	}

	// classify → exempt (when responsive)
	if err := graph.AddEdge("classify", "exempt", responsive); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("load"); err != nil {
		return nil, err
	}

	if err := graph.SetExitPoint("load", "duplicate", "classify", "exempt"); err != nil {
		return nil, err
	}

	return graph, nil
}
