package state_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/JaimeStill/docket/pkg/state"
)

func TestStateImmutable(t *testing.T) {
	seed := map[string]any{"filename": "memo.txt"}
	s := state.New(seed)
	seed["filename"] = "changed.txt"

	next := s.Set("classification", "responsive")

	if v, _ := s.Get("filename"); v != "memo.txt" {
		t.Errorf("seed mutation leaked into state: %v", v)
	}
	if _, ok := s.Get("classification"); ok {
		t.Error("Set modified the receiver")
	}
	if v, ok := next.Get("classification"); !ok || v != "responsive" {
		t.Errorf("next classification = %v, %v", v, ok)
	}
	if s.Len() != 1 || next.Len() != 2 {
		t.Errorf("len = %d, %d; want 1, 2", s.Len(), next.Len())
	}
}

func TestNot(t *testing.T) {
	loaded := func(s state.State) bool {
		_, ok := s.Get("content")
		return ok
	}
	empty := state.New(nil)

	if !state.Not(loaded)(empty) {
		t.Error("Not(loaded) should hold for an empty state")
	}
	if state.Not(loaded)(empty.Set("content", "text")) {
		t.Error("Not(loaded) should fail once content is set")
	}
}

// step appends name to the "path" slice held in state.
func step(name string) state.StateNode {
	return state.NewFunctionNode(func(_ context.Context, s state.State) (state.State, error) {
		v, _ := s.Get("path")
		path, _ := v.([]string)
		return s.Set("path", append(slices.Clone(path), name)), nil
	})
}

func pathOf(s state.State) []string {
	v, _ := s.Get("path")
	path, _ := v.([]string)
	return path
}

func buildGraph(t *testing.T) state.StateGraph {
	t.Helper()
	g, err := state.NewGraph(state.DefaultGraphConfig("classify"))
	if err != nil {
		t.Fatalf("NewGraph: %v", err)
	}

	for _, name := range []string{"load", "classify", "error", "finalize"} {
		if err := g.AddNode(name, step(name)); err != nil {
			t.Fatalf("AddNode(%s): %v", name, err)
		}
	}

	failed := func(s state.State) bool {
		_, ok := s.Get("fail")
		return ok
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g.AddEdge("load", "error", failed))
	must(g.AddEdge("load", "classify", nil))
	must(g.AddEdge("classify", "finalize", nil))
	must(g.SetEntryPoint("load"))
	must(g.SetExitPoint("finalize", "error"))
	return g
}

func TestGraphExecute(t *testing.T) {
	tests := []struct {
		name    string
		initial state.State
		want    []string
	}{
		{"happy path", state.New(nil), []string{"load", "classify", "finalize"}},
		{"first matching edge wins", state.New(map[string]any{"fail": true}), []string{"load", "error"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			final, err := buildGraph(t).Execute(context.Background(), tt.initial)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if got := pathOf(final); !slices.Equal(got, tt.want) {
				t.Errorf("path = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraphErrors(t *testing.T) {
	boom := errors.New("capability unavailable")

	tests := []struct {
		name  string
		build func(g state.StateGraph) error
		want  error
	}{
		{
			name: "no entry point",
			build: func(g state.StateGraph) error {
				return g.AddNode("a", step("a"))
			},
			want: state.ErrNoEntryPoint,
		},
		{
			name: "dead end outside exit set",
			build: func(g state.StateGraph) error {
				if err := g.AddNode("a", step("a")); err != nil {
					return err
				}
				return g.SetEntryPoint("a")
			},
			want: state.ErrNoTransition,
		},
		{
			name: "cycle exhausts iterations",
			build: func(g state.StateGraph) error {
				if err := g.AddNode("a", step("a")); err != nil {
					return err
				}
				if err := g.AddEdge("a", "a", nil); err != nil {
					return err
				}
				return g.SetEntryPoint("a")
			},
			want: state.ErrMaxIterations,
		},
		{
			name: "node error is wrapped",
			build: func(g state.StateGraph) error {
				fail := state.NewFunctionNode(func(context.Context, state.State) (state.State, error) {
					return state.State{}, boom
				})
				if err := g.AddNode("a", fail); err != nil {
					return err
				}
				return g.SetEntryPoint("a")
			},
			want: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := state.NewGraph(state.GraphConfig{Name: "test", MaxIterations: 5})
			if err != nil {
				t.Fatalf("NewGraph: %v", err)
			}
			if err := tt.build(g); err != nil {
				t.Fatalf("build: %v", err)
			}

			_, err = g.Execute(context.Background(), state.New(nil))
			if !errors.Is(err, tt.want) {
				t.Errorf("Execute error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGraphConstruction(t *testing.T) {
	if _, err := state.NewGraph(state.GraphConfig{}); err == nil {
		t.Error("NewGraph accepted an empty name")
	}

	g, _ := state.NewGraph(state.DefaultGraphConfig("classify"))
	if err := g.AddNode("load", step("load")); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode("load", step("load")); !errors.Is(err, state.ErrDuplicateNode) {
		t.Errorf("duplicate AddNode error = %v", err)
	}
	if err := g.AddEdge("load", "missing", nil); !errors.Is(err, state.ErrUnknownNode) {
		t.Errorf("AddEdge error = %v", err)
	}
	if err := g.SetEntryPoint("missing"); !errors.Is(err, state.ErrUnknownNode) {
		t.Errorf("SetEntryPoint error = %v", err)
	}
	if err := g.SetExitPoint("missing"); !errors.Is(err, state.ErrUnknownNode) {
		t.Errorf("SetExitPoint error = %v", err)
	}
}

func TestGraphCancelled(t *testing.T) {
	g := buildGraph(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Execute(ctx, state.New(nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Execute error = %v, want context.Canceled", err)
	}
}
