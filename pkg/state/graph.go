package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrUnknownNode indicates an edge or entry point references a node that was never added.
	ErrUnknownNode = errors.New("unknown node")
	// ErrDuplicateNode indicates a node name was registered twice.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrNoEntryPoint indicates Execute was called before SetEntryPoint.
	ErrNoEntryPoint = errors.New("entry point not set")
	// ErrNoTransition indicates a non-exit node had no matching outgoing edge.
	ErrNoTransition = errors.New("no transition")
	// ErrMaxIterations indicates the graph exceeded its iteration budget.
	ErrMaxIterations = errors.New("max iterations exceeded")
)

// StateNode is a single step of a graph.
type StateNode interface {
	Execute(ctx context.Context, s State) (State, error)
}

type functionNode struct {
	fn func(ctx context.Context, s State) (State, error)
}

// NewFunctionNode adapts a function into a StateNode.
func NewFunctionNode(fn func(ctx context.Context, s State) (State, error)) StateNode {
	return &functionNode{fn: fn}
}

func (n *functionNode) Execute(ctx context.Context, s State) (State, error) {
	return n.fn(ctx, s)
}

// GraphConfig names a graph and bounds its execution.
type GraphConfig struct {
	Name          string
	MaxIterations int
}

// DefaultGraphConfig returns a GraphConfig with a 100 step iteration budget.
func DefaultGraphConfig(name string) GraphConfig {
	return GraphConfig{
		Name:          name,
		MaxIterations: 100,
	}
}

// StateGraph is a directed graph of named nodes joined by predicated edges.
// Edges are evaluated in insertion order; the first matching edge wins.
// Execution ends at an exit point when no outgoing edge matches.
type StateGraph interface {
	Name() string
	AddNode(name string, node StateNode) error
	AddEdge(from, to string, predicate Predicate) error
	SetEntryPoint(name string) error
	SetExitPoint(names ...string) error
	Execute(ctx context.Context, initial State) (State, error)
}

type edge struct {
	to        string
	predicate Predicate
}

type graph struct {
	cfg   GraphConfig
	nodes map[string]StateNode
	edges map[string][]edge
	entry string
	exits []string
}

// NewGraph creates an empty StateGraph.
func NewGraph(cfg GraphConfig) (StateGraph, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("graph name required")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultGraphConfig(cfg.Name).MaxIterations
	}

	return &graph{
		cfg:   cfg,
		nodes: make(map[string]StateNode),
		edges: make(map[string][]edge),
	}, nil
}

func (g *graph) Name() string {
	return g.cfg.Name
}

func (g *graph) AddNode(name string, node StateNode) error {
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.nodes[name] = node
	return nil
}

// AddEdge adds a transition. A nil predicate always matches.
func (g *graph) AddEdge(from, to string, predicate Predicate) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, to)
	}
	g.edges[from] = append(g.edges[from], edge{to: to, predicate: predicate})
	return nil
}

func (g *graph) SetEntryPoint(name string) error {
	if _, ok := g.nodes[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	g.entry = name
	return nil
}

func (g *graph) SetExitPoint(names ...string) error {
	for _, name := range names {
		if _, ok := g.nodes[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}
		if !slices.Contains(g.exits, name) {
			g.exits = append(g.exits, name)
		}
	}
	return nil
}

func (g *graph) Execute(ctx context.Context, initial State) (State, error) {
	if g.entry == "" {
		return initial, ErrNoEntryPoint
	}

	s := initial
	current := g.entry

	for range g.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		next, err := g.nodes[current].Execute(ctx, s)
		if err != nil {
			return s, fmt.Errorf("%s: node %s: %w", g.cfg.Name, current, err)
		}
		s = next

		to, ok := g.transition(current, s)
		if !ok {
			if slices.Contains(g.exits, current) {
				return s, nil
			}
			return s, fmt.Errorf("%s: %w from %s", g.cfg.Name, ErrNoTransition, current)
		}
		current = to
	}

	return s, fmt.Errorf("%s: %w (%d)", g.cfg.Name, ErrMaxIterations, g.cfg.MaxIterations)
}

func (g *graph) transition(from string, s State) (string, bool) {
	for _, e := range g.edges[from] {
		if e.predicate == nil || e.predicate(s) {
			return e.to, true
		}
	}
	return "", false
}
