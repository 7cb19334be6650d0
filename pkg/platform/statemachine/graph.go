// Package statemachine holds the transition graphs of the request lifecycles.
// A Graph is declared once per domain and consulted by aggregates before any
// status change is persisted.
package statemachine

// Graph is an immutable directed graph of allowed status transitions.
type Graph[S comparable] struct {
	edges map[S]map[S]struct{}
}

// Edge declares one allowed transition.
type Edge[S comparable] struct {
	From S
	To   S
}

// New builds a graph from its edges.
func New[S comparable](edges ...Edge[S]) Graph[S] {
	g := Graph[S]{edges: make(map[S]map[S]struct{}, len(edges))}
	for _, e := range edges {
		if g.edges[e.From] == nil {
			g.edges[e.From] = make(map[S]struct{})
		}
		g.edges[e.From][e.To] = struct{}{}
	}
	return g
}

// CanTransition reports whether from -> to is an edge of the graph.
func (g Graph[S]) CanTransition(from, to S) bool {
	_, ok := g.edges[from][to]
	return ok
}

// IsTerminal reports whether no transitions leave s.
func (g Graph[S]) IsTerminal(s S) bool {
	return len(g.edges[s]) == 0
}

// Next lists the statuses reachable from s in one step.
func (g Graph[S]) Next(s S) []S {
	out := make([]S, 0, len(g.edges[s]))
	for to := range g.edges[s] {
		out = append(out, to)
	}
	return out
}
