// Package plan orders a dependency graph into a deterministic provisioning
// sequence.
//
// Planning is pure: it never contacts the provider, and a declaration set
// that fails to plan causes no side effects beyond node states.
package plan

import (
	"strings"

	"github.com/stackform/stackform/graph"
	"github.com/stackform/stackform/resource"
)

// A Plan is a valid provisioning order for a stack: for every edge A -> B in
// the graph, A appears before B. Ties between independent nodes are broken by
// declaration order, so the same declaration set always produces the same
// plan.
type Plan struct {
	// IDs contains every node id exactly once, in provisioning order.
	IDs []string
}

// Reverse returns the teardown order: dependents before their dependencies.
func (p *Plan) Reverse() *Plan {
	ids := make([]string, len(p.IDs))
	for i, id := range p.IDs {
		ids[len(ids)-1-i] = id
	}
	return &Plan{IDs: ids}
}

// A CyclicDependencyError is returned when the graph contains a reference
// cycle. IDs contains the nodes on the cycle in walk order; the first id is
// repeated at the end.
type CyclicDependencyError struct {
	IDs []string
}

func (e CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.IDs, " -> ")
}

// Colors for the depth-first walk.
const (
	white = iota // unvisited
	gray         // in progress
	black        // done
)

// Create validates that the graph is acyclic and produces a provisioning
// order.
//
// The walk is depth-first: a node is emitted after all of its dependencies,
// visiting both roots and dependencies in declaration order. Encountering an
// in-progress node again means the graph has a back edge; planning then fails
// with a CyclicDependencyError and no order is produced.
//
// On success, every node still in the Declared state is marked Planned.
func Create(g *graph.Graph) (*Plan, error) {
	reg := g.Registry()

	w := walk{
		graph: g,
		color: make(map[string]int, len(reg.IDs())),
	}
	for _, id := range reg.IDs() {
		if err := w.visit(id); err != nil {
			return nil, err
		}
	}

	for _, n := range reg.Nodes() {
		if n.State != resource.Declared {
			// Restored from a previous run; keep its state.
			continue
		}
		if err := n.MarkPlanned(); err != nil {
			return nil, err
		}
	}

	return &Plan{IDs: w.order}, nil
}

type walk struct {
	graph *graph.Graph
	color map[string]int
	stack []string
	order []string
}

func (w *walk) visit(id string) error {
	switch w.color[id] {
	case black:
		return nil
	case gray:
		return CyclicDependencyError{IDs: w.cycle(id)}
	}
	w.color[id] = gray
	w.stack = append(w.stack, id)
	for _, parent := range w.graph.Parents(id) {
		if err := w.visit(parent); err != nil {
			return err
		}
	}
	w.stack = w.stack[:len(w.stack)-1]
	w.color[id] = black
	w.order = append(w.order, id)
	return nil
}

// cycle extracts the cycle from the walk stack, starting and ending at the
// node that was reached twice.
func (w *walk) cycle(id string) []string {
	start := 0
	for i, v := range w.stack {
		if v == id {
			start = i
			break
		}
	}
	cycle := make([]string, 0, len(w.stack)-start+1)
	cycle = append(cycle, w.stack[start:]...)
	cycle = append(cycle, id)
	return cycle
}
