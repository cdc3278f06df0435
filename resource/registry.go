package resource

import (
	"github.com/stackform/stackform/suggest"
	"github.com/zclconf/go-cty/cty"
)

// A Registry holds the declared nodes for a single stack.
//
// The registry is append-only: nodes are added during declaration and never
// removed. Declaration order is preserved, as it determines tie-breaking
// between independent nodes during planning.
//
// Not safe for concurrent declaration. Reads are safe once declaration is
// complete.
type Registry struct {
	nodes map[string]*Node
	order []string
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]*Node),
	}
}

// Declare adds a new node to the registry.
//
// Panics if kind or id is blank. These must be checked by the calling code
// before declaring a node; failing to do so indicates a bug in the caller.
//
// Returns a DuplicateIDError if a node with the same id has already been
// declared.
func (r *Registry) Declare(kind, id string, config cty.Value) (*Node, error) {
	if id == "" {
		panic("Node has no id")
	}
	if kind == "" {
		panic("Node has no kind")
	}
	if _, ok := r.nodes[id]; ok {
		return nil, DuplicateIDError{ID: id}
	}
	n := &Node{
		ID:     id,
		Kind:   kind,
		Config: config,
		Index:  len(r.order),
		State:  Declared,
	}
	r.nodes[id] = n
	r.order = append(r.order, id)
	return n, nil
}

// Get returns the node with the given id. Returns an UnknownResourceError if
// no such node has been declared.
func (r *Registry) Get(id string) (*Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, UnknownResourceError{
			ID:         id,
			Suggestion: suggest.String(id, r.order),
		}
	}
	return n, nil
}

// Has returns true if a node with the given id has been declared.
func (r *Registry) Has(id string) bool {
	_, ok := r.nodes[id]
	return ok
}

// Nodes returns all declared nodes in declaration order.
func (r *Registry) Nodes() []*Node {
	list := make([]*Node, len(r.order))
	for i, id := range r.order {
		list[i] = r.nodes[id]
	}
	return list
}

// IDs returns all declared node ids in declaration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}
