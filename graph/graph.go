// Package graph derives and holds the dependency graph between declared
// resource nodes.
//
// An edge A -> B means A must be provisioned before B: either B's config
// references an attribute of A, or B declared A as a structural parent.
package graph

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/stackform/stackform/resource"
	"github.com/stackform/stackform/suggest"
	"github.com/zclconf/go-cty/cty"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/multi"
)

// A Graph contains the declared nodes and the dependency edges between them.
//
// The Graph should be created with New().
type Graph struct {
	*multi.DirectedGraph

	registry *resource.Registry
	nodes    map[string]*nodeRef
	deps     map[string][]Dependency

	// self records nodes that reference themselves. Such an edge cannot be
	// stored in the underlying graph but must still surface as a cycle
	// during planning.
	self map[string]bool
}

type nodeRef struct {
	gonum.Node
	res *resource.Node
}

func (n *nodeRef) DOTID() string { return n.res.ID }

// Attributes returns attributes for the node when the graph is marshalled to
// graphviz dot format.
func (n *nodeRef) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "label", Value: fmt.Sprintf("%s\n%s", n.res.Kind, n.res.ID)},
	}
}

// New creates a new graph containing every node in the registry, with no
// edges.
func New(reg *resource.Registry) *Graph {
	g := &Graph{
		DirectedGraph: multi.NewDirectedGraph(),
		registry:      reg,
		nodes:         make(map[string]*nodeRef),
		deps:          make(map[string][]Dependency),
		self:          make(map[string]bool),
	}
	for _, res := range reg.Nodes() {
		n := &nodeRef{
			Node: g.NewNode(),
			res:  res,
		}
		g.AddNode(n)
		g.nodes[res.ID] = n
	}
	return g
}

// AddDependency binds a config field of the node with the given id to an
// expression referencing other nodes, and adds an edge from every referenced
// node.
//
// Panics if the node itself has not been declared; the caller must declare
// nodes before wiring dependencies. Returns an UnknownResourceError if the
// expression references an id that is not in the registry.
func (g *Graph) AddDependency(id string, dep Dependency) error {
	child, ok := g.nodes[id]
	if !ok {
		panic(fmt.Sprintf("Node %q does not exist", id))
	}
	for _, parent := range dep.Parents() {
		if err := g.addEdge(parent, child); err != nil {
			return err
		}
	}
	g.deps[id] = append(g.deps[id], dep)
	return nil
}

// AddParent adds a structural containment edge: the node with the given
// parent id must be provisioned before the child, even though no config field
// references it.
//
// Panics if the child has not been declared. Returns an UnknownResourceError
// if the parent id is not in the registry.
func (g *Graph) AddParent(id, parent string) error {
	child, ok := g.nodes[id]
	if !ok {
		panic(fmt.Sprintf("Node %q does not exist", id))
	}
	return g.addEdge(parent, child)
}

func (g *Graph) addEdge(parent string, child *nodeRef) error {
	p, ok := g.nodes[parent]
	if !ok {
		return resource.UnknownResourceError{
			ID:         parent,
			Suggestion: suggest.String(parent, g.registry.IDs()),
		}
	}
	if p == child {
		// A self edge cannot be stored in a gonum multigraph. Record it so
		// planning reports it as a cycle of one.
		g.self[child.res.ID] = true
		return nil
	}
	g.SetLine(g.NewLine(p, child))
	return nil
}

// Dependencies returns the field dependencies declared for the node with the
// given id. The result is in the order the dependencies were added.
func (g *Graph) Dependencies(id string) []Dependency {
	return g.deps[id]
}

// Parents returns the ids of the nodes that must be provisioned before the
// given node. The result is sorted by declaration order.
func (g *Graph) Parents(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	ids := g.collect(g.To(n.ID()))
	if g.self[id] {
		ids = append(ids, id)
	}
	return ids
}

// Children returns the ids of the nodes that depend on the given node. The
// result is sorted by declaration order.
func (g *Graph) Children(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return g.collect(g.From(n.ID()))
}

func (g *Graph) collect(it gonum.Nodes) []string {
	var refs []*nodeRef
	for it.Next() {
		refs = append(refs, it.Node().(*nodeRef))
	}
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].res.Index < refs[j].res.Index
	})
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.res.ID
	}
	return ids
}

// Registry returns the registry the graph was built from.
func (g *Graph) Registry() *resource.Registry {
	return g.registry
}

// DOT marshals the graph to graphviz dot format.
func (g *Graph) DOT(name string) ([]byte, error) {
	return dot.Marshal(g, name, "", "  ")
}

// A Declaration is a single resource declaration. Config fields may contain
// expressions that reference attributes of other declarations.
type Declaration struct {
	ID     string
	Kind   string
	Config map[string]Expression

	// DependsOn lists ids of structural parents that are not referenced from
	// any config field.
	DependsOn []string
}

// Build declares every declaration into a fresh registry and derives the
// dependency graph from the references between them.
//
// Config fields whose expressions contain references are declared as unknown
// values; the executor fills them in once the referenced nodes have been
// provisioned.
//
// Fails with a DuplicateIDError if two declarations share an id, or an
// UnknownResourceError if a reference target does not exist. No partial graph
// is returned on error.
func Build(decls []Declaration) (*resource.Registry, *Graph, error) {
	reg := resource.NewRegistry()
	for _, d := range decls {
		cfg, err := declaredConfig(d)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "declare %s", d.ID)
		}
		if _, err := reg.Declare(d.Kind, d.ID, cfg); err != nil {
			return nil, nil, err
		}
	}

	g := New(reg)
	for _, d := range decls {
		for _, field := range sortedFields(d.Config) {
			expr := d.Config[field]
			if len(expr.References()) == 0 {
				continue
			}
			dep := Dependency{
				Field:      cty.GetAttrPath(field),
				Expression: expr,
			}
			if err := g.AddDependency(d.ID, dep); err != nil {
				return nil, nil, errors.Wrapf(err, "resolve references for %s", d.ID)
			}
		}
		for _, parent := range d.DependsOn {
			if err := g.AddParent(d.ID, parent); err != nil {
				return nil, nil, errors.Wrapf(err, "resolve depends_on for %s", d.ID)
			}
		}
	}
	return reg, g, nil
}

func declaredConfig(d Declaration) (cty.Value, error) {
	if len(d.Config) == 0 {
		return cty.EmptyObjectVal, nil
	}
	fields := make(map[string]cty.Value, len(d.Config))
	for name, expr := range d.Config {
		if len(expr.References()) > 0 {
			// Value is not known until the referenced nodes have been
			// provisioned.
			fields[name] = cty.UnknownVal(cty.DynamicPseudoType)
			continue
		}
		v, err := expr.Value(nil)
		if err != nil {
			return cty.NilVal, errors.Wrapf(err, "evaluate %s", name)
		}
		fields[name] = v
	}
	return cty.ObjectVal(fields), nil
}

func sortedFields(config map[string]Expression) []string {
	fields := make([]string, 0, len(config))
	for name := range config {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
