package graph

import "github.com/zclconf/go-cty/cty"

// A Dependency binds a single config field of a node to an expression that
// references attributes of one or more other nodes.
type Dependency struct {
	// Field is the path to the field within the node's config.
	Field cty.Path

	// Expression is the expression to resolve for the field. It may refer to
	// multiple parent nodes.
	Expression Expression
}

// Parents returns the ids of the nodes referenced from the dependency's
// expression.
func (d Dependency) Parents() []string {
	return d.Expression.Nodes()
}
