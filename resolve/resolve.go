// Package resolve evaluates deferred values: attributes that exist only after
// their producing node has been provisioned.
//
// Resolution is the correctness boundary of the whole pipeline. An attribute
// assigned by the provider is observable only once the producing node reports
// Provisioned; any attempt to read it earlier fails with a
// NotYetProvisionedError. When the executor follows a valid plan that error
// can never surface, so encountering one indicates a bug in the caller.
package resolve

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/stackform/stackform/graph"
	"github.com/stackform/stackform/resource"
	"github.com/zclconf/go-cty/cty"
)

// A NotYetProvisionedError is returned when a reference is resolved before
// the producing node has been provisioned.
type NotYetProvisionedError struct {
	ID    string
	State resource.State
}

func (e NotYetProvisionedError) Error() string {
	return fmt.Sprintf("resource %q is %s, not %s", e.ID, e.State, resource.Provisioned)
}

// Reference resolves a single reference path against the registry.
//
// The first step of the path is the producing node's id, the remaining steps
// select the attribute. Fails with an UnknownResourceError if the node does
// not exist, or a NotYetProvisionedError if it has not been provisioned.
func Reference(ref cty.Path, reg *resource.Registry) (cty.Value, error) {
	if len(ref) == 0 {
		return cty.NilVal, errors.New("empty reference")
	}
	attr, ok := ref[0].(cty.GetAttrStep)
	if !ok {
		return cty.NilVal, errors.Errorf("reference %s does not start with a node id", graph.PathString(ref))
	}
	n, err := reg.Get(attr.Name)
	if err != nil {
		return cty.NilVal, err
	}
	if n.State != resource.Provisioned {
		return cty.NilVal, NotYetProvisionedError{ID: n.ID, State: n.State}
	}
	val := n.Attributes
	for _, step := range ref[1:] {
		v, err := step.Apply(val)
		if err != nil {
			return cty.NilVal, errors.Wrapf(err, "apply %s", graph.PathString(ref))
		}
		val = v
	}
	return val, nil
}

// Expression evaluates an expression with every reference resolved against
// the registry.
//
// All referenced nodes must be provisioned; the first one that is not causes
// a NotYetProvisionedError.
func Expression(expr graph.Expression, reg *resource.Registry) (cty.Value, error) {
	vars := make(map[string]cty.Value)
	for _, ref := range expr.References() {
		attr, ok := ref[0].(cty.GetAttrStep)
		if !ok {
			return cty.NilVal, errors.Errorf("reference %s does not start with a node id", graph.PathString(ref))
		}
		if _, done := vars[attr.Name]; done {
			continue
		}
		n, err := reg.Get(attr.Name)
		if err != nil {
			return cty.NilVal, err
		}
		if n.State != resource.Provisioned {
			return cty.NilVal, NotYetProvisionedError{ID: n.ID, State: n.State}
		}
		vars[attr.Name] = n.Attributes
	}
	return expr.Value(&graph.EvalContext{Variables: vars})
}

// Config resolves every dependency expression for a node into its config,
// replacing the unknown placeholder values set at declaration time.
//
// The node's stored config is not modified; the resolved copy is returned.
func Config(n *resource.Node, deps []graph.Dependency, reg *resource.Registry) (cty.Value, error) {
	cfg := n.Config
	for _, dep := range deps {
		val, err := Expression(dep.Expression, reg)
		if err != nil {
			return cty.NilVal, errors.Wrapf(err, "resolve %s", graph.PathString(dep.Field))
		}
		processed := false
		next, err := cty.Transform(cfg, func(path cty.Path, v cty.Value) (cty.Value, error) {
			if !path.Equals(dep.Field) {
				return v, nil
			}
			processed = true
			return val, nil
		})
		if err != nil {
			return cty.NilVal, errors.Wrap(err, "transform config")
		}
		if !processed {
			return cty.NilVal, errors.Errorf("field %s not found in config for %s", graph.PathString(dep.Field), n.ID)
		}
		cfg = next
	}
	return cfg, nil
}
