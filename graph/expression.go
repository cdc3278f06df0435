package graph

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// An Expression describes the declared value for a config field.
//
// The Expression may consist of any combination of literals and references.
// The exprPart interface is closed, only ExprLiteral and ExprReference are
// allowed.
type Expression []exprPart

// exprPart is a part in an Expression. The interface is closed, only parts
// declared in this package are allowed.
type exprPart interface{ isExpr() }

// ExprLiteral is a literal value in an expression.
type ExprLiteral struct {
	Value cty.Value
}

func (e ExprLiteral) isExpr() {}

// ExprReference is a part in an expression that refers to an attribute of
// another node. The first step in the path is the producing node's id, the
// remaining steps select the attribute.
type ExprReference struct {
	Path cty.Path
}

func (e ExprReference) isExpr() {}

// Lit creates an expression containing a single literal value.
func Lit(v cty.Value) Expression {
	return Expression{ExprLiteral{Value: v}}
}

// Ref creates an expression containing a single reference to an attribute of
// the node with the given id.
func Ref(id string, attr ...string) Expression {
	path := cty.GetAttrPath(id)
	for _, a := range attr {
		path = path.GetAttr(a)
	}
	return Expression{ExprReference{Path: path}}
}

// References returns all referenced paths that are found in the expression.
//
// If the returned slice is empty, the expression contains no references and
// can be evaluated with expr.Value(nil).
func (expr Expression) References() []cty.Path {
	var refs []cty.Path
	for _, e := range expr {
		if ref, ok := e.(ExprReference); ok {
			refs = append(refs, ref.Path)
		}
	}
	return refs
}

// Nodes returns the ids of the nodes referenced from the expression.
func (expr Expression) Nodes() []string {
	refs := expr.References()
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		attr, ok := ref[0].(cty.GetAttrStep)
		if !ok {
			panic(fmt.Sprintf("Reference %v does not start with a node id", ref))
		}
		ids = append(ids, attr.Name)
	}
	return ids
}

// An EvalContext provides variable values for evaluating an expression.
type EvalContext struct {
	// Variables contains the attributes of referenced nodes, keyed by node
	// id.
	Variables map[string]cty.Value
}

// Value evaluates the expression with the given variables.
//
// A single-part expression evaluates to its literal or referenced value,
// preserving the type. A multi-part expression is concatenated to a string;
// every part must then be convertible to string. If any part is unknown, an
// unknown value is returned.
//
// An error is returned if the expression references a variable that is not
// present in ctx. A nil ctx is equivalent to an EvalContext with no
// variables, meaning only literal expressions can be evaluated.
func (expr Expression) Value(ctx *EvalContext) (cty.Value, error) {
	if ctx == nil {
		ctx = &EvalContext{}
	}
	vals := make([]cty.Value, len(expr))
	for i, e := range expr {
		switch p := e.(type) {
		case ExprLiteral:
			vals[i] = p.Value
		case ExprReference:
			val := cty.ObjectVal(ctx.Variables)
			for _, step := range p.Path {
				v, err := step.Apply(val)
				if err != nil {
					return cty.NilVal, err
				}
				val = v
			}
			vals[i] = val
		default:
			// Closed interface, a new part type here is always a bug.
			panic(fmt.Sprintf("Not supported: %T", p))
		}
	}
	if len(vals) == 0 {
		return cty.NilVal, nil
	}
	if len(vals) == 1 {
		return vals[0], nil
	}
	var buf bytes.Buffer
	for i, v := range vals {
		if !v.IsWhollyKnown() {
			return cty.UnknownVal(cty.String), nil
		}
		if conv := convert.GetConversion(v.Type(), cty.String); conv != nil {
			tmp, err := conv(v)
			if err != nil {
				return cty.NilVal, errors.Wrapf(err, "convert part %d", i)
			}
			v = tmp
		}
		buf.WriteString(v.AsString())
	}
	return cty.StringVal(buf.String()), nil
}

type jsonExprPart map[jsonExprKey]json.RawMessage

type jsonExprKey string

const (
	jsonExprLit jsonExprKey = "lit"
	jsonExprRef jsonExprKey = "ref"
)

// MarshalJSON marshals an expression to json.
func (expr Expression) MarshalJSON() ([]byte, error) {
	parts := make([]jsonExprPart, len(expr))
	for i, e := range expr {
		switch v := e.(type) {
		case ExprLiteral:
			b, err := ctyjson.Marshal(v.Value, v.Value.Type())
			if err != nil {
				return nil, errors.Wrap(err, "marshal literal")
			}
			parts[i] = jsonExprPart{jsonExprLit: b}
		case ExprReference:
			str := PathString(v.Path)
			parts[i] = jsonExprPart{jsonExprRef: []byte(fmt.Sprintf("%q", str))}
		default:
			return nil, errors.Errorf("unsupported type %T at %d", v, i)
		}
	}
	return json.Marshal(parts)
}

// UnmarshalJSON unmarshals an expression from json.
func (expr *Expression) UnmarshalJSON(b []byte) error {
	var parts []jsonExprPart
	if err := json.Unmarshal(b, &parts); err != nil {
		return errors.Wrap(err, "unmarshal expression parts")
	}
	ex := make(Expression, len(parts))
	for i, p := range parts {
		if lit, ok := p[jsonExprLit]; ok {
			var v ctyjson.SimpleJSONValue
			if err := v.UnmarshalJSON(lit); err != nil {
				return err
			}
			ex[i] = ExprLiteral{Value: v.Value}
			continue
		}
		if ref, ok := p[jsonExprRef]; ok {
			var str string
			if err := json.Unmarshal(ref, &str); err != nil {
				return err
			}
			path, err := ParsePathString(str)
			if err != nil {
				return errors.Wrap(err, "parse path")
			}
			ex[i] = ExprReference{Path: path}
			continue
		}
		return errors.Errorf("unknown expression at %d: %v", i, p)
	}
	*expr = ex
	return nil
}
