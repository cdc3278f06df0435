package manifest

import (
	"fmt"

	"github.com/hashicorp/hcl2/hcl"
	"github.com/hashicorp/hcl2/hcl/hclsyntax"
	"github.com/stackform/stackform/graph"
	"github.com/zclconf/go-cty/cty"
)

var rootSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "resource", LabelNames: []string{"kind", "id"}},
		{Type: "output", LabelNames: []string{"name"}},
	},
}

// decodeBody decodes the declarations and outputs from a single file body
// into the manifest.
func (m *Manifest) decodeBody(body hcl.Body) hcl.Diagnostics {
	content, diags := body.Content(rootSchema)
	for _, block := range content.Blocks {
		switch block.Type {
		case "resource":
			diags = append(diags, m.decodeResource(block)...)
		case "output":
			diags = append(diags, m.decodeOutput(block)...)
		}
	}
	return diags
}

func (m *Manifest) decodeResource(block *hcl.Block) hcl.Diagnostics {
	kind, id := block.Labels[0], block.Labels[1]
	if err := checkIdent("resource kind", kind); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid resource kind",
			Detail:   err.Error(),
			Subject:  &block.DefRange,
		}}
	}
	if err := checkIdent("resource id", id); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid resource id",
			Detail:   err.Error(),
			Subject:  &block.DefRange,
		}}
	}

	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return diags
	}

	decl := graph.Declaration{
		ID:     id,
		Kind:   kind,
		Config: make(map[string]graph.Expression, len(attrs)),
	}
	for name, attr := range attrs {
		if name == "depends_on" {
			parents, moreDiags := decodeDependsOn(attr)
			diags = append(diags, moreDiags...)
			decl.DependsOn = parents
			continue
		}
		expr, moreDiags := decodeExpression(attr.Expr)
		diags = append(diags, moreDiags...)
		decl.Config[name] = expr
	}
	if diags.HasErrors() {
		return diags
	}

	m.Declarations = append(m.Declarations, decl)
	return nil
}

func (m *Manifest) decodeOutput(block *hcl.Block) hcl.Diagnostics {
	name := block.Labels[0]
	if err := checkIdent("output name", name); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid output name",
			Detail:   err.Error(),
			Subject:  &block.DefRange,
		}}
	}

	content, diags := block.Body.Content(&hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{{Name: "value", Required: true}},
	})
	if diags.HasErrors() {
		return diags
	}

	expr, moreDiags := decodeExpression(content.Attributes["value"].Expr)
	if moreDiags.HasErrors() {
		return append(diags, moreDiags...)
	}
	if _, ok := m.Outputs[name]; ok {
		return append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Duplicate output",
			Detail:   fmt.Sprintf("An output named %q was already declared.", name),
			Subject:  &block.DefRange,
		})
	}
	m.Outputs[name] = expr
	return diags
}

// decodeDependsOn decodes a depends_on attribute: a list of bare node ids.
func decodeDependsOn(attr *hcl.Attribute) ([]string, hcl.Diagnostics) {
	exprs, diags := hcl.ExprList(attr.Expr)
	if diags.HasErrors() {
		return nil, diags
	}
	ids := make([]string, 0, len(exprs))
	for _, e := range exprs {
		traversal, moreDiags := hcl.AbsTraversalForExpr(e)
		if moreDiags.HasErrors() {
			diags = append(diags, moreDiags...)
			continue
		}
		if len(traversal) != 1 {
			rng := e.Range()
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid depends_on entry",
				Detail:   "Entries must be bare resource ids.",
				Subject:  &rng,
			})
			continue
		}
		ids = append(ids, traversal.RootName())
	}
	return ids, diags
}

// decodeExpression converts an HCL expression into a graph expression.
//
// Only literals, traversals rooted at a resource id, and string templates
// combining the two are supported. Function calls and arithmetic are not.
func decodeExpression(input hcl.Expression) (graph.Expression, hcl.Diagnostics) {
	if len(input.Variables()) == 0 {
		val, diags := input.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		return graph.Expression{graph.ExprLiteral{Value: val}}, nil
	}

	switch expr := input.(type) {
	case *hclsyntax.ScopeTraversalExpr:
		return graph.Expression{graph.ExprReference{Path: traversalAsPath(expr.Traversal)}}, nil

	case *hclsyntax.RelativeTraversalExpr:
		src, diags := decodeExpression(expr.Source)
		if diags.HasErrors() {
			return nil, diags
		}
		path := src[0].(graph.ExprReference).Path
		path = append(path, traversalAsPath(expr.Traversal)...)
		return graph.Expression{graph.ExprReference{Path: path}}, nil

	case *hclsyntax.IndexExpr:
		col, diags := decodeExpression(expr.Collection)
		if diags.HasErrors() {
			return nil, diags
		}
		key, moreDiags := decodeExpression(expr.Key)
		if moreDiags.HasErrors() {
			return nil, moreDiags
		}
		path := col[0].(graph.ExprReference).Path
		for _, k := range key {
			lit, ok := k.(graph.ExprLiteral)
			if !ok {
				rng := expr.Key.Range()
				return nil, hcl.Diagnostics{{
					Severity: hcl.DiagError,
					Summary:  "Unsupported index",
					Detail:   "Index keys must be literal values.",
					Subject:  &rng,
				}}
			}
			path = path.Index(lit.Value)
		}
		return graph.Expression{graph.ExprReference{Path: path}}, nil

	case *hclsyntax.TemplateWrapExpr:
		return decodeExpression(expr.Wrapped)

	case *hclsyntax.TemplateExpr:
		var out graph.Expression
		for _, p := range expr.Parts {
			part, diags := decodeExpression(p)
			if diags.HasErrors() {
				return nil, diags
			}
			out = append(out, part...)
		}
		return out, nil
	}

	rng := input.Range()
	return nil, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported expression",
		Detail:   "Only literal values, references to resource attributes and string templates are supported.",
		Subject:  &rng,
	}}
}

func traversalAsPath(traversal hcl.Traversal) cty.Path {
	var path cty.Path
	for _, part := range traversal {
		switch pt := part.(type) {
		case hcl.TraverseRoot:
			path = append(path, cty.GetAttrStep{Name: pt.Name})
		case hcl.TraverseAttr:
			path = append(path, cty.GetAttrStep{Name: pt.Name})
		case hcl.TraverseIndex:
			path = append(path, cty.IndexStep{Key: pt.Key})
		default:
			panic(fmt.Sprintf("not supported: %T", part))
		}
	}
	return path
}
