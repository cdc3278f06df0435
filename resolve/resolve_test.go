package resolve_test

import (
	"testing"

	"github.com/stackform/stackform/graph"
	"github.com/stackform/stackform/resolve"
	"github.com/stackform/stackform/resource"
	"github.com/zclconf/go-cty/cty"
)

func TestReference(t *testing.T) {
	reg := resource.NewRegistry()
	bucket := declare(t, reg, "storage-bucket", "bucket")
	provision(t, bucket, cty.ObjectVal(map[string]cty.Value{
		"websiteUrl": cty.StringVal("http://files.example.com"),
		"tags": cty.MapVal(map[string]cty.Value{
			"team": cty.StringVal("infra"),
		}),
	}))

	tests := []struct {
		name string
		ref  cty.Path
		want cty.Value
	}{
		{
			"Attr",
			cty.GetAttrPath("bucket").GetAttr("websiteUrl"),
			cty.StringVal("http://files.example.com"),
		},
		{
			"Index",
			cty.GetAttrPath("bucket").GetAttr("tags").Index(cty.StringVal("team")),
			cty.StringVal("infra"),
		},
		{
			"Whole",
			cty.GetAttrPath("bucket"),
			bucket.Attributes,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolve.Reference(tt.ref, reg)
			if err != nil {
				t.Fatalf("Reference() err = %v", err)
			}
			if !got.RawEquals(tt.want) {
				t.Errorf("Reference() got = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestReference_notProvisioned(t *testing.T) {
	states := []struct {
		name string
		prep func(t *testing.T, n *resource.Node)
	}{
		{"Declared", func(t *testing.T, n *resource.Node) {}},
		{"Planned", func(t *testing.T, n *resource.Node) {
			if err := n.MarkPlanned(); err != nil {
				t.Fatal(err)
			}
		}},
		{"Provisioning", func(t *testing.T, n *resource.Node) {
			if err := n.MarkPlanned(); err != nil {
				t.Fatal(err)
			}
			if err := n.BeginProvisioning(); err != nil {
				t.Fatal(err)
			}
		}},
		{"Failed", func(t *testing.T, n *resource.Node) {
			if err := n.MarkPlanned(); err != nil {
				t.Fatal(err)
			}
			if err := n.BeginProvisioning(); err != nil {
				t.Fatal(err)
			}
			if err := n.Fail(); err != nil {
				t.Fatal(err)
			}
		}},
	}
	for _, tt := range states {
		t.Run(tt.name, func(t *testing.T) {
			reg := resource.NewRegistry()
			n := declare(t, reg, "queue", "q")
			tt.prep(t, n)

			_, err := resolve.Reference(cty.GetAttrPath("q").GetAttr("url"), reg)
			nyp, ok := err.(resolve.NotYetProvisionedError)
			if !ok {
				t.Fatalf("Reference() err = %v, want NotYetProvisionedError", err)
			}
			if nyp.ID != "q" || nyp.State != n.State {
				t.Errorf("Error = %v, want id %q state %v", nyp, "q", n.State)
			}
		})
	}
}

func TestReference_unknownResource(t *testing.T) {
	reg := resource.NewRegistry()
	declare(t, reg, "queue", "q1")

	_, err := resolve.Reference(cty.GetAttrPath("q2").GetAttr("url"), reg)
	if _, ok := err.(resource.UnknownResourceError); !ok {
		t.Fatalf("Reference() err = %v, want UnknownResourceError", err)
	}
}

func TestExpression(t *testing.T) {
	reg := resource.NewRegistry()
	bucket := declare(t, reg, "storage-bucket", "bucket")
	provision(t, bucket, cty.ObjectVal(map[string]cty.Value{
		"host": cty.StringVal("files.example.com"),
	}))

	expr := graph.Expression{
		graph.ExprLiteral{Value: cty.StringVal("https://")},
		graph.ExprReference{Path: cty.GetAttrPath("bucket").GetAttr("host")},
		graph.ExprLiteral{Value: cty.StringVal("/index.html")},
	}
	got, err := resolve.Expression(expr, reg)
	if err != nil {
		t.Fatalf("Expression() err = %v", err)
	}
	want := cty.StringVal("https://files.example.com/index.html")
	if !got.RawEquals(want) {
		t.Errorf("Expression() got = %#v, want %#v", got, want)
	}
}

func TestExpression_notProvisioned(t *testing.T) {
	reg := resource.NewRegistry()
	declare(t, reg, "storage-bucket", "bucket")

	_, err := resolve.Expression(graph.Ref("bucket", "url"), reg)
	if _, ok := err.(resolve.NotYetProvisionedError); !ok {
		t.Fatalf("Expression() err = %v, want NotYetProvisionedError", err)
	}
}

func TestConfig(t *testing.T) {
	decls := []graph.Declaration{
		{ID: "bucket", Kind: "storage-bucket", Config: map[string]graph.Expression{
			"name": graph.Lit(cty.StringVal("files")),
		}},
		{ID: "cdn", Kind: "cdn-distribution", Config: map[string]graph.Expression{
			"origin":  graph.Ref("bucket", "websiteUrl"),
			"comment": graph.Lit(cty.StringVal("static site")),
		}},
	}
	reg, g, err := graph.Build(decls)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}

	bucket, err := reg.Get("bucket")
	if err != nil {
		t.Fatal(err)
	}
	provision(t, bucket, cty.ObjectVal(map[string]cty.Value{
		"websiteUrl": cty.StringVal("http://files.s3-website.amazonaws.com"),
	}))

	cdn, err := reg.Get("cdn")
	if err != nil {
		t.Fatal(err)
	}
	got, err := resolve.Config(cdn, g.Dependencies("cdn"), reg)
	if err != nil {
		t.Fatalf("Config() err = %v", err)
	}
	want := cty.ObjectVal(map[string]cty.Value{
		"origin":  cty.StringVal("http://files.s3-website.amazonaws.com"),
		"comment": cty.StringVal("static site"),
	})
	if !got.RawEquals(want) {
		t.Errorf("Config() got = %#v, want %#v", got, want)
	}

	// The declared config keeps its unknown placeholder.
	if cdn.Config.GetAttr("origin").IsKnown() {
		t.Errorf("cdn.Config.origin was modified by Config()")
	}
}

func TestConfig_dependencyNotProvisioned(t *testing.T) {
	decls := []graph.Declaration{
		{ID: "bucket", Kind: "storage-bucket"},
		{ID: "cdn", Kind: "cdn-distribution", Config: map[string]graph.Expression{
			"origin": graph.Ref("bucket", "websiteUrl"),
		}},
	}
	reg, g, err := graph.Build(decls)
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	cdn, err := reg.Get("cdn")
	if err != nil {
		t.Fatal(err)
	}
	_, err = resolve.Config(cdn, g.Dependencies("cdn"), reg)
	if err == nil {
		t.Fatalf("Config() err = nil, want error")
	}
}

func declare(t *testing.T, reg *resource.Registry, kind, id string) *resource.Node {
	t.Helper()
	n, err := reg.Declare(kind, id, cty.EmptyObjectVal)
	if err != nil {
		t.Fatalf("Declare(%s) err = %v", id, err)
	}
	return n
}

func provision(t *testing.T, n *resource.Node, attrs cty.Value) {
	t.Helper()
	if err := n.MarkPlanned(); err != nil {
		t.Fatal(err)
	}
	if err := n.BeginProvisioning(); err != nil {
		t.Fatal(err)
	}
	if err := n.Provision(attrs); err != nil {
		t.Fatal(err)
	}
}
