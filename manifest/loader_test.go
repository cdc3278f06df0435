package manifest_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stackform/stackform/graph"
	"github.com/stackform/stackform/manifest"
	"github.com/zclconf/go-cty/cty"
)

func TestLoader_Load(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  *manifest.Manifest
	}{
		{
			"Literals",
			map[string]string{
				"stack.hcl": `
resource "storage-bucket" "site" {
  name          = "example-site"
  website_index = "index.html"
  versioned     = true
  max_age       = 3600
}
`,
			},
			&manifest.Manifest{
				Declarations: []graph.Declaration{
					{ID: "site", Kind: "storage-bucket", Config: map[string]graph.Expression{
						"name":          graph.Lit(cty.StringVal("example-site")),
						"website_index": graph.Lit(cty.StringVal("index.html")),
						"versioned":     graph.Lit(cty.True),
						"max_age":       graph.Lit(cty.NumberIntVal(3600)),
					}},
				},
				Outputs: map[string]graph.Expression{},
			},
		},
		{
			"References",
			map[string]string{
				"stack.hcl": `
resource "storage-bucket" "site" {
  name = "example-site"
}

resource "cdn" "site-cdn" {
  origin = site.websiteUrl
  alias  = "https://${site.host}/index.html"
}
`,
			},
			&manifest.Manifest{
				Declarations: []graph.Declaration{
					{ID: "site", Kind: "storage-bucket", Config: map[string]graph.Expression{
						"name": graph.Lit(cty.StringVal("example-site")),
					}},
					{ID: "site-cdn", Kind: "cdn", Config: map[string]graph.Expression{
						"origin": graph.Ref("site", "websiteUrl"),
						"alias": {
							graph.ExprLiteral{Value: cty.StringVal("https://")},
							graph.ExprReference{Path: cty.GetAttrPath("site").GetAttr("host")},
							graph.ExprLiteral{Value: cty.StringVal("/index.html")},
						},
					}},
				},
				Outputs: map[string]graph.Expression{},
			},
		},
		{
			"Index",
			map[string]string{
				"stack.hcl": `
resource "dns-record" "www" {
  target = fleet.instances[0].ip
}
`,
			},
			&manifest.Manifest{
				Declarations: []graph.Declaration{
					{ID: "www", Kind: "dns-record", Config: map[string]graph.Expression{
						"target": {graph.ExprReference{
							Path: cty.GetAttrPath("fleet").
								GetAttr("instances").
								Index(cty.NumberIntVal(0)).
								GetAttr("ip"),
						}},
					}},
				},
				Outputs: map[string]graph.Expression{},
			},
		},
		{
			"DependsOn",
			map[string]string{
				"stack.hcl": `
resource "network" "vpc" {}

resource "queue" "jobs" {
  depends_on = [vpc]
}
`,
			},
			&manifest.Manifest{
				Declarations: []graph.Declaration{
					{ID: "vpc", Kind: "network", Config: map[string]graph.Expression{}},
					{ID: "jobs", Kind: "queue", Config: map[string]graph.Expression{}, DependsOn: []string{"vpc"}},
				},
				Outputs: map[string]graph.Expression{},
			},
		},
		{
			"Outputs",
			map[string]string{
				"stack.hcl": `
resource "cdn" "site-cdn" {}

output "cdn_domain" {
  value = site-cdn.domainName
}
`,
			},
			&manifest.Manifest{
				Declarations: []graph.Declaration{
					{ID: "site-cdn", Kind: "cdn", Config: map[string]graph.Expression{}},
				},
				Outputs: map[string]graph.Expression{
					"cdn_domain": graph.Ref("site-cdn", "domainName"),
				},
			},
		},
		{
			// Files are visited in lexical order, including sub directories.
			"MultipleFiles",
			map[string]string{
				"b/queue.hcl":  `resource "queue" "jobs" {}`,
				"a_bucket.hcl": `resource "storage-bucket" "site" {}`,
				"notes.txt":    `ignored`,
			},
			&manifest.Manifest{
				Declarations: []graph.Declaration{
					{ID: "site", Kind: "storage-bucket", Config: map[string]graph.Expression{}},
					{ID: "jobs", Kind: "queue", Config: map[string]graph.Expression{}},
				},
				Outputs: map[string]graph.Expression{},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, tt.files)
			defer os.RemoveAll(dir)

			var l manifest.Loader
			got, diags := l.Load(dir)
			if diags.HasErrors() {
				t.Fatalf("Load() diagnostics:\n%v", diags)
			}
			opts := []cmp.Option{
				cmp.Comparer(func(a, b cty.Value) bool { return a.RawEquals(b) }),
				cmp.Comparer(func(a, b cty.Path) bool { return a.Equals(b) }),
			}
			if diff := cmp.Diff(got, tt.want, opts...); diff != "" {
				t.Errorf("Load() (-got, +want)\n%s", diff)
			}
		})
	}
}

func TestLoader_Load_diagnostics(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		summary string
	}{
		{
			"UnsupportedExpression",
			map[string]string{
				"stack.hcl": `
resource "queue" "jobs" {
  delay = q.delay + 1
}
`,
			},
			"Unsupported expression",
		},
		{
			"DuplicateOutput",
			map[string]string{
				"stack.hcl": `
resource "cdn" "site-cdn" {}

output "domain" {
  value = site-cdn.domainName
}

output "domain" {
  value = site-cdn.domainName
}
`,
			},
			"Duplicate output",
		},
		{
			"InvalidResourceID",
			map[string]string{
				"stack.hcl": `resource "queue" "9jobs" {}`,
			},
			"Invalid resource id",
		},
		{
			"InvalidDependsOn",
			map[string]string{
				"stack.hcl": `
resource "queue" "jobs" {
  depends_on = ["vpc"]
}
`,
			},
			"",
		},
		{
			"SyntaxError",
			map[string]string{
				"stack.hcl": `resource "queue" {`,
			},
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFiles(t, tt.files)
			defer os.RemoveAll(dir)

			var l manifest.Loader
			_, diags := l.Load(dir)
			if !diags.HasErrors() {
				t.Fatalf("Load() returned no errors")
			}
			if tt.summary == "" {
				return
			}
			for _, d := range diags {
				if d.Summary == tt.summary {
					return
				}
			}
			t.Errorf("Load() diagnostics missing %q:\n%v", tt.summary, diags)
		})
	}
}

func TestLoader_WriteDiagnostics(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"stack.hcl": `
resource "queue" "jobs" {
  delay = q.delay + 1
}
`,
	})
	defer os.RemoveAll(dir)

	var l manifest.Loader
	_, diags := l.Load(dir)
	if !diags.HasErrors() {
		t.Fatalf("Load() returned no errors")
	}

	var buf strings.Builder
	l.WriteDiagnostics(&buf, diags)
	if !strings.Contains(buf.String(), "Unsupported expression") {
		t.Errorf("WriteDiagnostics() output missing summary:\n%s", buf.String())
	}
}

func TestManifest_Build(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"stack.hcl": `
resource "storage-bucket" "site" {
  name = "example-site"
}

resource "cdn" "site-cdn" {
  origin = site.websiteUrl
}
`,
	})
	defer os.RemoveAll(dir)

	var l manifest.Loader
	m, diags := l.Load(dir)
	if diags.HasErrors() {
		t.Fatalf("Load() diagnostics:\n%v", diags)
	}
	_, g, err := m.Build()
	if err != nil {
		t.Fatalf("Build() err = %v", err)
	}
	if diff := cmp.Diff(g.Parents("site-cdn"), []string{"site"}); diff != "" {
		t.Errorf("Parents(site-cdn) (-got, +want)\n%s", diff)
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "stackform-manifest")
	if err != nil {
		t.Fatal(err)
	}
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := ioutil.WriteFile(path, []byte(src), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}
