// Package manifest loads stack declarations from .hcl files on disk.
//
// A manifest declares resources and outputs:
//
//	resource "storage-bucket" "site" {
//	  name          = "example-site"
//	  website_index = "index.html"
//	}
//
//	resource "cdn" "site-cdn" {
//	  origin = site.websiteUrl
//	}
//
//	output "cdn_domain" {
//	  value = site-cdn.domainName
//	}
//
// Referencing another resource's attribute makes the referencing resource
// depend on it. Structural containment that is not visible in any attribute
// is declared with depends_on.
package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl2/hcl"
	"github.com/hashicorp/hcl2/hclparse"
	"github.com/pkg/errors"
	"github.com/stackform/stackform/graph"
	"github.com/stackform/stackform/resource"
	"golang.org/x/crypto/ssh/terminal"
)

// A Manifest contains the declarations and outputs collected from all config
// files in a stack.
type Manifest struct {
	// Declarations in file walk order. The order is stable for a given tree,
	// making plans reproducible.
	Declarations []graph.Declaration

	// Outputs to resolve and report after a successful deployment.
	Outputs map[string]graph.Expression
}

// Build declares every resource in the manifest and derives the dependency
// graph.
func (m *Manifest) Build() (*resource.Registry, *graph.Graph, error) {
	return graph.Build(m.Declarations)
}

// A Loader loads manifest files from .hcl files on disk.
//
// The zero value is ready to load files.
type Loader struct {
	parser *hclparse.Parser
}

// Load loads all config files from the given root directory, traversing into
// sub directories.
//
// Files are visited in lexical order so the declaration order, and with it
// the plan, does not depend on filesystem specifics.
func (l *Loader) Load(root string) (*Manifest, hcl.Diagnostics) {
	if l.parser == nil {
		l.parser = hclparse.NewParser()
	}

	m := &Manifest{
		Outputs: make(map[string]graph.Expression),
	}

	var diags hcl.Diagnostics
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.WithStack(err)
		}
		if info.IsDir() {
			if info.Name() == ".stackform" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".hcl") {
			return nil
		}

		file, moreDiags := l.parser.ParseHCLFile(path)
		diags = append(diags, moreDiags...)
		if moreDiags.HasErrors() {
			return nil
		}

		diags = append(diags, m.decodeBody(file.Body)...)
		return nil
	})
	if err != nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Could not load config",
			Detail:   fmt.Sprintf("Error loading files from %s: %v.", root, err),
		})
	}

	if diags.HasErrors() {
		return nil, diags
	}
	return m, diags
}

// WriteDiagnostics writes diagnostics as a human readable string to w. It
// should only be used for diagnostics that originate from files loaded by
// this Loader.
//
// If a TTY is attached, the output will be colorized and wrap at the
// terminal width. Otherwise, wrap occurs at 78 characters and the output
// contains no ANSI escape characters.
func (l *Loader) WriteDiagnostics(w io.Writer, diags hcl.Diagnostics) {
	var files map[string]*hcl.File
	if l.parser != nil {
		files = l.parser.Files()
	}
	cols, _, err := terminal.GetSize(0)
	if err != nil {
		cols = 78
	}
	color := terminal.IsTerminal(0)
	wr := hcl.NewDiagnosticTextWriter(w, files, uint(cols), color)
	if err := wr.WriteDiagnostics(diags); err != nil {
		fmt.Fprintln(w, err)
	}
}
