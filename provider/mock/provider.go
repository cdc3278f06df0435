// Package mock provides an in-memory provider for tests and dry runs.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/stackform/stackform/provider"
	"github.com/zclconf/go-cty/cty"
)

// An Event describes a provider operation that was performed.
type Event struct {
	Op     string // create / destroy
	Kind   string
	Config cty.Value
	Attrs  cty.Value
}

// Provider fakes infrastructure provisioning in memory for tests.
//
// By default, Create assigns deterministic attributes ({id, name}) derived
// from the config and the call sequence, and Destroy succeeds for attributes
// that were previously created. Either behavior can be overridden.
type Provider struct {
	// CreateFunc, if set, replaces the default create behavior.
	CreateFunc func(ctx context.Context, kind string, config cty.Value) (cty.Value, error)

	// DestroyFunc, if set, replaces the default destroy behavior.
	DestroyFunc func(ctx context.Context, kind string, attrs cty.Value) error

	mu     sync.Mutex
	seq    int
	live   map[string]bool
	Events []Event
}

// Create fakes provisioning a node.
func (p *Provider) Create(ctx context.Context, kind string, config cty.Value) (cty.Value, error) {
	if p.CreateFunc != nil {
		attrs, err := p.CreateFunc(ctx, kind, config)
		if err != nil {
			return cty.NilVal, err
		}
		p.record(Event{Op: "create", Kind: kind, Config: config, Attrs: attrs})
		return attrs, nil
	}

	p.mu.Lock()
	p.seq++
	id := fmt.Sprintf("%s-%d", kind, p.seq)
	if p.live == nil {
		p.live = make(map[string]bool)
	}
	p.live[id] = true
	p.mu.Unlock()

	attrs := cty.ObjectVal(map[string]cty.Value{
		"id":   cty.StringVal(id),
		"name": cty.StringVal(configName(config, id)),
	})
	p.record(Event{Op: "create", Kind: kind, Config: config, Attrs: attrs})
	return attrs, nil
}

// Destroy fakes tearing down a node. Destroying attributes that were never
// created, or were already destroyed, returns a not-found error.
func (p *Provider) Destroy(ctx context.Context, kind string, attrs cty.Value) error {
	p.record(Event{Op: "destroy", Kind: kind, Attrs: attrs})
	if p.DestroyFunc != nil {
		return p.DestroyFunc(ctx, kind, attrs)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	id := attrID(attrs)
	if !p.live[id] {
		return provider.NewNotFoundError(fmt.Errorf("%s %q does not exist", kind, id))
	}
	delete(p.live, id)
	return nil
}

// CreatedKinds returns the kinds passed to Create, in call order.
func (p *Provider) CreatedKinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var kinds []string
	for _, e := range p.Events {
		if e.Op == "create" {
			kinds = append(kinds, e.Kind)
		}
	}
	return kinds
}

func (p *Provider) record(e Event) {
	p.mu.Lock()
	p.Events = append(p.Events, e)
	p.mu.Unlock()
}

func configName(config cty.Value, fallback string) string {
	if config.Type().IsObjectType() && config.Type().HasAttribute("name") {
		v := config.GetAttr("name")
		if v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
			return v.AsString()
		}
	}
	return fallback
}

func attrID(attrs cty.Value) string {
	if attrs.Type().IsObjectType() && attrs.Type().HasAttribute("id") {
		v := attrs.GetAttr("id")
		if v.Type() == cty.String && v.IsKnown() && !v.IsNull() {
			return v.AsString()
		}
	}
	return ""
}
