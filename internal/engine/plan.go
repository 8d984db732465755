package engine

import (
	"sort"

	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
	"github.com/gyaneshwarpardhi/easyaudit/internal/resolver"
)

// Plan is what the engine needs to know about the current configuration:
// which events are audited and how each is resolved.
// It is immutable once built; hot-reload creates a new Plan and swaps atomically.
type Plan struct {
	version  string
	events   map[string]struct{} // nil = every event
	fallback string
	registry *resolver.Registry
}

// NewPlan builds a Plan from a validated config.
func NewPlan(cfg *config.AuditConfig, tokens identity.TokenStorage) (*Plan, error) {
	reg, err := resolver.Build(cfg, tokens)
	if err != nil {
		return nil, err
	}
	p := &Plan{version: cfg.Version, registry: reg, fallback: cfg.DefaultResolver}
	if !cfg.AuditsAll() {
		p.events = make(map[string]struct{}, len(cfg.Events))
		for _, name := range cfg.Events {
			p.events[name] = struct{}{}
		}
	}
	return p, nil
}

// Audits reports whether events called name are audited.
func (p *Plan) Audits(name string) bool {
	if p.events == nil {
		return true
	}
	_, ok := p.events[name]
	return ok
}

// Resolver returns the resolver for name.
func (p *Plan) Resolver(name string) resolver.Resolver {
	return p.registry.For(name)
}

// Events returns the audited names in sorted order, or nil when every
// event is audited.
func (p *Plan) Events() []string {
	if p.events == nil {
		return nil
	}
	out := make([]string, 0, len(p.events))
	for name := range p.events {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Bindings returns the event names with a dedicated resolver.
func (p *Plan) Bindings() []string {
	return p.registry.Names()
}

// DefaultResolver returns the kind used for unbound events.
func (p *Plan) DefaultResolver() string {
	return p.fallback
}

// Version returns the version of the config the plan was built from.
func (p *Plan) Version() string {
	return p.version
}
