package resolver

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps event names to the resolver that classifies them.
// It is safe for concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]Resolver
	fallback  Resolver
}

// NewRegistry creates a Registry that hands unbound events to fallback.
// A nil fallback means DefaultResolver.
func NewRegistry(fallback Resolver) *Registry {
	if fallback == nil {
		fallback = DefaultResolver{}
	}
	return &Registry{resolvers: make(map[string]Resolver), fallback: fallback}
}

// Register binds r to an event name. Panics on duplicate names to surface misconfiguration early.
func (g *Registry) Register(name string, r Resolver) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.resolvers[name]; exists {
		panic(fmt.Sprintf("resolver registry: duplicate event %q", name))
	}
	g.resolvers[name] = r
}

// For returns the resolver bound to name, or the fallback.
func (g *Registry) For(name string) Resolver {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if r, ok := g.resolvers[name]; ok {
		return r
	}
	return g.fallback
}

// Names returns the bound event names in sorted order.
func (g *Registry) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.resolvers))
	for k := range g.resolvers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
