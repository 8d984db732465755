package resolver

import (
	"fmt"
	"sort"

	"github.com/gyaneshwarpardhi/easyaudit/internal/config"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
)

// Build constructs a Registry from a validated AuditConfig. tokens may be
// nil, in which case interactive logins fail with ErrConfiguration.
// Without a resolvers section, every event UserEventResolver knows about
// is bound to it.
func Build(cfg *config.AuditConfig, tokens identity.TokenStorage) (*Registry, error) {
	var opts []Option
	if tokens != nil {
		opts = append(opts, WithTokenStorage(tokens))
	}
	user := NewUserEventResolver(opts...)

	kinds := map[string]Resolver{
		config.ResolverDefault: DefaultResolver{},
		config.ResolverUser:    user,
	}

	fallback, ok := kinds[cfg.DefaultResolver]
	if !ok {
		return nil, fmt.Errorf("default_resolver: unknown kind %q", cfg.DefaultResolver)
	}
	g := NewRegistry(fallback)

	bindings := cfg.Resolvers
	if len(bindings) == 0 {
		bindings = defaultBindings()
	}
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r, ok := kinds[bindings[name]]
		if !ok {
			return nil, fmt.Errorf("resolvers[%s]: unknown kind %q", name, bindings[name])
		}
		g.Register(name, r)
	}
	return g, nil
}

func defaultBindings() map[string]string {
	return map[string]string{
		EventInteractiveLogin:      config.ResolverUser,
		EventImplicitLogin:         config.ResolverUser,
		EventPasswordChanged:       config.ResolverUser,
		EventAuthenticationFailure: config.ResolverUser,
	}
}
