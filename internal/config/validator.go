package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Validate checks the config for:
//   - Required fields
//   - Empty or duplicate audited event names
//   - Unknown resolver kinds and sink types
func Validate(cfg *AuditConfig) error {
	if cfg.Version == "" {
		return fmt.Errorf("%w: version is required", ErrInvalid)
	}
	var errs []string

	seen := make(map[string]int, len(cfg.Events))
	for i, name := range cfg.Events {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Sprintf("events[%d]: name is required", i))
			continue
		}
		if prev, ok := seen[name]; ok {
			errs = append(errs, fmt.Sprintf("duplicate event %q (events[%d] and events[%d])", name, prev, i))
			continue
		}
		seen[name] = i
	}

	if !knownResolver(cfg.DefaultResolver) {
		errs = append(errs, fmt.Sprintf("default_resolver: unknown kind %q", cfg.DefaultResolver))
	}
	names := make([]string, 0, len(cfg.Resolvers))
	for name := range cfg.Resolvers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, "resolvers: event name is required")
			continue
		}
		if kind := cfg.Resolvers[name]; !knownResolver(kind) {
			errs = append(errs, fmt.Sprintf("resolvers[%s]: unknown kind %q", name, kind))
		}
	}

	for i, s := range cfg.Sinks {
		switch s.Type {
		case SinkLog, SinkStdout:
		case SinkFile:
			if s.Path == "" {
				errs = append(errs, fmt.Sprintf("sinks[%d]: path is required for file sinks", i))
			}
		default:
			errs = append(errs, fmt.Sprintf("sinks[%d]: unknown type %q", i, s.Type))
		}
	}

	if cfg.Engine.EventWorkers < 0 || cfg.Engine.QueueDepth < 0 || cfg.Engine.EventTimeoutMs < 0 {
		errs = append(errs, "engine: settings must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n  - %s", ErrInvalid, strings.Join(errs, "\n  - "))
	}
	return nil
}

func knownResolver(kind string) bool {
	return kind == ResolverDefault || kind == ResolverUser
}
