// Package resolver turns framework events into audit records.
package resolver

import (
	"context"

	"github.com/gyaneshwarpardhi/easyaudit/internal/audit"
	"github.com/gyaneshwarpardhi/easyaudit/internal/event"
)

// Resolver classifies an event raised under name.
type Resolver interface {
	Resolve(ctx context.Context, ev event.Event, name string) (audit.Record, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, ev event.Event, name string) (audit.Record, error)

func (f ResolverFunc) Resolve(ctx context.Context, ev event.Event, name string) (audit.Record, error) {
	return f(ctx, ev, name)
}

// DefaultResolver logs events under their own name unless the event
// describes itself.
type DefaultResolver struct{}

func (DefaultResolver) Resolve(_ context.Context, ev event.Event, name string) (audit.Record, error) {
	if d, ok := ev.(event.Describer); ok {
		return d.AuditRecord(), nil
	}
	return audit.Passthrough(name), nil
}
