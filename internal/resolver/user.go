package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/easyaudit/internal/audit"
	"github.com/gyaneshwarpardhi/easyaudit/internal/event"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
)

// Event names with a dedicated classification.
const (
	EventInteractiveLogin      = "security.interactive_login"
	EventImplicitLogin         = "fos_user.security.implicit_login"
	EventPasswordChanged       = "fos_user.change_password.edit.completed"
	EventAuthenticationFailure = "security.authentication.failure"
)

// Record types.
const (
	TypeUserLoggedIn         = "User Logged in"
	TypePasswordChanged      = "Password Changed"
	TypeAuthenticationFailed = "Authentication Failed"
)

// ErrConfiguration reports a resolver that was built without a
// capability an event requires. It is never transient.
var ErrConfiguration = errors.New("resolver misconfigured")

// UserEventResolver classifies login, password change and authentication
// failure events. Events whose payload does not match what their name
// promises are logged under their name, like any unknown event.
type UserEventResolver struct {
	tokens identity.TokenStorage
}

// Option configures a UserEventResolver.
type Option func(*UserEventResolver)

// WithTokenStorage supplies the security capability interactive logins
// are resolved against.
func WithTokenStorage(ts identity.TokenStorage) Option {
	return func(r *UserEventResolver) { r.tokens = ts }
}

func NewUserEventResolver(opts ...Option) *UserEventResolver {
	r := &UserEventResolver{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HasTokenStorage reports whether interactive logins can be resolved.
func (r *UserEventResolver) HasTokenStorage() bool {
	return r.tokens != nil
}

func (r *UserEventResolver) Resolve(ctx context.Context, ev event.Event, name string) (audit.Record, error) {
	switch name {
	case EventInteractiveLogin:
		if r.tokens == nil {
			return audit.Record{}, fmt.Errorf("%w: security capability %q not present", ErrConfiguration, identity.TokenStorageCapability)
		}
		username := identity.Username(r.tokens.Token(ctx))
		return audit.Record{
			Type:        TypeUserLoggedIn,
			Description: fmt.Sprintf("User '%s' Logged in Successfully", username),
		}, nil

	case EventImplicitLogin:
		if u := carriedUser(ev); u != nil {
			return audit.Record{
				Type:        TypeUserLoggedIn,
				Description: fmt.Sprintf("User '%s' Logged in Successfully using remember me service", u.Username()),
			}, nil
		}

	case EventPasswordChanged:
		if u := carriedUser(ev); u != nil {
			return audit.Record{
				Type:        TypePasswordChanged,
				Description: fmt.Sprintf("Password of user '%s' Changed Successfully", u.Username()),
			}, nil
		}

	case EventAuthenticationFailure:
		if f, ok := ev.(event.FailureCarrier); ok {
			return audit.Record{
				Type:        TypeAuthenticationFailed,
				Description: fmt.Sprintf("%s Username: %s", failureMessage(f.AuthenticationError()), f.Username()),
			}, nil
		}
	}
	return audit.Passthrough(name), nil
}

func carriedUser(ev event.Event) identity.User {
	uc, ok := ev.(event.UserCarrier)
	if !ok {
		return nil
	}
	return uc.User()
}

func failureMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
