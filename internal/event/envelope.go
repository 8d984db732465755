package event

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gyaneshwarpardhi/easyaudit/internal/audit"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
)

// ErrUnknownKind is returned when an envelope names a kind no variant
// exists for.
var ErrUnknownKind = errors.New("unknown event kind")

// Envelope is the wire model of an ingested event.
type Envelope struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"` // "security.interactive_login", ...
	Kind       Kind              `json:"kind,omitempty"`
	User       string            `json:"user,omitempty"`        // user wrapped by user-bearing kinds
	Username   string            `json:"username,omitempty"`    // attempted username on failures
	Reason     string            `json:"reason,omitempty"`      // failure message
	Type       string            `json:"type,omitempty"`        // described events only
	Desc       string            `json:"description,omitempty"` // described events only
	Source     string            `json:"source,omitempty"`
	ClientIP   string            `json:"client_ip,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	ReceivedAt time.Time         `json:"-"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// AuthenticationError is the failure carried by an authentication
// failure envelope.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string { return e.Message }

// Payload builds the event variant described by the envelope. Missing
// users are not an error: the variant is built without one and resolvers
// treat it as a generic event.
func (e *Envelope) Payload() (Event, error) {
	kind := Kind(strings.ToLower(strings.TrimSpace(string(e.Kind))))
	switch kind {
	case "", KindBasic:
		return Basic{}, nil
	case KindUser:
		return NewUserEvent(e.user()), nil
	case KindFilterUserResponse:
		return NewFilterUserResponseEvent(e.user()), nil
	case KindAuthenticationFailure:
		return NewAuthenticationFailureEvent(e.Username, &AuthenticationError{Message: e.Reason}), nil
	case KindDescribed:
		if e.Type == "" {
			return nil, errors.New("described event needs a type")
		}
		desc := e.Desc
		if desc == "" {
			desc = e.Type
		}
		return &DescribedEvent{Record: audit.Record{Type: e.Type, Description: desc}}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, e.Kind)
	}
}

func (e *Envelope) user() identity.User {
	if e.User == "" {
		return nil
	}
	return identity.NamedUser(e.User)
}
