package event

import (
	"github.com/gyaneshwarpardhi/easyaudit/internal/audit"
	"github.com/gyaneshwarpardhi/easyaudit/internal/identity"
)

// Kind discriminates the event variants.
type Kind string

const (
	KindBasic                 Kind = "basic"
	KindUser                  Kind = "user"
	KindFilterUserResponse    Kind = "filter_user_response"
	KindAuthenticationFailure Kind = "authentication_failure"
	KindDescribed             Kind = "described"
)

// Event is a framework event handed to a resolver together with its name.
// What a resolver can read from it depends on which of the carrier
// interfaces below the variant implements.
type Event interface {
	Kind() Kind
}

// UserCarrier is implemented by events that wrap a user.
type UserCarrier interface {
	User() identity.User
}

// FailureCarrier is implemented by authentication failure events, which
// only know the username that was tried.
type FailureCarrier interface {
	Username() string
	AuthenticationError() error
}

// Describer is implemented by events that know their own audit record.
// Over the wire these are envelopes of kind "described"; Go callers can
// also pass their own types to a resolver directly.
type Describer interface {
	AuditRecord() audit.Record
}

// Basic carries no payload.
type Basic struct{}

func (Basic) Kind() Kind { return KindBasic }

// UserEvent wraps the user an action was performed for.
type UserEvent struct {
	Subject identity.User
}

func NewUserEvent(u identity.User) *UserEvent { return &UserEvent{Subject: u} }

func (*UserEvent) Kind() Kind { return KindUser }

func (e *UserEvent) User() identity.User { return e.Subject }

// FilterUserResponseEvent is raised once a user form (login, password
// change) has been handled and the response is about to be sent.
type FilterUserResponseEvent struct {
	Subject identity.User
}

func NewFilterUserResponseEvent(u identity.User) *FilterUserResponseEvent {
	return &FilterUserResponseEvent{Subject: u}
}

func (*FilterUserResponseEvent) Kind() Kind { return KindFilterUserResponse }

func (e *FilterUserResponseEvent) User() identity.User { return e.Subject }

// AuthenticationFailureEvent reports a rejected login attempt.
type AuthenticationFailureEvent struct {
	Attempted string
	Err       error
}

func NewAuthenticationFailureEvent(username string, err error) *AuthenticationFailureEvent {
	return &AuthenticationFailureEvent{Attempted: username, Err: err}
}

func (*AuthenticationFailureEvent) Kind() Kind { return KindAuthenticationFailure }

func (e *AuthenticationFailureEvent) Username() string { return e.Attempted }

func (e *AuthenticationFailureEvent) AuthenticationError() error { return e.Err }

// DescribedEvent carries the audit record chosen by whoever raised it.
type DescribedEvent struct {
	Record audit.Record
}

func (*DescribedEvent) Kind() Kind { return KindDescribed }

func (e *DescribedEvent) AuditRecord() audit.Record { return e.Record }
