package identity

// TokenStorageCapability is the name of the security capability the
// interactive login resolver depends on.
const TokenStorageCapability = "security.token_storage"

// AnonymousName is reported for requests that carry no authenticated user.
const AnonymousName = "anon."

// User is the minimal identity an audit record can name.
type User interface {
	Username() string
}

// Token is an authenticated security token.
type Token interface {
	// User returns the authenticated user, or nil.
	User() User
}

// NamedUser is a User known only by its name.
type NamedUser string

func (u NamedUser) Username() string { return string(u) }

// StaticToken wraps a fixed user.
type StaticToken struct {
	Principal User
}

// NewStaticToken builds a token around user. A string is turned into a
// NamedUser; any other value must implement User.
func NewStaticToken(user any) *StaticToken {
	switch u := user.(type) {
	case User:
		return &StaticToken{Principal: u}
	case string:
		return &StaticToken{Principal: NamedUser(u)}
	default:
		return &StaticToken{}
	}
}

func (t *StaticToken) User() User {
	if t == nil {
		return nil
	}
	return t.Principal
}

// Username returns the display name of tok's user, falling back to
// AnonymousName when there is no token or no user.
func Username(tok Token) string {
	if tok == nil {
		return AnonymousName
	}
	u := tok.User()
	if u == nil {
		return AnonymousName
	}
	return u.Username()
}
