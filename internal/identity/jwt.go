package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for bearer tokens that fail verification.
var ErrInvalidToken = errors.New("invalid bearer token")

// Claims carried by bearer tokens. Username is optional; the subject is
// used when it is empty.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsToken is a Token backed by verified JWT claims.
type ClaimsToken struct {
	Claims Claims
}

func (t *ClaimsToken) User() User {
	if t == nil {
		return nil
	}
	name := t.Claims.Username
	if name == "" {
		name = t.Claims.Subject
	}
	if name == "" {
		return nil
	}
	return NamedUser(name)
}

// JWTVerifier verifies HS256 bearer tokens.
type JWTVerifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTVerifier returns a verifier for secret. An empty issuer disables
// the issuer check.
func NewJWTVerifier(secret, issuer string) (*JWTVerifier, error) {
	if secret == "" {
		return nil, errors.New("jwt verifier: secret is required")
	}
	return &JWTVerifier{secret: []byte(secret), issuer: issuer, now: time.Now}, nil
}

// Verify parses raw and returns the token it represents.
func (v *JWTVerifier) Verify(raw string) (*ClaimsToken, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	tok := &ClaimsToken{Claims: claims}
	if tok.User() == nil {
		return nil, fmt.Errorf("%w: no username or subject", ErrInvalidToken)
	}
	return tok, nil
}

// Sign issues an HS256 token for username valid for ttl. Used by tooling
// and tests that need a bearer token for a known user.
func (v *JWTVerifier) Sign(username string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
