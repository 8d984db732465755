package identity

//go:generate mockgen -source=storage.go -destination=mocks/mocks.go -package=mocks TokenStorage

import "context"

// TokenStorage gives access to the token of the current request.
type TokenStorage interface {
	// Token returns the current token, or nil for anonymous callers.
	Token(ctx context.Context) Token
}

type tokenKey struct{}

// WithToken returns a copy of ctx carrying tok.
func WithToken(ctx context.Context, tok Token) context.Context {
	return context.WithValue(ctx, tokenKey{}, tok)
}

// TokenFromContext returns the token stored by WithToken, or nil.
func TokenFromContext(ctx context.Context) Token {
	if ctx == nil {
		return nil
	}
	tok, _ := ctx.Value(tokenKey{}).(Token)
	return tok
}

// ContextTokenStorage reads the request-scoped token from the context.
type ContextTokenStorage struct{}

func (ContextTokenStorage) Token(ctx context.Context) Token {
	return TokenFromContext(ctx)
}

// StaticTokenStorage always returns the same token.
type StaticTokenStorage struct {
	Current Token
}

func (s StaticTokenStorage) Token(context.Context) Token {
	return s.Current
}
