// Package auth exposes the current authenticated user. Sign-in and session
// lifecycle belong to the identity provider and are not handled here.
package auth

import (
	"context"

	"github.com/example/vocabdash/internal/apperr"
)

// User is the authenticated account that owns words and quiz history
type User struct {
	ID    string
	Email string
}

// Provider returns the current user, or nil when nobody is signed in
type Provider interface {
	CurrentUser(ctx context.Context) (*User, error)
}

type contextKey struct{}

// WithUser returns a context carrying u as the current user
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// FromContext returns the user stored by WithUser
func FromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}

// ContextProvider reads the current user from the request context
type ContextProvider struct{}

// CurrentUser implements Provider
func (ContextProvider) CurrentUser(ctx context.Context) (*User, error) {
	u, ok := FromContext(ctx)
	if !ok || u.ID == "" {
		return nil, nil
	}
	return &u, nil
}

// Static always reports the same user; a nil user means signed out
type Static struct {
	User *User
}

// CurrentUser implements Provider
func (s Static) CurrentUser(context.Context) (*User, error) {
	if s.User == nil {
		return nil, nil
	}
	u := *s.User
	return &u, nil
}

// Require resolves the current user through p and fails with a store error
// when the provider is unreachable or nobody is signed in.
func Require(ctx context.Context, p Provider) (*User, error) {
	u, err := p.CurrentUser(ctx)
	if err != nil {
		return nil, apperr.Store("resolve current user", err)
	}
	if u == nil {
		return nil, apperr.Store("resolve current user", apperr.ErrNotAuthenticated)
	}
	return u, nil
}
