package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/example/vocabdash/internal/apperr"
)

type failingProvider struct{}

func (failingProvider) CurrentUser(context.Context) (*User, error) {
	return nil, errors.New("identity provider offline")
}

func TestContextProvider(t *testing.T) {
	ctx := WithUser(context.Background(), User{ID: "u1", Email: "u1@example.com"})

	u, err := Require(ctx, ContextProvider{})
	if err != nil {
		t.Fatalf("Require: %v", err)
	}
	if u.ID != "u1" || u.Email != "u1@example.com" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name     string
		provider Provider
		wantErr  error
	}{
		{"signed out context", ContextProvider{}, apperr.ErrNotAuthenticated},
		{"signed out static", Static{}, apperr.ErrNotAuthenticated},
		{"provider failure", failingProvider{}, apperr.ErrStore},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Require(context.Background(), tt.provider)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Require error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, apperr.ErrStore) {
				t.Fatalf("Require error = %v, want a store error", err)
			}
		})
	}
}
