package goSession

import (
	"context"

	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

// Credentials is the login form input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityProvider resolves credentials to an identity. Implementations return an error
// wrapping ErrInvalidCredentials for rejected credentials; any other error is treated as
// the provider being unavailable.
type IdentityProvider interface {
	Authenticate(ctx context.Context, creds Credentials) (token.Identity, error)
}

// IdentityProviderFunc adapts a function to IdentityProvider.
type IdentityProviderFunc func(ctx context.Context, creds Credentials) (token.Identity, error)

// Authenticate calls f.
func (f IdentityProviderFunc) Authenticate(ctx context.Context, creds Credentials) (token.Identity, error) {
	return f(ctx, creds)
}

// SessionView is the client-visible projection of a session. It omits the
// identity ID and the token window.
type SessionView struct {
	UserID string    `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   role.Role `json:"role"`
}

// ViewOf projects p for clients. A nil payload yields nil, which encodes as JSON null.
func ViewOf(p *token.Payload) *SessionView {
	if p == nil {
		return nil
	}
	return &SessionView{
		UserID: p.UserID,
		Email:  p.Email,
		Name:   p.Name,
		Role:   p.Role,
	}
}
