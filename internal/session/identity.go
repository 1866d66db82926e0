// Package session provides the identity and session abstraction the account
// service resolves its user from.
package session

import (
	"context"
	"strings"

	apperrors "github.com/crypto-dashboard/internal/errors"
)

// DefaultDemoEmail is the address of the single demo user
const DefaultDemoEmail = "demo@example.com"

// Identity is an authenticated principal
type Identity interface {
	Email() string
}

// DemoIdentity is the single hard-coded user of a demo deployment
type DemoIdentity struct {
	email string
}

// NewDemoIdentity creates the demo identity. An empty email uses DefaultDemoEmail.
func NewDemoIdentity(email string) DemoIdentity {
	if email == "" {
		email = DefaultDemoEmail
	}
	return DemoIdentity{email: email}
}

// Email returns the demo address
func (d DemoIdentity) Email() string { return d.email }

// Credentials are what a login request supplies
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Authenticator resolves credentials to an identity
type Authenticator interface {
	Authenticate(ctx context.Context, creds Credentials) (Identity, error)
}

// DemoAuthenticator accepts any non-empty credentials and always resolves to
// the demo identity.
type DemoAuthenticator struct {
	identity DemoIdentity
}

// NewDemoAuthenticator creates an authenticator bound to identity
func NewDemoAuthenticator(identity DemoIdentity) *DemoAuthenticator {
	return &DemoAuthenticator{identity: identity}
}

// Authenticate implements Authenticator
func (a *DemoAuthenticator) Authenticate(_ context.Context, creds Credentials) (Identity, error) {
	if strings.TrimSpace(creds.Email) == "" || creds.Password == "" {
		return nil, apperrors.NewUnauthorizedError("email and password are required")
	}
	return a.identity, nil
}
