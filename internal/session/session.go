package session

import (
	"context"
	"time"

	apperrors "github.com/crypto-dashboard/internal/errors"
)

// Session is a validated login carried through a request context
type Session struct {
	ID        string
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at now
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type sessionKey struct{}

// WithSession returns a context carrying s
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session carried by ctx, if any
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok && s != nil
}

// Require returns the session carried by ctx or an UNAUTHORIZED error
func Require(ctx context.Context) (*Session, error) {
	s, ok := FromContext(ctx)
	if !ok || s.Email == "" {
		return nil, apperrors.NewUnauthorizedError("no active session")
	}
	if s.Expired(time.Now()) {
		return nil, apperrors.NewUnauthorizedError("session expired")
	}
	return s, nil
}
