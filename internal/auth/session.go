package auth

import (
	"context"
	"time"
)

// Session is the authentication context of one caller.
// It is passed explicitly to every report query.
type Session struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionFromClaims builds a session from validated token claims.
func SessionFromClaims(claims *Claims) Session {
	if claims == nil {
		return Session{}
	}
	var sess Session
	sess.Subject = claims.Subject
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess
}

// Check returns nil when the session is authenticated at now.
func (s Session) Check(now time.Time) error {
	if s.Subject == "" {
		return ErrUnauthorized
	}
	if !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt) {
		return ErrSessionExpired
	}
	return nil
}

type contextKey string

const contextKeySession contextKey = "auth.session"

// WithSession stores the session in context for the HTTP layer.
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKeySession, sess)
}

// SessionFromContext extracts the session stored by the middleware.
func SessionFromContext(ctx context.Context) Session {
	if ctx == nil {
		return Session{}
	}
	if sess, ok := ctx.Value(contextKeySession).(Session); ok {
		return sess
	}
	return Session{}
}
