package auth

import (
	"net/http"
	"strings"
)

// SessionCookie is the cookie name accepted in place of a bearer token.
const SessionCookie = "fastrack_session"

// TokenVerifier turns a session token into a Session.
type TokenVerifier interface {
	Verify(token string) (Session, error)
}

// Middleware validates session tokens and stores the session in context.
type Middleware struct {
	Verifier TokenVerifier
	Policy   Policy
}

// NewMiddleware constructs an auth middleware.
func NewMiddleware(verifier TokenVerifier, policy Policy) *Middleware {
	return &Middleware{Verifier: verifier, Policy: policy}
}

// Wrap applies authentication to the handler.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.Policy.IsExempt(r) {
			next.ServeHTTP(w, r)
			return
		}
		if m.Verifier == nil {
			http.Error(w, "auth not configured", http.StatusUnauthorized)
			return
		}

		sess, err := m.Verifier.Verify(extractToken(r))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
	})
}

func extractToken(r *http.Request) string {
	if token := extractBearer(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
