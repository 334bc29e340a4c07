package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

func newTestAuthenticator(t *testing.T, now time.Time) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator([]byte("open-sesame"), []byte("test-signing-key"), time.Hour, fixedClock{now: now})
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return a
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := SessionFromContext(r.Context()).Check(time.Now()); err != nil {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestLoginRejectsWrongSecret(t *testing.T) {
	a := newTestAuthenticator(t, time.Now())
	if _, _, err := a.Login("wrong"); !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret, got %v", err)
	}
	if _, _, err := a.Login(""); !errors.Is(err, ErrInvalidSecret) {
		t.Fatalf("expected ErrInvalidSecret for empty secret, got %v", err)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	a := newTestAuthenticator(t, now)
	token, sess, err := a.Login("open-sesame")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Subject != SharedSubject || !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("unexpected session: %+v", sess)
	}
	verified, err := a.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if verified.Subject != SharedSubject || !verified.ExpiresAt.Equal(sess.ExpiresAt) {
		t.Fatalf("unexpected verified session: %+v", verified)
	}
}

func TestSessionCheck(t *testing.T) {
	now := time.Now()
	if err := (Session{}).Check(now); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	expired := Session{Subject: SharedSubject, ExpiresAt: now.Add(-time.Minute)}
	if err := expired.Check(now); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	active := Session{Subject: SharedSubject, ExpiresAt: now.Add(time.Minute)}
	if err := active.Check(now); err != nil {
		t.Fatalf("expected active session, got %v", err)
	}
}

func TestAuthMiddleware_NoToken(t *testing.T) {
	a := newTestAuthenticator(t, time.Now())
	mw := NewMiddleware(a, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/overdue", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_BearerToken(t *testing.T) {
	a := newTestAuthenticator(t, time.Now().UTC())
	token, _, err := a.Login("open-sesame")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	mw := NewMiddleware(a, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/overdue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_CookieToken(t *testing.T) {
	a := newTestAuthenticator(t, time.Now().UTC())
	token, _, err := a.Login("open-sesame")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	mw := NewMiddleware(a, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/customers", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	a := newTestAuthenticator(t, time.Now().Add(-2*time.Hour))
	token, _, err := a.Login("open-sesame")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	mw := NewMiddleware(a, NewDefaultPolicy(nil, nil))
	handler := mw.Wrap(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/overdue", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthMiddleware_ExemptPath(t *testing.T) {
	mw := NewMiddleware(nil, NewDefaultPolicy([]string{"/healthz"}, nil))
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}
