package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"time"
)

// SharedSubject identifies callers of the single shared-secret gate.
const SharedSubject = "shared"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Authenticator checks the shared secret and issues session tokens.
type Authenticator struct {
	secret     []byte
	signingKey []byte
	ttl        time.Duration
	clock      Clock
}

// NewAuthenticator constructs an Authenticator. A zero ttl means 12 hours.
func NewAuthenticator(sharedSecret, signingKey []byte, ttl time.Duration, clock Clock) (*Authenticator, error) {
	if len(sharedSecret) == 0 || len(signingKey) == 0 {
		return nil, ErrNotConfigured
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Authenticator{secret: sharedSecret, signingKey: signingKey, ttl: ttl, clock: clock}, nil
}

// Login verifies candidate against the shared secret and returns a signed
// session token with the session it encodes.
func (a *Authenticator) Login(candidate string) (string, Session, error) {
	if a == nil {
		return "", Session{}, ErrNotConfigured
	}
	if !equalSecret([]byte(candidate), a.secret) {
		return "", Session{}, ErrInvalidSecret
	}
	now := a.clock.Now()
	sess := Session{Subject: SharedSubject, IssuedAt: now, ExpiresAt: now.Add(a.ttl)}
	token, err := IssueJWT(sess.Subject, sess.IssuedAt, sess.ExpiresAt, a.signingKey)
	if err != nil {
		return "", Session{}, err
	}
	return token, sess, nil
}

// Verify parses a session token.
func (a *Authenticator) Verify(token string) (Session, error) {
	if a == nil {
		return Session{}, ErrNotConfigured
	}
	claims, err := ParseJWT(token, a.signingKey)
	if err != nil {
		return Session{}, err
	}
	return SessionFromClaims(claims), nil
}

// digests keep the comparison constant-time regardless of input length
func equalSecret(candidate, secret []byte) bool {
	a := sha256.Sum256(candidate)
	b := sha256.Sum256(secret)
	return hmac.Equal(a[:], b[:])
}
