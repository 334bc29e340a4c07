package auth

import "errors"

var (
	ErrUnauthorized   = errors.New("auth: unauthorized")
	ErrInvalidToken   = errors.New("auth: invalid token")
	ErrSessionExpired = errors.New("auth: session expired")
	ErrInvalidSecret  = errors.New("auth: invalid secret")
	ErrNotConfigured  = errors.New("auth: not configured")
)
