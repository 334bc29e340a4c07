package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"fastrack/internal/audit"
	"fastrack/internal/auth"
	"fastrack/internal/observability/metrics"
)

type loginRequest struct {
	Secret string `json:"secret" validate:"required,max=512"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginHandler exchanges the shared secret for a session token.
type LoginHandler struct {
	authenticator *auth.Authenticator
	auditLogger   audit.Logger
	validate      *validator.Validate
	secureCookie  bool
}

// NewLoginHandler constructs a LoginHandler.
func NewLoginHandler(authenticator *auth.Authenticator, auditLogger audit.Logger, secureCookie bool) (*LoginHandler, error) {
	if authenticator == nil {
		return nil, errors.New("login handler: nil authenticator")
	}
	return &LoginHandler{
		authenticator: authenticator,
		auditLogger:   auditLogger,
		validate:      validator.New(),
		secureCookie:  secureCookie,
	}, nil
}

// ServeHTTP handles POST /api/v1/login.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	token, sess, err := h.authenticator.Login(req.Secret)
	if err != nil {
		metrics.IncLoginAttempt(metrics.ResultError)
		h.logAudit(r, "auth.login.failed", "")
		if errors.Is(err, auth.ErrInvalidSecret) {
			http.Error(w, "invalid secret", http.StatusUnauthorized)
			return
		}
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	metrics.IncLoginAttempt(metrics.ResultSuccess)
	h.logAudit(r, "auth.login", sess.Subject)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(loginResponse{Token: token, ExpiresAt: sess.ExpiresAt})
}

func (h *LoginHandler) logAudit(r *http.Request, action, actor string) {
	if h.auditLogger == nil {
		return
	}
	_ = h.auditLogger.Log(r.Context(), audit.FromRequest(r, actor, action, "session", "", nil))
}
