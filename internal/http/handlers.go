package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/helloiam/internal/auth"
	"github.com/dropDatabas3/helloiam/internal/config"
	"github.com/dropDatabas3/helloiam/internal/observability/logger"
	"github.com/dropDatabas3/helloiam/internal/store"
)

// AuthHandler expone los flujos de identidad sobre el wire.
type AuthHandler struct {
	svc   *auth.Service
	store store.CredentialStore
	env   config.Environment
}

func NewAuthHandler(svc *auth.Service, s store.CredentialStore, env config.Environment) *AuthHandler {
	return &AuthHandler{svc: svc, store: s, env: env}
}

// writeAuthError traduce los sentinels del servicio al wire. Todo lo que no
// sea un error de negocio conocido sale como 500 sin filtrar texto interno.
func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrEmailExists):
		WriteError(w, http.StatusConflict, CodeEmailExists)
	case errors.Is(err, auth.ErrPhoneExists):
		WriteError(w, http.StatusConflict, CodePhoneExists)
	case errors.Is(err, auth.ErrTokenNotFound), errors.Is(err, auth.ErrUserNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound)
	case errors.Is(err, auth.ErrInvalidCode):
		WriteError(w, http.StatusUnauthorized, CodeInvalidCode)
	case errors.Is(err, auth.ErrEmailUnverified):
		WriteError(w, http.StatusForbidden, CodeEmailUnverified)
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials)
	case errors.Is(err, auth.ErrInvalidOTP):
		WriteError(w, http.StatusUnauthorized, CodeInvalidOTP)
	default:
		logger.From(r.Context()).Error("auth_handler_err",
			logger.Path(r.URL.Path), logger.Err(err))
		WriteError(w, http.StatusInternalServerError, CodeServerError)
	}
}

// POST /auth/register-email
func (h *AuthHandler) RegisterEmail(w http.ResponseWriter, r *http.Request) {
	var req registerEmailRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return
	}

	res, err := h.svc.RegisterEmail(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	resp := registerEmailResponse{UserID: res.UserID}
	if !h.env.IsProd() {
		resp.VerificationToken = res.VerificationToken
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// GET /auth/verify-email?token=...
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidToken)
		return
	}
	if err := h.svc.VerifyEmail(r.Context(), token); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// POST /auth/register-phone
func (h *AuthHandler) RegisterPhone(w http.ResponseWriter, r *http.Request) {
	var req registerPhoneRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Phone == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return
	}

	res, err := h.svc.RegisterPhone(r.Context(), req.Phone)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	resp := registerPhoneResponse{Sent: true}
	if !h.env.IsProd() {
		resp.VerificationCode = res.VerificationCode
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// POST /auth/verify-sms
func (h *AuthHandler) VerifySMS(w http.ResponseWriter, r *http.Request) {
	var req verifySMSRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Phone == "" || req.Code == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return
	}
	if err := h.svc.VerifySMS(r.Context(), req.Phone, req.Code); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

// POST /auth/issue-token
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return
	}

	pair, err := h.svc.IssueToken(r.Context(),
		req.Email, req.Password, req.OTP,
		r.UserAgent(), clientIP(r))
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

// GET /auth/sessions?user_id=...
// Brecha conocida y preservada: el listado no exige autenticación del dueño.
func (h *AuthHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return
	}

	sessions, err := h.svc.Sessions(r.Context(), userID)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	WriteJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}

// POST /auth/enable-2fa
func (h *AuthHandler) Enable2FA(w http.ResponseWriter, r *http.Request) {
	var req userIDRequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return
	}

	enrollment, err := h.svc.Enable2FA(r.Context(), req.UserID)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	resp := enable2FAResponse{OTPAuthURI: enrollment.URI}
	if !h.env.IsProd() {
		resp.Secret = enrollment.Secret
	}
	WriteJSON(w, http.StatusOK, resp)
}

// POST /auth/verify-2fa
func (h *AuthHandler) Verify2FA(w http.ResponseWriter, r *http.Request) {
	var req verify2FARequest
	if !ReadJSON(w, r, &req) {
		return
	}
	if req.UserID == "" || req.OTP == "" {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return
	}
	if err := h.svc.Confirm2FA(r.Context(), req.UserID, req.OTP); err != nil {
		h.writeAuthError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, enabledResponse{Enabled: true})
}

// GET /healthz
func (h *AuthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — listo sólo si el backend responde.
func (h *AuthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
