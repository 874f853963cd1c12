package http

import "github.com/dropDatabas3/helloiam/internal/store"

type registerEmailRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerEmailResponse struct {
	UserID string `json:"user_id"`
	// sólo fuera de prod
	VerificationToken string `json:"verification_token,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type registerPhoneRequest struct {
	Phone string `json:"phone"`
}

type registerPhoneResponse struct {
	Sent bool `json:"sent"`
	// sólo fuera de prod
	VerificationCode string `json:"verification_code,omitempty"`
}

type verifySMSRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type issueTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	OTP      string `json:"otp"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type sessionsResponse struct {
	Sessions []store.Session `json:"sessions"`
}

type userIDRequest struct {
	UserID string `json:"user_id"`
}

type enable2FAResponse struct {
	OTPAuthURI string `json:"otpauth_uri"`
	// sólo fuera de prod
	Secret string `json:"secret,omitempty"`
}

type verify2FARequest struct {
	UserID string `json:"user_id"`
	OTP    string `json:"otp"`
}

type enabledResponse struct {
	Enabled bool `json:"enabled"`
}
