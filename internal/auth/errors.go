package auth

import "errors"

// Errores de negocio del servicio. Los handlers los traducen 1:1 a los
// códigos del wire; cualquier otro error es server_error.
var (
	ErrEmailExists        = errors.New("auth: email already registered")
	ErrPhoneExists        = errors.New("auth: phone already registered")
	ErrTokenNotFound      = errors.New("auth: verification token not found")
	ErrInvalidCode        = errors.New("auth: invalid sms code")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrEmailUnverified    = errors.New("auth: email not verified")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrInvalidOTP         = errors.New("auth: invalid otp")
)
