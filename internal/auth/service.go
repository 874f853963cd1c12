// Package auth implementa los flujos de identidad: registro y verificación
// por email/SMS, emisión de tokens con gate TOTP opcional, y enrolamiento
// del segundo factor. Todo el estado vive detrás de CredentialStore; acá
// sólo hay reglas de negocio.
package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dropDatabas3/helloiam/internal/email"
	"github.com/dropDatabas3/helloiam/internal/jwt"
	"github.com/dropDatabas3/helloiam/internal/observability/logger"
	"github.com/dropDatabas3/helloiam/internal/security/otp"
	"github.com/dropDatabas3/helloiam/internal/security/password"
	"github.com/dropDatabas3/helloiam/internal/security/token"
	"github.com/dropDatabas3/helloiam/internal/sms"
	"github.com/dropDatabas3/helloiam/internal/store"
)

const (
	// maxDeviceLen acota el user-agent que persistimos por sesión.
	maxDeviceLen = 128
	// maxSessions acota el listado de sesiones por usuario.
	maxSessions = 50
)

type Service struct {
	store  store.CredentialStore
	tokens *jwt.Issuer
	sms    sms.Provider
	mail   email.Sender
}

func NewService(s store.CredentialStore, issuer *jwt.Issuer, smsProvider sms.Provider, mailSender email.Sender) *Service {
	if smsProvider == nil {
		smsProvider = sms.LogProvider{}
	}
	if mailSender == nil {
		mailSender = email.LogSender{}
	}
	return &Service{store: s, tokens: issuer, sms: smsProvider, mail: mailSender}
}

// RegisterEmailResult incluye el token pendiente: el handler decide si lo
// ecoa (sólo dev) y el mail lo lleva siempre.
type RegisterEmailResult struct {
	UserID            string
	VerificationToken string
}

// RegisterEmail crea el usuario no verificado y deja el token single-use
// pendiente. La entrega del mail es best-effort.
func (s *Service) RegisterEmail(ctx context.Context, emailAddr, plainPassword string) (*RegisterEmailResult, error) {
	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}

	userID, err := s.store.CreateUser(ctx, store.Identity{Email: emailAddr}, hash)
	if err != nil {
		if store.IsConflict(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	verifyToken, err := token.NewEmailToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.PutEmailVerifyToken(ctx, verifyToken, emailAddr); err != nil {
		return nil, err
	}

	if err := s.mail.SendVerification(emailAddr, verifyToken); err != nil {
		logger.From(ctx).Warn("verification_email_send_failed",
			logger.Email(emailAddr), logger.Err(err))
	}

	return &RegisterEmailResult{UserID: userID, VerificationToken: verifyToken}, nil
}

// VerifyEmail consume el token y marca al usuario como verificado.
func (s *Service) VerifyEmail(ctx context.Context, verifyToken string) error {
	emailAddr, err := s.store.ConsumeEmailVerifyToken(ctx, verifyToken)
	if err != nil {
		if store.IsNotFound(err) {
			return ErrTokenNotFound
		}
		return err
	}
	if err := s.store.MarkVerified(ctx, store.Identity{Email: emailAddr}); err != nil {
		if store.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// RegisterPhoneResult incluye el código pendiente para el echo de dev.
type RegisterPhoneResult struct {
	VerificationCode string
}

// RegisterPhone deja un código de 6 dígitos pendiente para el phone; el
// principal recién se crea al confirmar. Registrar de nuevo un phone todavía
// sin confirmar pisa el código anterior y reenvía; sólo un principal ya
// existente produce conflicto. La entrega por SMS es best-effort.
func (s *Service) RegisterPhone(ctx context.Context, phone string) (*RegisterPhoneResult, error) {
	_, err := s.store.GetUserByPhone(ctx, phone)
	if err == nil {
		return nil, ErrPhoneExists
	}
	if !store.IsNotFound(err) {
		return nil, err
	}

	code, err := token.NewSMSCode()
	if err != nil {
		return nil, err
	}
	if err := s.store.PutPhoneCode(ctx, phone, code); err != nil {
		return nil, err
	}

	if err := s.sms.SendCode(ctx, phone, code); err != nil {
		logger.From(ctx).Warn("sms_send_failed", logger.Phone(phone), logger.Err(err))
	}

	return &RegisterPhoneResult{VerificationCode: code}, nil
}

// VerifySMS consume el código (sólo si coincide) y materializa al principal:
// si no existía uno para ese phone lo crea; en cualquier caso lo deja
// verificado.
func (s *Service) VerifySMS(ctx context.Context, phone, code string) error {
	if err := s.store.ConsumePhoneCode(ctx, phone, code); err != nil {
		if errors.Is(err, store.ErrInvalidCode) {
			return ErrInvalidCode
		}
		return err
	}
	// conflict = el principal ya existía (p.ej. verificación repetida)
	if _, err := s.store.CreateUser(ctx, store.Identity{Phone: phone}, ""); err != nil && !store.IsConflict(err) {
		return err
	}
	if err := s.store.MarkVerified(ctx, store.Identity{Phone: phone}); err != nil {
		if store.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// IssueToken corre el gate de login completo: usuario → verificado →
// password → TOTP (si está habilitado) → par de tokens. Los primeros pasos
// son sólo lectura: ningún fallo deja sesión registrada.
func (s *Service) IssueToken(ctx context.Context, emailAddr, plainPassword, otpCode, device, ip string) (*jwt.Pair, error) {
	u, err := s.store.GetUserByEmail(ctx, emailAddr)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if !u.Verified {
		return nil, ErrEmailUnverified
	}
	if !password.Verify(plainPassword, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if u.TwoFAEnabled {
		if !otp.Verify(otpCode, u.TOTPSecret) {
			return nil, ErrInvalidOTP
		}
	}

	pair, err := s.tokens.IssuePair(u.ID, u.Email)
	if err != nil {
		return nil, err
	}

	if len(device) > maxDeviceLen {
		device = device[:maxDeviceLen]
	}
	if _, err := s.store.RecordSession(ctx, u.ID, device, ip); err != nil {
		return nil, err
	}
	// log secundario: un fallo acá no voltea el login
	if err := s.store.RecordDevice(ctx, u.ID, device); err != nil {
		logger.From(ctx).Warn("device_record_failed", logger.UserID(u.ID), logger.Err(err))
	}

	logger.From(ctx).Info("token_issued", logger.UserID(u.ID), logger.Device(device))
	return pair, nil
}

// Sessions lista los últimos logins del usuario, más reciente primero.
// Un user_id malformado se trata igual que uno desconocido: lista vacía.
func (s *Service) Sessions(ctx context.Context, userID string) ([]store.Session, error) {
	if uuid.Validate(userID) != nil {
		return nil, nil
	}
	return s.store.ListSessions(ctx, userID, maxSessions)
}

// Enable2FA enrola (o re-enrola) un secret TOTP. El segundo factor queda
// deshabilitado hasta que Confirm2FA valide un código real.
func (s *Service) Enable2FA(ctx context.Context, userID string) (*otp.Enrollment, error) {
	// id malformado = usuario inexistente, sin pasar por la base
	if uuid.Validate(userID) != nil {
		return nil, ErrUserNotFound
	}
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	account := u.Email
	if account == "" {
		account = u.Phone
	}
	enrollment, err := otp.GenerateSecret(account)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetTOTPSecret(ctx, u.ID, enrollment.Secret); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Confirm2FA valida el primer código contra el secret enrolado y recién
// entonces enciende el gate para los logins siguientes.
func (s *Service) Confirm2FA(ctx context.Context, userID, otpCode string) error {
	if uuid.Validate(userID) != nil {
		return ErrUserNotFound
	}
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if store.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if u.TOTPSecret == "" {
		return ErrUserNotFound
	}
	if !otp.Verify(otpCode, u.TOTPSecret) {
		return ErrInvalidOTP
	}
	if err := s.store.EnableTwoFA(ctx, u.ID); err != nil {
		if store.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
