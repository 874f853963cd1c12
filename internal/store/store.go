// Package store define el contrato CredentialStore y los tipos de dominio.
// Existen dos backends intercambiables (postgres y memory) que deben producir
// resultados observables equivalentes; el backend se elige una sola vez al
// arrancar el proceso y el resto del sistema no vuelve a preguntar.
package store

import (
	"context"
	"time"
)

// Identity describe el canal por el que se registró un principal.
// Exactamente uno de Email/Phone debe estar presente al crear.
type Identity struct {
	Email string
	Phone string
}

// User es el principal registrado. PasswordHash sólo existe para registros
// por email y nunca se expone a los callers HTTP.
type User struct {
	ID            string
	Email         string
	Phone         string
	PasswordHash  string
	Verified      bool
	PhoneVerified bool
	TwoFAEnabled  bool
	TOTPSecret    string
	CreatedAt     time.Time
}

// Session es un registro append-only por login exitoso. Nunca se muta.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Device    string    `json:"device"`
	IP        string    `json:"-"`
	LoginTime time.Time `json:"login_time"`
}

// CredentialStore es el contrato único de persistencia. Semántica idéntica
// en ambos backends:
//
//   - CreateUser falla con ErrConflict si el email o el phone ya existen.
//   - MarkVerified es idempotente.
//   - ConsumeEmailVerifyToken borra el token al consumirlo (single-use).
//   - PutPhoneCode pisa cualquier código previo para ese phone.
//   - ConsumePhoneCode borra el código sólo si coincide; un mismatch lo deja
//     consumible (ErrInvalidCode).
//   - ListSessions ordena por login_time descendente.
//   - RecordDevice es un log secundario no autoritativo: el backend memory
//     puede omitirlo.
type CredentialStore interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, id Identity, passwordHash string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByPhone(ctx context.Context, phone string) (*User, error)
	GetUserByID(ctx context.Context, userID string) (*User, error)
	MarkVerified(ctx context.Context, id Identity) error

	PutEmailVerifyToken(ctx context.Context, token, email string) error
	ConsumeEmailVerifyToken(ctx context.Context, token string) (string, error)

	PutPhoneCode(ctx context.Context, phone, code string) error
	ConsumePhoneCode(ctx context.Context, phone, code string) error

	RecordSession(ctx context.Context, userID, device, ip string) (string, error)
	RecordDevice(ctx context.Context, userID, device string) error
	ListSessions(ctx context.Context, userID string, limit int) ([]Session, error)

	SetTOTPSecret(ctx context.Context, userID, secret string) error
	EnableTwoFA(ctx context.Context, userID string) error

	Close()
}
