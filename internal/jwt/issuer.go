// Package jwt emite y valida los tokens de acceso del servicio.
// Firma simétrica HS256 con un secret único por proceso: no hay rotación de
// claves ni listas de revocación; el access token vive poco y expira solo.
package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTTL es la vida del access token.
	AccessTTL = 15 * time.Minute
	// RefreshTTL es la vida del refresh token.
	RefreshTTL = 7 * 24 * time.Hour

	refreshType = "refresh"
)

var (
	ErrInvalidToken = errors.New("jwt: invalid token")
	ErrWrongType    = errors.New("jwt: wrong token type")
)

// AccessClaims son los claims del access token.
type AccessClaims struct {
	Email string `json:"email,omitempty"`
	jwtv5.RegisteredClaims
}

// RefreshClaims son los claims del refresh token.
type RefreshClaims struct {
	Type string `json:"type"`
	jwtv5.RegisteredClaims
}

// Issuer firma y parsea tokens con el secret del proceso.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

func NewIssuer(secret string) *Issuer {
	return &Issuer{secret: []byte(secret), now: time.Now}
}

// Pair es el resultado de un login exitoso.
type Pair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn del access token, en segundos.
	ExpiresIn int
}

// IssuePair emite access + refresh para el usuario dado.
// El email va sólo en el access token; el refresh lleva el marcador de tipo
// para que nunca pueda usarse como access.
func (i *Issuer) IssuePair(userID, email string) (*Pair, error) {
	now := i.now()

	access := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, AccessClaims{
		Email: email,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(AccessTTL)),
		},
	})
	accessStr, err := access.SignedString(i.secret)
	if err != nil {
		return nil, err
	}

	refresh := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, RefreshClaims{
		Type: refreshType,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(RefreshTTL)),
		},
	})
	refreshStr, err := refresh.SignedString(i.secret)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  accessStr,
		RefreshToken: refreshStr,
		ExpiresIn:    int(AccessTTL.Seconds()),
	}, nil
}

func (i *Issuer) keyfunc(t *jwtv5.Token) (any, error) {
	if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return i.secret, nil
}

// ParseAccess valida firma y expiración de un access token.
func (i *Issuer) ParseAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	t, err := jwtv5.ParseWithClaims(token, &claims, i.keyfunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// ParseRefresh valida un refresh token y su marcador de tipo.
func (i *Issuer) ParseRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	t, err := jwtv5.ParseWithClaims(token, &claims, i.keyfunc,
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != refreshType {
		return nil, ErrWrongType
	}
	return &claims, nil
}
