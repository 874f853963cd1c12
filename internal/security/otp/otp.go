// Package otp envuelve el enrolamiento y la validación TOTP (RFC 6238).
package otp

import (
	"github.com/pquerna/otp/totp"
)

// Issuer que aparece en la app autenticadora al escanear el keyuri.
const Issuer = "AI_GATEWAY"

// Enrollment es el resultado de generar un secret nuevo.
type Enrollment struct {
	// Secret en base32, se persiste junto al usuario.
	Secret string
	// URI otpauth:// para el QR del autenticador.
	URI string
}

// GenerateSecret crea un secret TOTP para la cuenta dada.
// Parámetros por defecto del ecosistema: SHA1, 6 dígitos, período 30s.
func GenerateSecret(account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: account,
	})
	if err != nil {
		return nil, err
	}
	return &Enrollment{Secret: key.Secret(), URI: key.URL()}, nil
}

// Verify valida un código de 6 dígitos contra el secret almacenado.
func Verify(code, secret string) bool {
	if code == "" || secret == "" {
		return false
	}
	return totp.Validate(code, secret)
}
