// Package token genera los secretos de verificación de identidad.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

// NewEmailToken genera el token single-use del link de verificación:
// 24 bytes aleatorios en hexadecimal (48 chars).
func NewEmailToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewSMSCode genera un código de 6 dígitos en [100000, 999999].
func NewSMSCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return (n.Add(n, big.NewInt(100000))).String(), nil
}
