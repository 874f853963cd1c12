// Package password encapsula el hashing de contraseñas (bcrypt).
package password

import "golang.org/x/crypto/bcrypt"

// Cost del hash. Cambiarlo no invalida hashes previos: bcrypt embebe el
// cost en el propio hash.
const Cost = 10

// Hash genera un hash bcrypt del plaintext.
func Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify compara plaintext contra un hash almacenado.
// Un hash vacío (registro por phone) nunca verifica.
func Verify(plain, hash string) bool {
	if hash == "" || plain == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
