package store

import "errors"

// Errores comunes del store. Los handlers los mapean a códigos de wire;
// cualquier otro error se trata como fallo de backend (500).
var (
	// ErrConflict indica que la identidad (email o phone) ya existe.
	ErrConflict = errors.New("store: identity already exists")

	// ErrNotFound indica usuario o token inexistente/ya consumido.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidCode indica que el código SMS no coincide o no existe.
	// El código pendiente (si lo hay) queda consumible.
	ErrInvalidCode = errors.New("store: invalid phone code")

	// ErrUnavailable indica fallo de conectividad del backend durable en una
	// operación puntual. Nunca hay fallback silencioso a memoria a mitad de
	// operación: se propaga al caller como error de servidor.
	ErrUnavailable = errors.New("store: backend unavailable")
)

// IsConflict helper para ramas de registro duplicado.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound helper para lookups fallidos.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
