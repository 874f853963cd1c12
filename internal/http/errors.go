package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// Códigos de error del wire. El body siempre es {"error":"<code>"}.
const (
	CodeInvalidInput       = "invalid_input"
	CodeEmailExists        = "email_exists"
	CodePhoneExists        = "phone_exists"
	CodeInvalidToken       = "invalid_token"
	CodeNotFound           = "not_found"
	CodeInvalidCode        = "invalid_code"
	CodeEmailUnverified    = "email_unverified"
	CodeInvalidCredentials = "invalid_credentials"
	CodeInvalidOTP         = "invalid_otp"
	CodeServerError        = "server_error"
	CodeRateLimited        = "rate_limited"
)

type apiError struct {
	Error string `json:"error"`
}

func WriteError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Error: code})
}

// WriteJSON: respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ReadJSON decodifica el body de forma tolerante (no falla por campos
// desconocidos) y lo limita a 1MB. Content-Type ausente se tolera para no
// romper curl pelado; uno explícito no-JSON se rechaza.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.Contains(strings.ToLower(ct), "application/json") {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && err != io.EOF {
		WriteError(w, http.StatusBadRequest, CodeInvalidInput)
		return false
	}
	return true
}
