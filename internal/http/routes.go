package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/helloiam/internal/rate"
)

// NewRouter arma el router y la cadena de middlewares. metricsHandler puede
// ser nil (tests) y /metrics queda sin montar.
func NewRouter(h *AuthHandler, limiter rate.Limiter, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Post("/auth/register-email", h.RegisterEmail)
	r.Get("/auth/verify-email", h.VerifyEmail)
	r.Post("/auth/register-phone", h.RegisterPhone)
	r.Post("/auth/verify-sms", h.VerifySMS)
	r.Post("/auth/issue-token", h.IssueToken)
	r.Get("/auth/sessions", h.Sessions)
	r.Post("/auth/enable-2fa", h.Enable2FA)
	r.Post("/auth/verify-2fa", h.Verify2FA)

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}

	// cadena: recover → request-id → security headers → logging → rate → metrics
	var handler http.Handler = r
	handler = WithMetrics(handler)
	handler = WithRateLimit(handler, limiter)
	handler = WithLogging(handler)
	handler = WithSecurityHeaders(handler)
	handler = WithRequestID(handler)
	handler = WithRecover(handler)
	return handler
}
