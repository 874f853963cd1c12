// Package sms entrega códigos de verificación por un provider inyectable.
// El caller siempre trata la entrega como best-effort: el código ya quedó
// persistido antes de intentar enviar, y un fallo de entrega no se reporta
// al cliente HTTP.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dropDatabas3/helloiam/internal/observability/logger"
)

type Provider interface {
	SendCode(ctx context.Context, phone, code string) error
}

// LogProvider es el default: loguea el código en vez de enviarlo.
// En dev alcanza porque la respuesta HTTP ya ecoa el código.
type LogProvider struct{}

func (LogProvider) SendCode(ctx context.Context, phone, code string) error {
	logger.From(ctx).Info("sms_code",
		logger.Phone(phone),
		logger.String("code", code))
	return nil
}

// WebhookProvider postea el código a un gateway externo (JSON).
// Cualquier gateway que acepte {"phone":..., "message":...} sirve.
type WebhookProvider struct {
	URL    string
	Client *http.Client
}

func NewWebhookProvider(url string) *WebhookProvider {
	return &WebhookProvider{
		URL:    url,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *WebhookProvider) SendCode(ctx context.Context, phone, code string) error {
	body, err := json.Marshal(map[string]string{
		"phone":   phone,
		"message": "Tu código de verificación es " + code,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms webhook: status %d", resp.StatusCode)
	}
	return nil
}
