// Package email envía el link de verificación por SMTP.
// El envío es best-effort: un fallo se loguea y nunca voltea el registro,
// igual que la regla del canal SMS.
package email

import (
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/helloiam/internal/observability/logger"
)

type Sender interface {
	SendVerification(to, token string) error
}

// SMTPSender entrega por SMTP real (go-mail).
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	// BaseURL del servicio, para armar el link de verificación.
	BaseURL            string
	InsecureSkipVerify bool
}

func (s *SMTPSender) SendVerification(to, token string) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.BaseURL, token)

	m := mail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Verificá tu cuenta")
	m.SetBody("text/plain", "Para verificar tu cuenta abrí este link:\n\n"+link+"\n")
	m.AddAlternative("text/html", fmt.Sprintf(
		`<p>Para verificar tu cuenta hacé click <a href="%s">acá</a>.</p>`, link))

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // sólo dev
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender es el default cuando no hay SMTP configurado: deja constancia en
// el log y nada más.
type LogSender struct{}

func (LogSender) SendVerification(to, token string) error {
	logger.L().Info("email_verification_link",
		logger.Email(to),
		logger.String("token", token))
	return nil
}
