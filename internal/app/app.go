// Package app arma el contenedor de dependencias: el store elegido, el
// issuer de tokens, los providers de entrega y el servicio de auth.
// Todo explícito, nada global (salvo el logger).
package app

import (
	"context"

	rdb "github.com/redis/go-redis/v9"

	"github.com/dropDatabas3/helloiam/internal/auth"
	"github.com/dropDatabas3/helloiam/internal/config"
	"github.com/dropDatabas3/helloiam/internal/email"
	"github.com/dropDatabas3/helloiam/internal/jwt"
	"github.com/dropDatabas3/helloiam/internal/rate"
	"github.com/dropDatabas3/helloiam/internal/sms"
	"github.com/dropDatabas3/helloiam/internal/store"
	"github.com/dropDatabas3/helloiam/internal/store/factory"
)

type Container struct {
	Cfg     *config.Config
	Store   store.CredentialStore
	Backend string
	Issuer  *jwt.Issuer
	Auth    *auth.Service
	Limiter rate.Limiter
}

func New(ctx context.Context, cfg *config.Config) *Container {
	st, backend := factory.Open(ctx, factory.Options{
		DSN:             cfg.Storage.DSN,
		AutoMigrate:     cfg.Storage.AutoMigrate,
		MaxConns:        cfg.Storage.Postgres.MaxOpenConns,
		MinConns:        cfg.Storage.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime(),
	})

	issuer := jwt.NewIssuer(cfg.JWT.Secret)

	var smsProvider sms.Provider = sms.LogProvider{}
	if cfg.SMS.WebhookURL != "" {
		smsProvider = sms.NewWebhookProvider(cfg.SMS.WebhookURL)
	}

	var mailSender email.Sender = email.LogSender{}
	if cfg.SMTP.Host != "" {
		mailSender = &email.SMTPSender{
			Host:               cfg.SMTP.Host,
			Port:               cfg.SMTP.Port,
			From:               cfg.SMTP.From,
			User:               cfg.SMTP.Username,
			Pass:               cfg.SMTP.Password,
			BaseURL:            cfg.Email.BaseURL,
			InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
		}
	}

	var limiter rate.Limiter = rate.NoopLimiter{}
	if cfg.Rate.Enabled {
		client := rdb.NewClient(&rdb.Options{Addr: cfg.Rate.RedisAddr, DB: cfg.Rate.RedisDB})
		limiter = rate.NewRedisLimiter(client, "rl:", cfg.Rate.MaxRequests, cfg.RateWindow())
	}

	return &Container{
		Cfg:     cfg,
		Store:   st,
		Backend: backend,
		Issuer:  issuer,
		Auth:    auth.NewService(st, issuer, smsProvider, mailSender),
		Limiter: limiter,
	}
}
