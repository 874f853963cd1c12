// Package factory elige el backend de CredentialStore una sola vez al
// arrancar el proceso. El resto del sistema recibe la interfaz y no vuelve
// a preguntar qué hay detrás.
package factory

import (
	"context"
	"time"

	"github.com/dropDatabas3/helloiam/internal/observability/logger"
	"github.com/dropDatabas3/helloiam/internal/store"
	"github.com/dropDatabas3/helloiam/internal/store/memory"
	"github.com/dropDatabas3/helloiam/internal/store/postgres"
)

// Backend names devueltos por Open, útiles para logs y readyz.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
)

// Options controla la selección y el tuning del backend durable.
type Options struct {
	// DSN de postgres; vacío selecciona el backend en memoria.
	DSN string

	// AutoMigrate aplica las migraciones embebidas al conectar.
	AutoMigrate bool

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration

	// PingTimeout acota el chequeo de conectividad inicial.
	PingTimeout time.Duration
}

// Open devuelve el store activo y el nombre del backend.
//
// Con DSN configurado intenta postgres; si la base no responde al arrancar,
// degrada a memoria con un warning en vez de abortar. Una vez elegido el
// backend no hay fallback a mitad de operación: los fallos posteriores del
// durable se propagan como errores.
func Open(ctx context.Context, opts Options) (store.CredentialStore, string) {
	if opts.DSN == "" {
		logger.L().Info("store_backend_selected", logger.Backend(BackendMemory))
		return memory.New(), BackendMemory
	}

	pg, err := postgres.New(ctx, opts.DSN, postgres.Config{
		MaxConns:        opts.MaxConns,
		MinConns:        opts.MinConns,
		ConnMaxLifetime: opts.ConnMaxLifetime,
	})
	if err != nil {
		logger.L().Warn("store_postgres_open_failed_fallback_memory", logger.Err(err))
		return memory.New(), BackendMemory
	}

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 3 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pg.Ping(pingCtx); err != nil {
		pg.Close()
		logger.L().Warn("store_postgres_unreachable_fallback_memory", logger.Err(err))
		return memory.New(), BackendMemory
	}

	if opts.AutoMigrate {
		if err := pg.RunMigrations(ctx); err != nil {
			pg.Close()
			logger.L().Warn("store_postgres_migrate_failed_fallback_memory", logger.Err(err))
			return memory.New(), BackendMemory
		}
	}

	logger.L().Info("store_backend_selected", logger.Backend(BackendPostgres))
	return pg, BackendPostgres
}
