package logger

import (
	"context"

	"go.uber.org/zap"
)

// loggerKey es la clave privada del logger scoped en el contexto.
type loggerKey struct{}

// ToContext inyecta un logger en el contexto. El middleware de request-id lo
// usa para que todo el pipeline del request loguee con los mismos campos.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From extrae el logger del contexto, o el singleton si no hay ninguno.
// Siempre devuelve un logger usable: From(ctx).Info(...) nunca panickea.
func From(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return L()
	}
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return L()
}
