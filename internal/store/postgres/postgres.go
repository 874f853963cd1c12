// Package postgres implementa CredentialStore sobre pgx/v5.
// Es el backend durable: la unicidad de email/phone la garantizan los
// constraints de la base, no chequeos en la aplicación.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/helloiam/internal/observability/logger"
	"github.com/dropDatabas3/helloiam/internal/store"
	migrations "github.com/dropDatabas3/helloiam/migrations/postgres"
)

const uniqueViolation = "23505"

type Store struct{ pool *pgxpool.Pool }

// Config ajusta el pool; ceros dejan los defaults de pgxpool.
type Config struct {
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
}

// New abre el pool y hace un ping no bloqueante: si la base no responde al
// arrancar se loguea el warning y el caller decide si degrada a memoria.
func New(ctx context.Context, dsn string, cfg Config) (*Store, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		pcfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		logger.L().Warn("pg_pool_startup_ping_failed", logger.Err(err))
	} else {
		logger.L().Info("pg_pool_ready", logger.Int("max_conns", int(pcfg.MaxConns)))
	}

	return &Store{pool: pool}, nil
}

// Pool expone el pool interno para usos avanzados (metrics/migraciones).
func (s *Store) Pool() *pgxpool.Pool {
	if s == nil {
		return nil
	}
	return s.pool
}

// Close cierra el pool subyacente (idempotente).
func (s *Store) Close() {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
}

// Ping reporta conectividad; un fallo sale envuelto en ErrUnavailable para
// que los callers (readyz, factory) lo distingan de errores de negocio.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

// RunMigrations aplica los .sql embebidos en orden lexical.
func (s *Store) RunMigrations(ctx context.Context) error {
	entries, err := fs.ReadDir(migrations.SchemaFS, migrations.SchemaDir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(strings.ToLower(e.Name()), "_up.sql") {
			files = append(files, migrations.SchemaDir+"/"+e.Name())
		}
	}
	sort.Strings(files)
	for _, f := range files {
		b, err := fs.ReadFile(migrations.SchemaFS, f)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return err
		}
	}
	return nil
}

func isUnique(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// nullIfEmpty: email/phone vacíos se guardan como NULL para no colisionar
// entre sí en los constraints UNIQUE.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (s *Store) CreateUser(ctx context.Context, id store.Identity, passwordHash string) (string, error) {
	const q = `
INSERT INTO users (email, phone, password_hash)
VALUES ($1, $2, NULLIF($3, ''))
RETURNING id`
	var userID string
	err := s.pool.QueryRow(ctx, q, nullIfEmpty(id.Email), nullIfEmpty(id.Phone), passwordHash).Scan(&userID)
	if err != nil {
		if isUnique(err) {
			return "", store.ErrConflict
		}
		logger.L().Error("pg_create_user_err", logger.Err(err))
		return "", err
	}
	return userID, nil
}

const userCols = `id, COALESCE(email, ''), COALESCE(phone, ''), COALESCE(password_hash, ''), verified, phone_verified, twofa_enabled, COALESCE(totp_secret, ''), created_at`

func (s *Store) scanUser(row pgx.Row) (*store.User, error) {
	var u store.User
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &u.Verified, &u.PhoneVerified, &u.TwoFAEnabled, &u.TOTPSecret, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1 LIMIT 1`, email))
}

func (s *Store) GetUserByPhone(ctx context.Context, phone string) (*store.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE phone = $1 LIMIT 1`, phone))
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (*store.User, error) {
	return s.scanUser(s.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1 LIMIT 1`, userID))
}

func (s *Store) MarkVerified(ctx context.Context, id store.Identity) error {
	var tag pgconn.CommandTag
	var err error
	switch {
	case id.Email != "":
		tag, err = s.pool.Exec(ctx, `UPDATE users SET verified = true WHERE email = $1`, id.Email)
	case id.Phone != "":
		tag, err = s.pool.Exec(ctx, `UPDATE users SET verified = true, phone_verified = true WHERE phone = $1`, id.Phone)
	default:
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) PutEmailVerifyToken(ctx context.Context, token, email string) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO email_verify_tokens (token, email) VALUES ($1, $2)`, token, email)
	return err
}

// ConsumeEmailVerifyToken borra y devuelve en una sola sentencia: el token es
// single-use incluso ante requests concurrentes.
func (s *Store) ConsumeEmailVerifyToken(ctx context.Context, token string) (string, error) {
	var email string
	err := s.pool.QueryRow(ctx, `DELETE FROM email_verify_tokens WHERE token = $1 RETURNING email`, token).Scan(&email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return email, nil
}

func (s *Store) PutPhoneCode(ctx context.Context, phone, code string) error {
	const q = `
INSERT INTO sms_codes (phone, code)
VALUES ($1, $2)
ON CONFLICT (phone) DO UPDATE SET code = EXCLUDED.code, created_at = now()`
	_, err := s.pool.Exec(ctx, q, phone, code)
	return err
}

// ConsumePhoneCode borra sólo si el código coincide; un mismatch no consume.
func (s *Store) ConsumePhoneCode(ctx context.Context, phone, code string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sms_codes WHERE phone = $1 AND code = $2`, phone, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrInvalidCode
	}
	return nil
}

func (s *Store) RecordSession(ctx context.Context, userID, device, ip string) (string, error) {
	const q = `
INSERT INTO sessions (user_id, device, ip)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
RETURNING id`
	var id string
	if err := s.pool.QueryRow(ctx, q, userID, device, ip).Scan(&id); err != nil {
		logger.L().Error("pg_record_session_err", logger.UserID(userID), logger.Err(err))
		return "", err
	}
	return id, nil
}

// RecordDevice appendea sin dedup; first_seen y last_seen nacen iguales.
func (s *Store) RecordDevice(ctx context.Context, userID, device string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO devices (user_id, device, first_seen, last_seen) VALUES ($1, NULLIF($2, ''), now(), now())`,
		userID, device)
	return err
}

func (s *Store) ListSessions(ctx context.Context, userID string, limit int) ([]store.Session, error) {
	const q = `
SELECT id, user_id, COALESCE(device, ''), COALESCE(ip, ''), login_time
FROM sessions
WHERE user_id = $1
ORDER BY login_time DESC
LIMIT $2`
	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Session
	for rows.Next() {
		var sess store.Session
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.Device, &sess.IP, &sess.LoginTime); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// SetTOTPSecret guarda el secret y resetea el flag: re-enrolar siempre vuelve
// a dejar el segundo factor sin confirmar.
func (s *Store) SetTOTPSecret(ctx context.Context, userID, secret string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET totp_secret = $2, twofa_enabled = false WHERE id = $1`, userID, secret)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// EnableTwoFA sólo transiciona si hay un secret enrolado: twofa_enabled=true
// implica totp_secret no nulo.
func (s *Store) EnableTwoFA(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET twofa_enabled = true WHERE id = $1 AND totp_secret IS NOT NULL`, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
