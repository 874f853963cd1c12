package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/helloiam/internal/store"
	"github.com/dropDatabas3/helloiam/internal/store/storetest"
)

// Requiere una base real: TEST_PG_DSN=postgres://... go test ./...
// Sin la variable el test se salta, no falla.
func TestContract(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) store.CredentialStore {
		ctx := context.Background()
		s, err := New(ctx, dsn, Config{MaxConns: 4})
		require.NoError(t, err)
		require.NoError(t, s.RunMigrations(ctx))

		// cada subtest arranca sin datos
		_, err = s.Pool().Exec(ctx, `TRUNCATE users, email_verify_tokens, sms_codes, sessions, devices CASCADE`)
		require.NoError(t, err)

		t.Cleanup(s.Close)
		return s
	})
}

// El log de devices guarda la fila completa: first_seen y last_seen seteados.
func TestRecordDeviceRow(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()

	s, err := New(ctx, dsn, Config{MaxConns: 2})
	require.NoError(t, err)
	require.NoError(t, s.RunMigrations(ctx))
	t.Cleanup(s.Close)

	_, err = s.Pool().Exec(ctx, `TRUNCATE users, devices CASCADE`)
	require.NoError(t, err)

	uid, err := s.CreateUser(ctx, store.Identity{Email: "dev-row@example.com"}, "h")
	require.NoError(t, err)
	require.NoError(t, s.RecordDevice(ctx, uid, "curl/8.0"))

	var device string
	var firstSeen, lastSeen time.Time
	err = s.Pool().QueryRow(ctx,
		`SELECT COALESCE(device, ''), first_seen, last_seen FROM devices WHERE user_id = $1`, uid).
		Scan(&device, &firstSeen, &lastSeen)
	require.NoError(t, err)
	require.Equal(t, "curl/8.0", device)
	require.False(t, firstSeen.IsZero())
	require.False(t, lastSeen.IsZero())
}

// Un pool cerrado reporta ErrUnavailable, no un error opaco del driver.
func TestPingUnavailable(t *testing.T) {
	dsn := os.Getenv("TEST_PG_DSN")
	if dsn == "" {
		t.Skip("TEST_PG_DSN not set")
	}
	ctx := context.Background()

	s, err := New(ctx, dsn, Config{MaxConns: 2})
	require.NoError(t, err)
	s.Close()

	require.ErrorIs(t, s.Ping(ctx), store.ErrUnavailable)
}
