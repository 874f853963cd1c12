// Package storetest define la suite de contrato de CredentialStore.
// Ambos backends la corren completa: cualquier divergencia observable entre
// memoria y postgres es un bug de backend, no una diferencia aceptable.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/helloiam/internal/store"
)

// Factory entrega un store limpio por subtest.
type Factory func(t *testing.T) store.CredentialStore

// Run ejecuta la suite completa contra el backend dado.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateUser", func(t *testing.T) { testCreateUser(t, newStore) })
	t.Run("MarkVerified", func(t *testing.T) { testMarkVerified(t, newStore) })
	t.Run("EmailVerifyToken", func(t *testing.T) { testEmailVerifyToken(t, newStore) })
	t.Run("PhoneCode", func(t *testing.T) { testPhoneCode(t, newStore) })
	t.Run("Sessions", func(t *testing.T) { testSessions(t, newStore) })
	t.Run("TwoFA", func(t *testing.T) { testTwoFA(t, newStore) })
}

func testCreateUser(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, store.Identity{Email: "alice@example.com"}, "hash1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// mismo email dos veces: conflict
	_, err = s.CreateUser(ctx, store.Identity{Email: "alice@example.com"}, "hash2")
	require.ErrorIs(t, err, store.ErrConflict)

	// otro email convive
	id2, err := s.CreateUser(ctx, store.Identity{Email: "bob@example.com"}, "hash3")
	require.NoError(t, err)
	require.NotEqual(t, id, id2)

	// registro por phone sin password
	pid, err := s.CreateUser(ctx, store.Identity{Phone: "+5491122334455"}, "")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, store.Identity{Phone: "+5491122334455"}, "")
	require.ErrorIs(t, err, store.ErrConflict)

	u, err := s.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.Equal(t, "hash1", u.PasswordHash)
	require.False(t, u.Verified)
	require.False(t, u.TwoFAEnabled)

	p, err := s.GetUserByPhone(ctx, "+5491122334455")
	require.NoError(t, err)
	require.Equal(t, pid, p.ID)
	require.Empty(t, p.PasswordHash)

	byID, err := s.GetUserByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", byID.Email)

	_, err = s.GetUserByEmail(ctx, "nadie@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByPhone(ctx, "+000")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetUserByID(ctx, "3f1c0f7e-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testMarkVerified(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, store.Identity{Email: "carla@example.com"}, "h")
	require.NoError(t, err)

	require.NoError(t, s.MarkVerified(ctx, store.Identity{Email: "carla@example.com"}))
	// idempotente
	require.NoError(t, s.MarkVerified(ctx, store.Identity{Email: "carla@example.com"}))

	u, err := s.GetUserByEmail(ctx, "carla@example.com")
	require.NoError(t, err)
	require.True(t, u.Verified)
	require.False(t, u.PhoneVerified)

	// por phone setea ambos flags
	_, err = s.CreateUser(ctx, store.Identity{Phone: "+5491199887766"}, "")
	require.NoError(t, err)
	require.NoError(t, s.MarkVerified(ctx, store.Identity{Phone: "+5491199887766"}))
	p, err := s.GetUserByPhone(ctx, "+5491199887766")
	require.NoError(t, err)
	require.True(t, p.Verified)
	require.True(t, p.PhoneVerified)

	require.ErrorIs(t, s.MarkVerified(ctx, store.Identity{Email: "nadie@example.com"}), store.ErrNotFound)
	require.ErrorIs(t, s.MarkVerified(ctx, store.Identity{}), store.ErrNotFound)
}

func testEmailVerifyToken(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.PutEmailVerifyToken(ctx, "tok-abc", "dana@example.com"))

	email, err := s.ConsumeEmailVerifyToken(ctx, "tok-abc")
	require.NoError(t, err)
	require.Equal(t, "dana@example.com", email)

	// single-use: el segundo consumo falla
	_, err = s.ConsumeEmailVerifyToken(ctx, "tok-abc")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.ConsumeEmailVerifyToken(ctx, "tok-inexistente")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testPhoneCode(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()
	const phone = "+5491155554444"

	require.NoError(t, s.PutPhoneCode(ctx, phone, "111111"))
	// re-registro pisa el código anterior
	require.NoError(t, s.PutPhoneCode(ctx, phone, "222222"))

	// el código viejo ya no vale, y el mismatch no consume el vigente
	require.ErrorIs(t, s.ConsumePhoneCode(ctx, phone, "111111"), store.ErrInvalidCode)
	require.NoError(t, s.ConsumePhoneCode(ctx, phone, "222222"))

	// consumido: no se puede reusar
	require.ErrorIs(t, s.ConsumePhoneCode(ctx, phone, "222222"), store.ErrInvalidCode)
	require.ErrorIs(t, s.ConsumePhoneCode(ctx, "+000", "123456"), store.ErrInvalidCode)
}

func testSessions(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()

	uid, err := s.CreateUser(ctx, store.Identity{Email: "eve@example.com"}, "h")
	require.NoError(t, err)

	var last string
	for i := 0; i < 5; i++ {
		last, err = s.RecordSession(ctx, uid, fmt.Sprintf("device-%d", i), "10.0.0.1")
		require.NoError(t, err)
		require.NotEmpty(t, last)
		time.Sleep(2 * time.Millisecond)
	}

	sessions, err := s.ListSessions(ctx, uid, 50)
	require.NoError(t, err)
	require.Len(t, sessions, 5)
	// más reciente primero
	require.Equal(t, last, sessions[0].ID)
	require.Equal(t, "device-4", sessions[0].Device)
	for i := 1; i < len(sessions); i++ {
		require.False(t, sessions[i].LoginTime.After(sessions[i-1].LoginTime))
	}

	limited, err := s.ListSessions(ctx, uid, 3)
	require.NoError(t, err)
	require.Len(t, limited, 3)
	require.Equal(t, last, limited[0].ID)

	// usuario sin sesiones: lista vacía, no error
	other, err := s.CreateUser(ctx, store.Identity{Email: "fresh@example.com"}, "h")
	require.NoError(t, err)
	empty, err := s.ListSessions(ctx, other, 50)
	require.NoError(t, err)
	require.Empty(t, empty)

	// devices es log secundario: nunca falla la operación principal
	require.NoError(t, s.RecordDevice(ctx, uid, "cli/1.0"))
}

func testTwoFA(t *testing.T, newStore Factory) {
	s := newStore(t)
	ctx := context.Background()

	uid, err := s.CreateUser(ctx, store.Identity{Email: "greta@example.com"}, "h")
	require.NoError(t, err)

	// habilitar sin secret enrolado: not found
	require.ErrorIs(t, s.EnableTwoFA(ctx, uid), store.ErrNotFound)

	require.NoError(t, s.SetTOTPSecret(ctx, uid, "SECRETBASE32AAA"))
	u, err := s.GetUserByID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "SECRETBASE32AAA", u.TOTPSecret)
	require.False(t, u.TwoFAEnabled)

	require.NoError(t, s.EnableTwoFA(ctx, uid))
	u, err = s.GetUserByID(ctx, uid)
	require.NoError(t, err)
	require.True(t, u.TwoFAEnabled)

	// re-enrolar pisa el secret y apaga el flag hasta confirmar de nuevo
	require.NoError(t, s.SetTOTPSecret(ctx, uid, "SECRETBASE32BBB"))
	u, err = s.GetUserByID(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, "SECRETBASE32BBB", u.TOTPSecret)
	require.False(t, u.TwoFAEnabled)

	require.ErrorIs(t, s.SetTOTPSecret(ctx, "3f1c0f7e-0000-0000-0000-000000000000", "X"), store.ErrNotFound)
	require.ErrorIs(t, s.EnableTwoFA(ctx, "3f1c0f7e-0000-0000-0000-000000000000"), store.ErrNotFound)
}
