package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssuePair(t *testing.T) {
	iss := NewIssuer("test-secret")

	pair, err := iss.IssuePair("user-1", "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, 900, pair.ExpiresIn)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	ac, err := iss.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", ac.Subject)
	require.Equal(t, "alice@example.com", ac.Email)
	require.WithinDuration(t, time.Now().Add(AccessTTL), ac.ExpiresAt.Time, 5*time.Second)

	rc, err := iss.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "user-1", rc.Subject)
	require.Equal(t, "refresh", rc.Type)
	require.WithinDuration(t, time.Now().Add(RefreshTTL), rc.ExpiresAt.Time, 5*time.Second)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	pair, err := NewIssuer("secret-a").IssuePair("u", "e@x.com")
	require.NoError(t, err)

	_, err = NewIssuer("secret-b").ParseAccess(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsCrossedTypes(t *testing.T) {
	iss := NewIssuer("s")
	pair, err := iss.IssuePair("u", "e@x.com")
	require.NoError(t, err)

	// un access token no pasa como refresh
	_, err = iss.ParseRefresh(pair.AccessToken)
	require.ErrorIs(t, err, ErrWrongType)
}

func TestParseRejectsExpired(t *testing.T) {
	iss := NewIssuer("s")
	iss.now = func() time.Time { return time.Now().Add(-2 * RefreshTTL) }
	pair, err := iss.IssuePair("u", "e@x.com")
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.ParseAccess(pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = iss.ParseRefresh(pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseGarbage(t *testing.T) {
	iss := NewIssuer("s")
	_, err := iss.ParseAccess("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
