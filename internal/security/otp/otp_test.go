package otp

import (
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	e, err := GenerateSecret("alice@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, e.Secret)
	require.True(t, strings.HasPrefix(e.URI, "otpauth://totp/"))
	require.Contains(t, e.URI, "AI_GATEWAY")
	require.Contains(t, e.URI, "alice@example.com")
}

func TestVerify(t *testing.T) {
	e, err := GenerateSecret("bob@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(e.Secret, time.Now())
	require.NoError(t, err)

	require.True(t, Verify(code, e.Secret))
	require.False(t, Verify("000000", e.Secret))
	require.False(t, Verify("", e.Secret))
	require.False(t, Verify(code, ""))
}
