package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h, err := Hash("s3cret!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(h, "$2a$10$"))

	require.True(t, Verify("s3cret!", h))
	require.False(t, Verify("otra", h))
}

func TestVerifyEmptyInputs(t *testing.T) {
	h, err := Hash("x")
	require.NoError(t, err)

	require.False(t, Verify("", h))
	require.False(t, Verify("x", ""))
	require.False(t, Verify("", ""))
}

func TestHashIsSalted(t *testing.T) {
	a, err := Hash("same")
	require.NoError(t, err)
	b, err := Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.True(t, Verify("same", a))
	require.True(t, Verify("same", b))
}
