package token

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewEmailToken(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{48}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tok, err := NewEmailToken()
		require.NoError(t, err)
		require.Regexp(t, hexRe, tok)
		require.False(t, seen[tok], "token repetido")
		seen[tok] = true
	}
}

func TestNewSMSCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := NewSMSCode()
		require.NoError(t, err)
		require.Len(t, code, 6)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}
}
