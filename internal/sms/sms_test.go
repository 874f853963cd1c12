package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWebhookProvider(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewWebhookProvider(srv.URL)
	require.NoError(t, p.SendCode(context.Background(), "+5491100000000", "123456"))
	require.Equal(t, "+5491100000000", got["phone"])
	require.Contains(t, got["message"], "123456")
}

func TestWebhookProviderErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := NewWebhookProvider(srv.URL)
	require.Error(t, p.SendCode(context.Background(), "+54911", "123456"))
}

func TestLogProviderNeverFails(t *testing.T) {
	require.NoError(t, LogProvider{}.SendCode(context.Background(), "+54911", "123456"))
}
