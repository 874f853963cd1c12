package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/helloiam/internal/auth"
	"github.com/dropDatabas3/helloiam/internal/config"
	"github.com/dropDatabas3/helloiam/internal/jwt"
	"github.com/dropDatabas3/helloiam/internal/rate"
	"github.com/dropDatabas3/helloiam/internal/store/memory"
)

func newTestServer(t *testing.T, env config.Environment) *httptest.Server {
	t.Helper()
	st := memory.New()
	svc := auth.NewService(st, jwt.NewIssuer("test-secret"), nil, nil)
	h := NewAuthHandler(svc, st, env)
	srv := httptest.NewServer(NewRouter(h, rate.NoopLimiter{}, nil))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body string) (*http.Response, map[string]any) {
	t.Helper()
	var req *http.Request
	var err error
	if body != "" {
		req, err = http.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, err = http.NewRequest(method, url, nil)
	}
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestEmailFlowEndToEnd(t *testing.T) {
	srv := newTestServer(t, config.EnvDev)

	// registro
	resp, body := doJSON(t, "POST", srv.URL+"/auth/register-email",
		`{"email":"alice@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	userID := body["user_id"].(string)
	token := body["verification_token"].(string)
	require.NotEmpty(t, userID)
	require.Len(t, token, 48)

	// duplicado
	resp, body = doJSON(t, "POST", srv.URL+"/auth/register-email",
		`{"email":"alice@example.com","password":"x"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "email_exists", body["error"])

	// login antes de verificar
	resp, body = doJSON(t, "POST", srv.URL+"/auth/issue-token",
		`{"email":"alice@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, "email_unverified", body["error"])

	// verificación
	resp, body = doJSON(t, "GET", srv.URL+"/auth/verify-email?token="+token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])

	// token consumido
	resp, body = doJSON(t, "GET", srv.URL+"/auth/verify-email?token="+token, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", body["error"])

	// token ausente
	resp, body = doJSON(t, "GET", srv.URL+"/auth/verify-email", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_token", body["error"])

	// login ok
	resp, body = doJSON(t, "POST", srv.URL+"/auth/issue-token",
		`{"email":"alice@example.com","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["access_token"])
	require.NotEmpty(t, body["refresh_token"])
	require.EqualValues(t, 900, body["expires_in"])

	// password incorrecto
	resp, body = doJSON(t, "POST", srv.URL+"/auth/issue-token",
		`{"email":"alice@example.com","password":"mala"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_credentials", body["error"])

	// usuario inexistente
	resp, body = doJSON(t, "POST", srv.URL+"/auth/issue-token",
		`{"email":"nadie@example.com","password":"x"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", body["error"])

	// el login exitoso dejó sesión
	resp, body = doJSON(t, "GET", srv.URL+"/auth/sessions?user_id="+userID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sessions := body["sessions"].([]any)
	require.Len(t, sessions, 1)
	first := sessions[0].(map[string]any)
	require.NotEmpty(t, first["id"])
	require.NotEmpty(t, first["login_time"])
	// ni la IP ni el user_id se exponen
	require.NotContains(t, first, "ip")
	require.NotContains(t, first, "user_id")
}

func TestPhoneFlowEndToEnd(t *testing.T) {
	srv := newTestServer(t, config.EnvDev)

	resp, body := doJSON(t, "POST", srv.URL+"/auth/register-phone",
		`{"phone":"+5491133334444"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["sent"])
	code := body["verification_code"].(string)
	require.Len(t, code, 6)

	// sin confirmar, re-registrar reemite el código en vez de chocar
	resp, body = doJSON(t, "POST", srv.URL+"/auth/register-phone",
		`{"phone":"+5491133334444"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	code = body["verification_code"].(string)
	require.Len(t, code, 6)

	resp, body = doJSON(t, "POST", srv.URL+"/auth/verify-sms",
		`{"phone":"+5491133334444","code":"000000"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_code", body["error"])

	resp, body = doJSON(t, "POST", srv.URL+"/auth/verify-sms",
		`{"phone":"+5491133334444","code":"`+code+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["success"])

	// confirmado: el phone ya tiene principal y el registro choca
	resp, body = doJSON(t, "POST", srv.URL+"/auth/register-phone",
		`{"phone":"+5491133334444"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Equal(t, "phone_exists", body["error"])
}

func TestTwoFAFlowEndToEnd(t *testing.T) {
	srv := newTestServer(t, config.EnvDev)

	_, body := doJSON(t, "POST", srv.URL+"/auth/register-email",
		`{"email":"carol@example.com","password":"pw"}`)
	userID := body["user_id"].(string)
	token := body["verification_token"].(string)
	doJSON(t, "GET", srv.URL+"/auth/verify-email?token="+token, "")

	resp, body := doJSON(t, "POST", srv.URL+"/auth/enable-2fa",
		`{"user_id":"`+userID+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, body["otpauth_uri"].(string), "otpauth://totp/")
	secret := body["secret"].(string)
	require.NotEmpty(t, secret)

	// confirmar con código malo
	resp, body = doJSON(t, "POST", srv.URL+"/auth/verify-2fa",
		`{"user_id":"`+userID+`","otp":"000000"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_otp", body["error"])

	code, err := totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	resp, body = doJSON(t, "POST", srv.URL+"/auth/verify-2fa",
		`{"user_id":"`+userID+`","otp":"`+code+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["enabled"])

	// login sin otp falla
	resp, body = doJSON(t, "POST", srv.URL+"/auth/issue-token",
		`{"email":"carol@example.com","password":"pw"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "invalid_otp", body["error"])

	// con otp pasa
	code, err = totp.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	resp, body = doJSON(t, "POST", srv.URL+"/auth/issue-token",
		`{"email":"carol@example.com","password":"pw","otp":"`+code+`"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body["access_token"])

	// usuario inexistente
	resp, body = doJSON(t, "POST", srv.URL+"/auth/enable-2fa",
		`{"user_id":"3f1c0f7e-0000-0000-0000-000000000000"}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "not_found", body["error"])
}

func TestProdHidesDiagnostics(t *testing.T) {
	srv := newTestServer(t, config.EnvProd)

	resp, body := doJSON(t, "POST", srv.URL+"/auth/register-email",
		`{"email":"prod@example.com","password":"pw"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, body["user_id"])
	require.NotContains(t, body, "verification_token")

	resp, body = doJSON(t, "POST", srv.URL+"/auth/register-phone",
		`{"phone":"+5491100000001"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotContains(t, body, "verification_code")
}

func TestInvalidInput(t *testing.T) {
	srv := newTestServer(t, config.EnvDev)

	cases := []struct {
		method, path, body string
	}{
		{"POST", "/auth/register-email", `{"email":"","password":""}`},
		{"POST", "/auth/register-email", `no-es-json`},
		{"POST", "/auth/register-phone", `{}`},
		{"POST", "/auth/verify-sms", `{"phone":"+54911"}`},
		{"POST", "/auth/issue-token", `{"email":"a@b.c"}`},
		{"POST", "/auth/enable-2fa", `{}`},
		{"POST", "/auth/verify-2fa", `{"user_id":"x"}`},
	}
	for _, tc := range cases {
		resp, body := doJSON(t, tc.method, srv.URL+tc.path, tc.body)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "%s %s", tc.method, tc.path)
		require.Equal(t, "invalid_input", body["error"])
	}

	// sessions sin user_id
	resp, body := doJSON(t, "GET", srv.URL+"/auth/sessions", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_input", body["error"])
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, config.EnvDev)

	resp, body := doJSON(t, "GET", srv.URL+"/healthz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", body["status"])

	resp, body = doJSON(t, "GET", srv.URL+"/readyz", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", body["status"])
}

func TestRequestIDHeader(t *testing.T) {
	srv := newTestServer(t, config.EnvDev)

	resp, _ := doJSON(t, "GET", srv.URL+"/healthz", "")
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
