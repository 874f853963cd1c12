// Suite e2e contra una instancia viva del servicio (modo dev, backend
// indistinto). Se salta si E2E_BASE_URL no está seteada:
//
//	E2E_BASE_URL=http://localhost:8080 go test ./test/e2e/
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL = os.Getenv("E2E_BASE_URL")

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}

func skipWithoutServer(t *testing.T) {
	t.Helper()
	if baseURL == "" {
		t.Skip("E2E_BASE_URL not set")
	}
}

func postJSON(t *testing.T, c *http.Client, path string, payload any) (int, map[string]any) {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := c.Post(baseURL+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func getJSON(t *testing.T, c *http.Client, path string) (int, map[string]any) {
	t.Helper()
	resp, err := c.Get(baseURL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func Test_00_Smoke(t *testing.T) {
	skipWithoutServer(t)
	c := newHTTPClient()

	t.Run("healthz", func(t *testing.T) {
		status, _ := getJSON(t, c, "/healthz")
		if status != 200 {
			t.Fatalf("GET /healthz status=%d", status)
		}
	})

	t.Run("readyz", func(t *testing.T) {
		status, _ := getJSON(t, c, "/readyz")
		if status != 200 {
			t.Fatalf("GET /readyz status=%d", status)
		}
	})
}

func Test_01_EmailRegisterVerifyLogin(t *testing.T) {
	skipWithoutServer(t)
	c := newHTTPClient()

	email := fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())

	status, body := postJSON(t, c, "/auth/register-email",
		map[string]string{"email": email, "password": "e2e-password"})
	if status != 201 {
		t.Fatalf("register status=%d body=%v", status, body)
	}
	userID, _ := body["user_id"].(string)
	token, _ := body["verification_token"].(string)
	if token == "" {
		t.Fatal("sin verification_token: el server no está en modo dev")
	}

	status, _ = getJSON(t, c, "/auth/verify-email?token="+token)
	if status != 200 {
		t.Fatalf("verify status=%d", status)
	}

	status, body = postJSON(t, c, "/auth/issue-token",
		map[string]string{"email": email, "password": "e2e-password"})
	if status != 200 {
		t.Fatalf("issue-token status=%d body=%v", status, body)
	}
	if body["access_token"] == "" || body["refresh_token"] == "" {
		t.Fatalf("faltan tokens en la respuesta: %v", body)
	}
	if v, ok := body["expires_in"].(float64); !ok || int(v) != 900 {
		t.Fatalf("expires_in=%v", body["expires_in"])
	}

	// sesión registrada
	status, sessBody := getJSON(t, c, "/auth/sessions?user_id="+userID)
	if status != 200 {
		t.Fatalf("sessions status=%d", status)
	}
	if sessions, ok := sessBody["sessions"].([]any); !ok || len(sessions) == 0 {
		t.Fatalf("esperaba al menos una sesión: %v", sessBody)
	}
}

func Test_02_PhoneRegisterVerify(t *testing.T) {
	skipWithoutServer(t)
	c := newHTTPClient()

	phone := fmt.Sprintf("+549%010d", time.Now().UnixNano()%1e10)

	status, body := postJSON(t, c, "/auth/register-phone", map[string]string{"phone": phone})
	if status != 201 {
		t.Fatalf("register-phone status=%d body=%v", status, body)
	}
	code, _ := body["verification_code"].(string)
	if code == "" {
		t.Fatal("sin verification_code: el server no está en modo dev")
	}

	status, _ = postJSON(t, c, "/auth/verify-sms", map[string]string{"phone": phone, "code": code})
	if status != 200 {
		t.Fatalf("verify-sms status=%d", status)
	}

	// el código ya fue consumido
	status, body = postJSON(t, c, "/auth/verify-sms", map[string]string{"phone": phone, "code": code})
	if status != 401 || body["error"] != "invalid_code" {
		t.Fatalf("reuso de código: status=%d body=%v", status, body)
	}
}
