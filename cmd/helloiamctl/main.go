// helloiamctl es un cliente de línea de comandos contra el wire API del
// servicio: registro, verificación, emisión de tokens, sesiones y 2FA.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *client) do(method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.BaseURL, "/")+path, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) error {
	var v any
	if json.Unmarshal(body, &v) == nil {
		p, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(p))
	} else if len(body) > 0 {
		fmt.Println(string(body))
	}
	if status/100 != 2 {
		return fmt.Errorf("status=%d", status)
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	baseURL := envOr("HELLOIAM_URL", "http://localhost:8080")

	root := &cobra.Command{
		Use:   "helloiamctl",
		Short: "Cliente CLI para el servicio de identidad",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "URL base del servicio (env HELLOIAM_URL)")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) { cl.BaseURL = baseURL }

	var email, password string
	registerEmailCmd := &cobra.Command{
		Use:   "register-email",
		Short: "Registrar un usuario por email",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/auth/register-email",
				map[string]string{"email": email, "password": password})
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	registerEmailCmd.Flags().StringVar(&email, "email", "", "email a registrar")
	registerEmailCmd.Flags().StringVar(&password, "password", "", "password")
	_ = registerEmailCmd.MarkFlagRequired("email")
	_ = registerEmailCmd.MarkFlagRequired("password")

	var verifyToken string
	verifyEmailCmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Consumir un token de verificación",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/auth/verify-email?token="+url.QueryEscape(verifyToken), nil)
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	verifyEmailCmd.Flags().StringVar(&verifyToken, "token", "", "token recibido por mail")
	_ = verifyEmailCmd.MarkFlagRequired("token")

	var phone string
	registerPhoneCmd := &cobra.Command{
		Use:   "register-phone",
		Short: "Registrar un usuario por teléfono",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/auth/register-phone",
				map[string]string{"phone": phone})
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	registerPhoneCmd.Flags().StringVar(&phone, "phone", "", "teléfono en formato E.164")
	_ = registerPhoneCmd.MarkFlagRequired("phone")

	var smsCode string
	verifySMSCmd := &cobra.Command{
		Use:   "verify-sms",
		Short: "Verificar un código SMS",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/auth/verify-sms",
				map[string]string{"phone": phone, "code": smsCode})
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	verifySMSCmd.Flags().StringVar(&phone, "phone", "", "teléfono registrado")
	verifySMSCmd.Flags().StringVar(&smsCode, "code", "", "código de 6 dígitos")
	_ = verifySMSCmd.MarkFlagRequired("phone")
	_ = verifySMSCmd.MarkFlagRequired("code")

	var otpCode string
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Emitir un par access/refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"email": email, "password": password}
			if otpCode != "" {
				req["otp"] = otpCode
			}
			status, body, err := cl.do("POST", "/auth/issue-token", req)
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	tokenCmd.Flags().StringVar(&email, "email", "", "email")
	tokenCmd.Flags().StringVar(&password, "password", "", "password")
	tokenCmd.Flags().StringVar(&otpCode, "otp", "", "código TOTP (si 2FA está habilitado)")
	_ = tokenCmd.MarkFlagRequired("email")
	_ = tokenCmd.MarkFlagRequired("password")

	var userID string
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Listar las últimas sesiones de un usuario",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/auth/sessions?user_id="+url.QueryEscape(userID), nil)
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	sessionsCmd.Flags().StringVar(&userID, "user-id", "", "ID del usuario")
	_ = sessionsCmd.MarkFlagRequired("user-id")

	twofaCmd := &cobra.Command{
		Use:   "2fa",
		Short: "Enrolamiento y confirmación del segundo factor",
	}

	enable2FACmd := &cobra.Command{
		Use:   "enable",
		Short: "Enrolar un secret TOTP (queda pendiente de confirmar)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/auth/enable-2fa",
				map[string]string{"user_id": userID})
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	enable2FACmd.Flags().StringVar(&userID, "user-id", "", "ID del usuario")
	_ = enable2FACmd.MarkFlagRequired("user-id")

	confirm2FACmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirmar el enrolamiento con un código del autenticador",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("POST", "/auth/verify-2fa",
				map[string]string{"user_id": userID, "otp": otpCode})
			if err != nil {
				return err
			}
			return cl.print(status, body)
		},
	}
	confirm2FACmd.Flags().StringVar(&userID, "user-id", "", "ID del usuario")
	confirm2FACmd.Flags().StringVar(&otpCode, "otp", "", "código TOTP")
	_ = confirm2FACmd.MarkFlagRequired("user-id")
	_ = confirm2FACmd.MarkFlagRequired("otp")

	twofaCmd.AddCommand(enable2FACmd, confirm2FACmd)
	root.AddCommand(registerEmailCmd, verifyEmailCmd, registerPhoneCmd, verifySMSCmd, tokenCmd, sessionsCmd, twofaCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
