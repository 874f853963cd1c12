// Package config carga la configuración del servicio: YAML opcional primero,
// variables de entorno pisan después. Sin archivo y sin env el servicio
// arranca igual, en dev y con el backend en memoria.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment discrimina el comportamiento dev/prod de forma explícita:
// los campos de diagnóstico (token/código/secret en la respuesta) sólo
// existen fuera de prod.
type Environment string

const (
	EnvDev  Environment = "dev"
	EnvProd Environment = "prod"
)

// IsProd reporta si corremos en producción.
func (e Environment) IsProd() bool { return e == EnvProd }

type Config struct {
	App struct {
		// dev | prod
		Env Environment `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Storage struct {
		// DSN de postgres; vacío => backend en memoria.
		DSN      string `yaml:"dsn"`
		Postgres struct {
			MaxOpenConns    int    `yaml:"max_open_conns"`
			MaxIdleConns    int    `yaml:"max_idle_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		AutoMigrate bool `yaml:"auto_migrate"`
	} `yaml:"storage"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	SMS struct {
		// webhook URL del gateway; vacío => provider de log.
		WebhookURL string `yaml:"webhook_url"`
	} `yaml:"sms"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
	} `yaml:"smtp"`

	Email struct {
		// BaseURL pública para armar el link de verificación.
		BaseURL string `yaml:"base_url"`
	} `yaml:"email"`

	Rate struct {
		// Deshabilitado por defecto: el flujo de verificación no limita
		// intentos salvo que se active explícitamente.
		Enabled     bool   `yaml:"enabled"`
		Window      string `yaml:"window"`
		MaxRequests int    `yaml:"max_requests"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisDB     int    `yaml:"redis_db"`
	} `yaml:"rate"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load lee el YAML (si path no es vacío), aplica defaults, pisa con env y
// valida. path vacío = sólo env + defaults.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	c.applyDefaults()
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = EnvDev
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Rate.MaxRequests == 0 {
		c.Rate.MaxRequests = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
}

// applyEnvOverrides: pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = Environment(strings.ToLower(v))
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_OPEN_CONNS"); ok {
		c.Storage.Postgres.MaxOpenConns = v
	}
	if v, ok := getEnvInt("POSTGRES_MAX_IDLE_CONNS"); ok {
		c.Storage.Postgres.MaxIdleConns = v
	}
	if v, ok := getEnvStr("POSTGRES_CONN_MAX_LIFETIME"); ok {
		c.Storage.Postgres.ConnMaxLifetime = v
	}
	if v, ok := getEnvBool("STORAGE_AUTO_MIGRATE"); ok {
		c.Storage.AutoMigrate = v
	}

	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}

	if v, ok := getEnvStr("SMS_WEBHOOK_URL"); ok {
		c.SMS.WebhookURL = v
	}

	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("EMAIL_BASE_URL"); ok {
		c.Email.BaseURL = v
	}

	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvInt("RATE_MAX_REQUESTS"); ok {
		c.Rate.MaxRequests = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Rate.RedisAddr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Rate.RedisDB = v
	}

	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// Validate rechaza configuraciones con las que no se puede arrancar.
func (c *Config) Validate() error {
	if c.App.Env != EnvDev && c.App.Env != EnvProd {
		return errors.New("config: app.env must be dev or prod")
	}
	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret (JWT_SECRET) is required")
	}
	if c.App.Env.IsProd() && len(c.JWT.Secret) < 32 {
		return errors.New("config: jwt.secret too short for prod (min 32 bytes)")
	}
	if c.Storage.Postgres.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime); err != nil {
			return err
		}
	}
	if _, err := time.ParseDuration(c.Rate.Window); err != nil {
		return err
	}
	if c.Rate.Enabled && c.Rate.RedisAddr == "" {
		return errors.New("config: rate.enabled requires redis_addr (REDIS_ADDR)")
	}
	return nil
}

// RateWindow devuelve la ventana parseada (Validate ya la chequeó).
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}

// ConnMaxLifetime devuelve la vida máxima de conexión parseada (0 si no hay).
func (c *Config) ConnMaxLifetime() time.Duration {
	if c.Storage.Postgres.ConnMaxLifetime == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Storage.Postgres.ConnMaxLifetime)
	return d
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
