package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Bloque app (opcional en YAML). Si no está, queda vacío.
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	// Store del OTP: memory | pg | redis
	Store struct {
		Driver   string `yaml:"driver"`
		Postgres struct {
			DSN             string `yaml:"dsn"`
			MaxOpenConns    int    `yaml:"max_open_conns"`
			ConnMaxLifetime string `yaml:"conn_max_lifetime"`
		} `yaml:"postgres"`
		Redis struct {
			Addr   string `yaml:"addr"`
			DB     int    `yaml:"db"`
			Prefix string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"store"`

	OTP struct {
		// TTL fijo de los códigos. Default 10m (política del producto).
		TTL time.Duration `yaml:"ttl"`
		// Cada cuánto corre el GC de códigos vencidos. 0 = deshabilitado.
		GCInterval time.Duration `yaml:"gc_interval"`
	} `yaml:"otp"`

	SMTP struct {
		Host               string `yaml:"host"`
		Port               int    `yaml:"port"`
		Username           string `yaml:"username"`
		Password           string `yaml:"password"`
		From               string `yaml:"from"`
		TLS                string `yaml:"tls"`                  // auto | starttls | ssl | none
		InsecureSkipVerify bool   `yaml:"insecure_skip_verify"` // sólo dev
		Timeout            string `yaml:"timeout"`
	} `yaml:"smtp"`

	Notify struct {
		// URL base del frontend para armar links en los emails.
		FrontendURL string `yaml:"frontend_url"`
		QueueSize   int    `yaml:"queue_size"`
		Workers     int    `yaml:"workers"`
		MaxRetries  int    `yaml:"max_retries"`
		RetryDelay  string `yaml:"retry_delay"`
		SendTimeout string `yaml:"send_timeout"`
	} `yaml:"notify"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Issue   struct {
			Limit  int    `yaml:"limit"`
			Window string `yaml:"window"`
		} `yaml:"issue"`
	} `yaml:"rate"`

	Auth struct {
		// Secreto compartido para tokens de servicio (HS256).
		// Vacío => API abierta (sólo dev).
		ServiceSecret string `yaml:"service_secret"`
		Issuer        string `yaml:"issuer"`
	} `yaml:"auth"`

	Bootstrap struct {
		AdminEmail    string `yaml:"admin_email"`
		AdminPassword string `yaml:"admin_password"`
	} `yaml:"bootstrap"`
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	// validate string durations
	for _, d := range []string{
		c.Store.Postgres.ConnMaxLifetime,
		c.SMTP.Timeout,
		c.Notify.RetryDelay,
		c.Notify.SendTimeout,
		c.Rate.Issue.Window,
	} {
		if d != "" {
			if _, err := time.ParseDuration(d); err != nil {
				return nil, err
			}
		}
	}

	// Overrides por env + salvaguarda prod
	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// Default retorna una configuración usable sin YAML (dev / tests).
func Default() *Config {
	var c Config
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8085"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "memory"
	}
	if c.Store.Redis.Prefix == "" {
		c.Store.Redis.Prefix = "otp:"
	}
	if c.OTP.TTL == 0 {
		c.OTP.TTL = 10 * time.Minute
	}
	if c.SMTP.TLS == "" {
		c.SMTP.TLS = "auto"
	}
	if c.SMTP.Timeout == "" {
		c.SMTP.Timeout = "10s"
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 256
	}
	if c.Notify.Workers == 0 {
		c.Notify.Workers = 4
	}
	if c.Notify.MaxRetries == 0 {
		c.Notify.MaxRetries = 3
	}
	if c.Notify.RetryDelay == "" {
		c.Notify.RetryDelay = "2s"
	}
	if c.Notify.SendTimeout == "" {
		c.Notify.SendTimeout = "15s"
	}
	if c.Rate.Issue.Limit == 0 {
		c.Rate.Issue.Limit = 5
	}
	if c.Rate.Issue.Window == "" {
		c.Rate.Issue.Window = "10m"
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "avisame"
	}
}

// applyEnvOverrides pisa valores puntuales con variables de entorno.
// Sólo las llaves que tiene sentido inyectar por entorno (secrets, DSNs).
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.App.Env = v
	}
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Store.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Store.Redis.DB = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		c.SMTP.From = v
	}
	if v := os.Getenv("FRONTEND_URL"); v != "" {
		c.Notify.FrontendURL = v
	}
	if v := os.Getenv("SERVICE_SECRET"); v != "" {
		c.Auth.ServiceSecret = v
	}
	if v := os.Getenv("BOOTSTRAP_ADMIN_EMAIL"); v != "" {
		c.Bootstrap.AdminEmail = v
	}
	if v := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"); v != "" {
		c.Bootstrap.AdminPassword = v
	}

	// Guardia dura: en prod el TLS del SMTP nunca va sin verificación.
	if strings.EqualFold(c.App.Env, "prod") {
		c.SMTP.InsecureSkipVerify = false
	}
}

// Validate chequea combinaciones inválidas que no queremos descubrir en runtime.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory", "pg", "redis":
	default:
		return fmt.Errorf("config: store.driver desconocido %q (memory|pg|redis)", c.Store.Driver)
	}
	if c.Store.Driver == "pg" && strings.TrimSpace(c.Store.Postgres.DSN) == "" {
		return fmt.Errorf("config: store.driver=pg requiere store.postgres.dsn")
	}
	if c.Store.Driver == "redis" && strings.TrimSpace(c.Store.Redis.Addr) == "" {
		return fmt.Errorf("config: store.driver=redis requiere store.redis.addr")
	}
	if strings.EqualFold(c.App.Env, "prod") && c.Auth.ServiceSecret == "" {
		return fmt.Errorf("config: auth.service_secret es obligatorio en prod")
	}
	return nil
}

// ─── Helpers de duración ───

// SMTPTimeout retorna el timeout de envío SMTP ya parseado.
func (c *Config) SMTPTimeout() time.Duration { return mustDur(c.SMTP.Timeout, 10*time.Second) }

// RetryDelay retorna la espera base entre reintentos de entrega.
func (c *Config) RetryDelay() time.Duration { return mustDur(c.Notify.RetryDelay, 2*time.Second) }

// SendTimeout retorna el límite por intento de dispatch.
func (c *Config) SendTimeout() time.Duration { return mustDur(c.Notify.SendTimeout, 15*time.Second) }

// IssueWindow retorna la ventana del rate limit de issue.
func (c *Config) IssueWindow() time.Duration { return mustDur(c.Rate.Issue.Window, 10*time.Minute) }

func mustDur(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func getEnvInt(key string) (int, bool) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
