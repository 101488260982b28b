package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DirectoryBackendHTTP     = "http"
	DirectoryBackendPostgres = "postgres"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`

	DirectoryBackend      string        `env:"DIRECTORY_BACKEND" envDefault:"http"`
	DirectoryBaseURL      string        `env:"DIRECTORY_BASE_URL"`
	DirectoryAPIToken     string        `env:"DIRECTORY_API_TOKEN"`
	DirectoryClientID     string        `env:"DIRECTORY_CLIENT_ID"`
	DirectoryClientSecret string        `env:"DIRECTORY_CLIENT_SECRET"`
	DirectoryAudience     string        `env:"DIRECTORY_AUDIENCE"`
	DirectoryTimeout      time.Duration `env:"DIRECTORY_TIMEOUT" envDefault:"10s"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"4"`
	DBMinConns  int32  `env:"DB_MIN_CONNS" envDefault:"0"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	LinkLockTTL   time.Duration `env:"LINK_LOCK_TTL" envDefault:"30s"`

	WebhookSecret string `env:"WEBHOOK_SECRET,required,notEmpty"`
	WebhookIssuer string `env:"WEBHOOK_ISSUER" envDefault:"account-linker"`

	SAMLTestClientID string `env:"SAML_TEST_CLIENT_ID"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
