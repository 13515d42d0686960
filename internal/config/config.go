// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the bipagem server.
type Config struct {
	Port            int           `env:"PORT"                     envDefault:"5000"`
	DBPath          string        `env:"BIPAGEM_DB"               envDefault:"bipagem.db"`
	PublicURL       string        `env:"BIPAGEM_PUBLIC_URL"       envDefault:"http://localhost:5000"`
	SuccessRedirect string        `env:"BIPAGEM_SUCCESS_REDIRECT" envDefault:"/config.html"`
	HTTPTimeout     time.Duration `env:"BIPAGEM_HTTP_TIMEOUT"     envDefault:"10s"`
	RedisURL        string        `env:"BIPAGEM_REDIS_URL"`
	Fixtures        bool          `env:"BIPAGEM_FIXTURES"         envDefault:"true"`
	TLSCertFile     string        `env:"BIPAGEM_TLS_CERT"`
	TLSKeyFile      string        `env:"BIPAGEM_TLS_KEY"`
	AdminKey        string        `env:"BIPAGEM_ADMIN_KEY"`

	// AutoTLS serves the PublicURL host with a certificate obtained from
	// Let's Encrypt. HTTP-01 challenges are answered on ACMEHTTPPort.
	AutoTLS      bool   `env:"BIPAGEM_AUTO_TLS"`
	ACMEEmail    string `env:"BIPAGEM_ACME_EMAIL"`
	ACMEStaging  bool   `env:"BIPAGEM_ACME_STAGING"`
	ACMEHTTPPort int    `env:"BIPAGEM_ACME_HTTP_PORT" envDefault:"80"`

	MercadoLivre  Credentials `envPrefix:"BIPAGEM_ML_"`
	LojaIntegrada Credentials `envPrefix:"BIPAGEM_LI_"`
}

// Credentials is an OAuth client registration supplied by the environment.
type Credentials struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// Complete reports whether both the client id and secret are set.
func (c Credentials) Complete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// Load reads an optional .env file and parses the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when the environment is empty.
func Default() *Config {
	return &Config{
		Port:            5000,
		DBPath:          "bipagem.db",
		PublicURL:       "http://localhost:5000",
		SuccessRedirect: "/config.html",
		HTTPTimeout:     10 * time.Second,
		Fixtures:        true,
		ACMEHTTPPort:    80,
	}
}

func (c *Config) normalize() error {
	c.PublicURL = strings.TrimRight(strings.TrimSpace(c.PublicURL), "/")
	u, err := url.Parse(c.PublicURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid BIPAGEM_PUBLIC_URL %q", c.PublicURL)
	}
	if c.AutoTLS {
		if c.TLSCertFile != "" || c.TLSKeyFile != "" {
			return errors.New("BIPAGEM_AUTO_TLS cannot be combined with BIPAGEM_TLS_CERT or BIPAGEM_TLS_KEY")
		}
		if c.ACMEHTTPPort == c.Port {
			return fmt.Errorf("BIPAGEM_ACME_HTTP_PORT must differ from PORT (%d)", c.Port)
		}
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("BIPAGEM_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

// CallbackURL returns the OAuth redirect URI registered for a platform.
func (c *Config) CallbackURL(platform string) string {
	return c.PublicURL + "/oauth/callback/" + platform
}
