// Package config loads storefront and CLI settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"

	"PriceScout/internal/catalogapi"
)

const minTokenSecretLen = 32

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Port        int    `env:"PORT" envDefault:"8080"`

	// Catalog search API
	CatalogURL         string        `env:"CATALOG_URL" envDefault:"http://localhost:8081"`
	CatalogTimeout     time.Duration `env:"CATALOG_TIMEOUT" envDefault:"10s"`
	CatalogTokenSecret string        `env:"CATALOG_TOKEN_SECRET"`

	BreakerEnabled      bool          `env:"BREAKER_ENABLED" envDefault:"true"`
	BreakerFailureRatio float64       `env:"BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"BREAKER_MIN_REQUESTS" envDefault:"5"`
	BreakerOpenTimeout  time.Duration `env:"BREAKER_OPEN_TIMEOUT" envDefault:"30s"`

	// Presentation
	Locale   string `env:"LOCALE" envDefault:"es-MX"`
	Currency string `env:"CURRENCY" envDefault:"MXN"`

	// Search statistics; empty keeps them in memory.
	DatabaseURL string `env:"DATABASE_URL"`

	// Storefront sessions
	SessionTTL       time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	MaxSessions      int           `env:"MAX_SESSIONS" envDefault:"1000"`
	SearchRateLimit  int           `env:"SEARCH_RATE_LIMIT" envDefault:"30"`
	SearchRateWindow time.Duration `env:"SEARCH_RATE_WINDOW" envDefault:"1m"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsToken   string `env:"METRICS_TOKEN"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants. Callers that override fields after Load
// should call it again.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	u, err := url.Parse(c.CatalogURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid CATALOG_URL: %q", c.CatalogURL)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("invalid CATALOG_TIMEOUT: %s", c.CatalogTimeout)
	}
	if c.CatalogTokenSecret != "" && len(c.CatalogTokenSecret) < minTokenSecretLen {
		return fmt.Errorf("CATALOG_TOKEN_SECRET must be at least %d chars", minTokenSecretLen)
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1 {
		return fmt.Errorf("invalid BREAKER_FAILURE_RATIO: %v", c.BreakerFailureRatio)
	}
	if _, err := c.LanguageTag(); err != nil {
		return err
	}
	if _, err := c.CurrencyUnit(); err != nil {
		return err
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("invalid SESSION_TTL: %s", c.SessionTTL)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("invalid MAX_SESSIONS: %d", c.MaxSessions)
	}
	if c.SearchRateLimit < 0 || c.SearchRateWindow <= 0 {
		return fmt.Errorf("invalid search rate limit: %d per %s", c.SearchRateLimit, c.SearchRateWindow)
	}
	return nil
}

func (c *Config) Addr() string { return fmt.Sprintf(":%d", c.Port) }

func (c *Config) LanguageTag() (language.Tag, error) {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid LOCALE %q: %w", c.Locale, err)
	}
	return tag, nil
}

func (c *Config) CurrencyUnit() (currency.Unit, error) {
	unit, err := currency.ParseISO(c.Currency)
	if err != nil {
		return currency.Unit{}, fmt.Errorf("invalid CURRENCY %q: %w", c.Currency, err)
	}
	return unit, nil
}

func (c *Config) Breaker() catalogapi.BreakerConfig {
	b := catalogapi.DefaultBreakerConfig()
	b.FailureRatio = c.BreakerFailureRatio
	b.MinRequests = c.BreakerMinRequests
	b.Timeout = c.BreakerOpenTimeout
	return b
}
