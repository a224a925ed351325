// Package config loads application configuration from the environment.
// OAuth client credentials and secrets are plain values handed to the
// components that need them; nothing reads the environment after startup.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds every runtime setting of the application.
type Config struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port string `env:"PORT" envDefault:"8080"`
	Mode string `env:"APP_ENV" envDefault:"development"`

	SessionSecret string `env:"SESSION_SECRET,required"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID,required"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET,required"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URI,required"`

	GeminiAPIKey string `env:"GEMINI_API_KEY,required"`

	DBPath string `env:"DB_PATH" envDefault:"receiptdrop.db"`

	// ExtractionFile optionally points at a YAML file overriding the
	// extraction model and prompt.
	ExtractionFile string `env:"EXTRACTION_CONFIG"`
}

// Load parses the configuration from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Production reports whether the app runs in production mode. Session
// cookies are marked Secure only in production.
func (c Config) Production() bool {
	return c.Mode == "production"
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}
