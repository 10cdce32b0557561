package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config is the API server configuration, read from the environment.
type Config struct {
	Server struct {
		Port int `env:"PORT" envDefault:"5000"`

		// Origins allowed by CORS
		AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`

		// Prefix for file URLs in responses, e.g. https://api.example.com
		PublicBaseURL string `env:"PUBLIC_BASE_URL"`

		ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}

	Database struct {
		Path string `env:"DATABASE_PATH" envDefault:"instance/realestate.db"`
	}

	Auth struct {
		SecretKey  string        `env:"JWT_SECRET_KEY" envDefault:"change-this-secret"`
		AccessTTL  time.Duration `env:"JWT_ACCESS_TTL" envDefault:"1h"`
		RefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

		// Admin account created at startup when missing
		AdminUsername string `env:"ADMIN_DEFAULT_USER" envDefault:"admin"`
		AdminPassword string `env:"ADMIN_DEFAULT_PASS" envDefault:"admin123"`
	}

	Uploads struct {
		Dir string `env:"UPLOAD_DIR" envDefault:"uploads"`
	}

	Geocoding struct {
		Enabled     bool          `env:"GEOCODING_ENABLED" envDefault:"false"`
		BaseURL     string        `env:"GEOCODING_BASE_URL" envDefault:"https://nominatim.openstreetmap.org"`
		UserAgent   string        `env:"GEOCODING_USER_AGENT" envDefault:"realestate-catalog/1.0"`
		CacheDir    string        `env:"GEOCODING_CACHE_DIR" envDefault:"cache"`
		MinInterval time.Duration `env:"GEOCODING_MIN_INTERVAL" envDefault:"1s"`
	}

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads an optional .env file, then the environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT: %d", c.Server.Port)
	}
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
