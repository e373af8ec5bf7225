package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	ListenAddr string `mapstructure:"LISTEN_ADDR"`
	Timezone   string `mapstructure:"TIMEZONE"`

	BackendURL     string        `mapstructure:"BACKEND_URL"`
	BackendToken   string        `mapstructure:"BACKEND_TOKEN"`
	BackendTimeout time.Duration `mapstructure:"BACKEND_TIMEOUT"`

	SessionIdle time.Duration `mapstructure:"SESSION_IDLE"`
	MaxSessions int           `mapstructure:"MAX_SESSIONS"`

	// development backend
	DevBackendAddr  string `mapstructure:"DEV_BACKEND_ADDR"`
	DevBackendToken string `mapstructure:"DEV_BACKEND_TOKEN"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`

	CookieHashKey  []byte `mapstructure:"-"`
	CookieBlockKey []byte `mapstructure:"-"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "LISTEN_ADDR", "TIMEZONE",
	"BACKEND_URL", "BACKEND_TOKEN", "BACKEND_TIMEOUT", "SESSION_IDLE", "MAX_SESSIONS",
	"DEV_BACKEND_ADDR", "DEV_BACKEND_TOKEN", "DATABASE_URL",
	"COOKIE_HASH_KEY", "COOKIE_BLOCK_KEY",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LISTEN_ADDR", ":8080")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("BACKEND_URL", "http://localhost:3000")
	v.SetDefault("BACKEND_TIMEOUT", "10s")
	v.SetDefault("SESSION_IDLE", "1h")
	v.SetDefault("MAX_SESSIONS", 10000)
	v.SetDefault("DEV_BACKEND_ADDR", ":3000")
	v.SetDefault("DATABASE_URL", "")
	return v
}

// Load reads the environment (after an optional .env file) and an optional
// config.yaml. Cookie keys are not required here; see RequireCookieKeys.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := newViper()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(cfg.BackendURL), "/")
	if cfg.BackendURL == "" {
		return Config{}, fmt.Errorf("BACKEND_URL is required")
	}
	if cfg.BackendTimeout <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT must be positive")
	}
	if cfg.MaxSessions < 0 {
		return Config{}, fmt.Errorf("MAX_SESSIONS must not be negative")
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	var err error
	if s := strings.TrimSpace(v.GetString("COOKIE_HASH_KEY")); s != "" {
		if cfg.CookieHashKey, err = decodeB64(s); err != nil {
			return Config{}, fmt.Errorf("COOKIE_HASH_KEY: %w", err)
		}
	}
	if s := strings.TrimSpace(v.GetString("COOKIE_BLOCK_KEY")); s != "" {
		if cfg.CookieBlockKey, err = decodeB64(s); err != nil {
			return Config{}, fmt.Errorf("COOKIE_BLOCK_KEY: %w", err)
		}
	}
	return cfg, nil
}

// RequireCookieKeys checks the keys the web UI needs to sign session cookies.
func (c Config) RequireCookieKeys() error {
	if len(c.CookieHashKey) == 0 || len(c.CookieBlockKey) == 0 {
		return fmt.Errorf("COOKIE_HASH_KEY and COOKIE_BLOCK_KEY are required (base64, see `amenityres keys`)")
	}
	switch len(c.CookieBlockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(c.CookieBlockKey))
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// decodeB64 accepts a base64 value or a path to a file holding one
// (for secret mounts).
func decodeB64(s string) ([]byte, error) {
	if b, err := os.ReadFile(s); err == nil {
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
