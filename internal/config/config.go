// Package config loads the application configuration from environment
// variables, optionally seeded from a .env file.
//
// Every problem found while loading is collected and reported together, so a
// misconfigured deployment fails once with the full list instead of one
// variable at a time.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Config is the top-level configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Auth   AuthConfig
	Audit  AuditConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port int
}

type DBConfig struct {
	Path string // file path, or ":memory:"
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// AuditConfig selects the audit failure policy. Strict makes an audit write
// failure abort the mutation that caused it.
type AuditConfig struct {
	Strict bool
}

type LogConfig struct {
	Level  slog.Level
	Format string // "text" or "json"
}

// Load reads .env (if present) and then the process environment.
// Variables already set in the environment win over .env.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return FromEnv()
}

// LoadCLI is Load for the admin CLI, which never issues tokens and so does
// not require JWT_SECRET.
func LoadCLI() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return fromEnv(false)
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config: reading .env: %w", err)
	}
	return nil
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	return fromEnv(true)
}

func fromEnv(requireSecret bool) (*Config, error) {
	var problems []string

	secret := getOptionalEnv("JWT_SECRET", "")
	if requireSecret {
		secret = getRequiredEnv("JWT_SECRET", &problems)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getOptionalEnvInt("PORT", 8080, &problems),
		},
		DB: DBConfig{
			Path: getOptionalEnv("DB_PATH", "data/snippets.db"),
		},
		Auth: AuthConfig{
			JWTSecret:  secret,
			TokenTTL:   getOptionalEnvDuration("TOKEN_TTL", 24*time.Hour, &problems),
			BcryptCost: getOptionalEnvInt("BCRYPT_COST", bcrypt.DefaultCost, &problems),
		},
		Audit: AuditConfig{
			Strict: getOptionalEnvBool("AUDIT_STRICT", true, &problems),
		},
		Log: LogConfig{
			Level:  getOptionalEnvLevel("LOG_LEVEL", slog.LevelInfo, &problems),
			Format: strings.ToLower(getOptionalEnv("LOG_FORMAT", "text")),
		},
	}

	if cfg.Auth.JWTSecret != "" && len(cfg.Auth.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT %d is out of range", cfg.Server.Port))
	}
	if cfg.Auth.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be text or json, got %q", cfg.Log.Format))
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

// NewLogger builds the slog logger described by c.
func (c LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func getRequiredEnv(key string, problems *[]string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		*problems = append(*problems, fmt.Sprintf("missing required environment variable %s", key))
		return ""
	}
	return value
}

func getOptionalEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getOptionalEnvInt(key string, defaultValue int, problems *[]string) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected integer, got %q", key, raw))
		return defaultValue
	}
	return v
}

func getOptionalEnvBool(key string, defaultValue bool, problems *[]string) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected boolean, got %q", key, raw))
		return defaultValue
	}
	return v
}

// time.ParseDuration format: "15m", "1h30m".
func getOptionalEnvDuration(key string, defaultValue time.Duration, problems *[]string) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: expected duration, got %q", key, raw))
		return defaultValue
	}
	return v
}

func getOptionalEnvLevel(key string, defaultValue slog.Level, problems *[]string) slog.Level {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return defaultValue
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		*problems = append(*problems, fmt.Sprintf("invalid value for %s: %q", key, raw))
		return defaultValue
	}
	return level
}
