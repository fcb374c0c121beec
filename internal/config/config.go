package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// minSecretBytes is the shortest accepted HS256 key.
const minSecretBytes = 32

type Config struct {
	Port string

	// Auth. An empty secret disables bearer token checks.
	JWTSecret string

	// Request limits
	MaxBodyBytes int64
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Generation defaults
	Compress bool

	// Logging: debug, info, warn or error
	LogLevel string
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8080"),

		JWTSecret: os.Getenv("PDFTPL_JWT_SECRET"),

		MaxBodyBytes: envInt64("PDFTPL_MAX_BODY_BYTES", 20971520), // 20MB
		ReadTimeout:  envDuration("PDFTPL_READ_TIMEOUT", 30*time.Second),
		WriteTimeout: envDuration("PDFTPL_WRITE_TIMEOUT", 60*time.Second),

		Compress: envBool("PDFTPL_COMPRESS", true),

		LogLevel: envOr("PDFTPL_LOG_LEVEL", "info"),
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 20971520
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}

	return cfg
}

func (c Config) Validate() error {
	if c.JWTSecret != "" && len(c.JWTSecret) < minSecretBytes {
		return fmt.Errorf("PDFTPL_JWT_SECRET must be at least %d bytes", minSecretBytes)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("PDFTPL_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
