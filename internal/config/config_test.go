package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "PDFTPL_JWT_SECRET", "PDFTPL_MAX_BODY_BYTES", "PDFTPL_COMPRESS", "PDFTPL_LOG_LEVEL", "PDFTPL_READ_TIMEOUT", "PDFTPL_WRITE_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.MaxBodyBytes != 20971520 {
		t.Errorf("MaxBodyBytes = %d", cfg.MaxBodyBytes)
	}
	if !cfg.Compress {
		t.Error("Compress should default to true")
	}
	if cfg.ReadTimeout != 30*time.Second || cfg.WriteTimeout != 60*time.Second {
		t.Errorf("timeouts = %v/%v", cfg.ReadTimeout, cfg.WriteTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PDFTPL_MAX_BODY_BYTES", "1024")
	t.Setenv("PDFTPL_COMPRESS", "false")
	t.Setenv("PDFTPL_LOG_LEVEL", "debug")
	t.Setenv("PDFTPL_READ_TIMEOUT", "5s")
	t.Setenv("PDFTPL_WRITE_TIMEOUT", "-1s")

	cfg := Load()
	if cfg.Port != "9000" || cfg.MaxBodyBytes != 1024 || cfg.Compress {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 60*time.Second {
		t.Errorf("non-positive WriteTimeout should fall back, got %v", cfg.WriteTimeout)
	}
	level, err := cfg.Level()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("Level() = %v, %v", level, err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"no auth", Config{LogLevel: "info"}, ""},
		{"long secret", Config{LogLevel: "warn", JWTSecret: strings.Repeat("k", 32)}, ""},
		{"short secret", Config{LogLevel: "info", JWTSecret: "short"}, "PDFTPL_JWT_SECRET"},
		{"bad level", Config{LogLevel: "loud"}, "PDFTPL_LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}
