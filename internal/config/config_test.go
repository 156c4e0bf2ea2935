package config

import (
	"strings"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/identity?sslmode=disable")
	t.Setenv("BASE_URL", "https://id.example.com")
	t.Setenv("TOKEN_TTL_HOURS", "2")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.HTTPPort)
	}
	if cfg.SessionStore != "postgres" {
		t.Fatalf("expected default session store postgres, got %s", cfg.SessionStore)
	}
	if cfg.MailDriver != "log" {
		t.Fatalf("expected default mail driver log, got %s", cfg.MailDriver)
	}
	if cfg.AuthSessionOnRegister {
		t.Fatal("sessions on register must be off by default")
	}
	if cfg.TokenTTL().Hours() != 2 {
		t.Fatalf("expected 2h token TTL, got %s", cfg.TokenTTL())
	}
}

func TestLoadRequiredKeysHaveNoDefaults(t *testing.T) {
	cases := []struct {
		name  string
		unset string
		want  string
	}{
		{"database url", "DATABASE_URL", "DATABASE_URL is required"},
		{"base url", "BASE_URL", "BASE_URL is required"},
		{"token ttl", "TOKEN_TTL_HOURS", "TOKEN_TTL_HOURS is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.unset, "")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error with %s unset", tc.unset)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in error, got %v", tc.want, err)
			}
		})
	}
}

func TestLoadInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"non-numeric token ttl", "TOKEN_TTL_HOURS", "soon"},
		{"negative token ttl", "TOKEN_TTL_HOURS", "-1"},
		{"relative base url", "BASE_URL", "id.example.com"},
		{"unknown session store", "SESSION_STORE", "memcached"},
		{"unknown samesite", "COOKIE_SAMESITE", "always"},
		{"unknown mail driver", "MAIL_DRIVER", "pigeon"},
		{"bad session ttl", "SESSION_TTL", "a-while"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.key, tc.val)

			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
		})
	}
}

func TestBaseURLTrailingSlashTrimmed(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BASE_URL", "https://id.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://id.example.com" {
		t.Fatalf("expected trimmed base url, got %s", cfg.BaseURL)
	}
}
