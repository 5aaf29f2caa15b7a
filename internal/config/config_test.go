package config

import (
	"testing"
	"time"
)

func TestFromViperReadsLegacyEnvNames(t *testing.T) {
	t.Setenv("API_TOKEN", "123:abc")
	t.Setenv("id_admin", "555")
	t.Setenv("CHANNEL_ID", "@smartkeyham")
	t.Setenv("PHOTO_URL", "https://example.com/keys.png")
	t.Setenv("KEYS_WEB_APP_URL", "https://example.com/app")
	t.Setenv("SUBSCRIBE_URL", "https://t.me/smartkeyham")
	t.Setenv("ADMIN_DIGEST_INTERVAL_HOURS", "24")

	cfg, err := FromViper(NewViper())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.TelegramToken != "123:abc" || cfg.AdminID != 555 {
		t.Fatalf("unexpected credentials: %+v", cfg)
	}
	if cfg.ChannelID != "@smartkeyham" || cfg.WebAppURL != "https://example.com/app" {
		t.Fatalf("unexpected channel settings: %+v", cfg)
	}
	if cfg.DatabasePath != "users.db" {
		t.Fatalf("expected default database path, got %q", cfg.DatabasePath)
	}
	if cfg.DigestInterval != 24*time.Hour {
		t.Fatalf("expected 24h digest interval, got %s", cfg.DigestInterval)
	}
	if cfg.SendRate != defaultSendRate {
		t.Fatalf("expected default send rate, got %v", cfg.SendRate)
	}
}

func TestFromViperRejectsNonIntegerAdmin(t *testing.T) {
	t.Setenv("API_TOKEN", "123:abc")
	t.Setenv("id_admin", "admin")

	if _, err := FromViper(NewViper()); err == nil {
		t.Fatalf("expected error for non-integer admin id")
	}
}

func TestFromViperRequiresToken(t *testing.T) {
	t.Setenv("API_TOKEN", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("id_admin", "1")

	if _, err := FromViper(NewViper()); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestFromViperRejectsNegativeDigestInterval(t *testing.T) {
	t.Setenv("API_TOKEN", "123:abc")
	t.Setenv("id_admin", "1")
	t.Setenv("ADMIN_DIGEST_INTERVAL_HOURS", "-3")

	if _, err := FromViper(NewViper()); err == nil {
		t.Fatalf("expected error for negative interval")
	}
}
