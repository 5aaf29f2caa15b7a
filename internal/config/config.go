package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultDatabasePath = "users.db"
	defaultLogLevel     = "info"
	defaultSendRate     = 25.0
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	AdminID       int64

	ChannelID    string
	PhotoURL     string
	WebAppURL    string
	SubscribeURL string

	DatabasePath string
	LogLevel     string

	DigestInterval time.Duration
	DigestAt       string
	SendRate       float64
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromViper(NewViper())
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	bindEnv(v, "telegram_token", "API_TOKEN", "TELEGRAM_TOKEN")
	bindEnv(v, "admin_id", "id_admin", "ADMIN_ID")
	bindEnv(v, "channel_id", "CHANNEL_ID")
	bindEnv(v, "photo_url", "PHOTO_URL")
	bindEnv(v, "web_app_url", "KEYS_WEB_APP_URL")
	bindEnv(v, "subscribe_url", "SUBSCRIBE_URL")
	bindEnv(v, "database_path", "DATABASE_PATH")
	bindEnv(v, "log_level", "LOG_LEVEL")
	bindEnv(v, "digest_interval_hours", "ADMIN_DIGEST_INTERVAL_HOURS")
	bindEnv(v, "digest_at", "ADMIN_DIGEST_AT")
	bindEnv(v, "send_rate", "SEND_RATE_PER_SECOND")

	v.SetDefault("database_path", defaultDatabasePath)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("digest_interval_hours", 0)
	v.SetDefault("send_rate", defaultSendRate)
	return v
}

func bindEnv(v *viper.Viper, key string, envNames ...string) {
	input := append([]string{key}, envNames...)
	if err := v.BindEnv(input...); err != nil {
		panic(err)
	}
}

// FromViper builds a Config; the token and an integer admin id are required.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		TelegramToken: strings.TrimSpace(v.GetString("telegram_token")),
		ChannelID:     strings.TrimSpace(v.GetString("channel_id")),
		PhotoURL:      strings.TrimSpace(v.GetString("photo_url")),
		WebAppURL:     strings.TrimSpace(v.GetString("web_app_url")),
		SubscribeURL:  strings.TrimSpace(v.GetString("subscribe_url")),
		DatabasePath:  strings.TrimSpace(v.GetString("database_path")),
		LogLevel:      strings.TrimSpace(v.GetString("log_level")),
		DigestAt:      strings.TrimSpace(v.GetString("digest_at")),
		SendRate:      v.GetFloat64("send_rate"),
	}

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("API_TOKEN is required")
	}

	rawAdmin := strings.TrimSpace(v.GetString("admin_id"))
	adminID, err := strconv.ParseInt(rawAdmin, 10, 64)
	if err != nil {
		return cfg, fmt.Errorf("id_admin must be an integer, got %q", rawAdmin)
	}
	cfg.AdminID = adminID

	interval, err := parseHours(v.GetString("digest_interval_hours"))
	if err != nil {
		return cfg, err
	}
	cfg.DigestInterval = interval

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = defaultSendRate
	}

	return cfg, nil
}

func parseHours(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("ADMIN_DIGEST_INTERVAL_HOURS must be a non-negative integer, got %q", raw)
	}
	return time.Duration(hours) * time.Hour, nil
}
