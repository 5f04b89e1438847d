package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=ottobite port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:3000"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins []string
	Locale      string

	Log    LogConfig
	Notify NotifyConfig
	Jobs   JobsConfig

	// Varsayılan değer kullanılan ayarlar için uyarılar (main loglar)
	Warnings []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr veya dosya yolu
}

// NotifyConfig: bildirim dağıtımı (event bus + SSE) ayarları
type NotifyConfig struct {
	Bus           string // local | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Channel       string
	Heartbeat     time.Duration
	MaxClients    int
	SnapshotLimit int
	PollInterval  time.Duration
}

type JobsConfig struct {
	CronSecret      string
	ResetCron       string
	MaintenanceCron string
}

func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	v.SetDefault("LOCALE", "tr-TR")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "stdout")
	v.SetDefault("NOTIFY_BUS", "local")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_CHANNEL", "ottobite:notifications")
	v.SetDefault("SSE_HEARTBEAT", 15*time.Second)
	v.SetDefault("SSE_MAX_CLIENTS", 1000)
	v.SetDefault("SNAPSHOT_LIMIT", 20)
	v.SetDefault("POLL_INTERVAL", 10*time.Second)
	v.SetDefault("CRON_SECRET", "")
	v.SetDefault("RESET_CRON", "0 0 1 * *")
	v.SetDefault("MAINTENANCE_CRON", "0 8 * * *")

	cfg := &Config{
		HTTPPort:    v.GetString("HTTP_PORT"),
		DatabaseDSN: v.GetString("DATABASE_DSN"),
		JWTSecret:   v.GetString("JWT_SECRET"),
		CORSOrigins: splitOrigins(v.GetString("CORS_ALLOWED_ORIGINS")),
		Locale:      v.GetString("LOCALE"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
		},
		Notify: NotifyConfig{
			Bus:           strings.ToLower(v.GetString("NOTIFY_BUS")),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			Channel:       v.GetString("NOTIFY_CHANNEL"),
			Heartbeat:     v.GetDuration("SSE_HEARTBEAT"),
			MaxClients:    v.GetInt("SSE_MAX_CLIENTS"),
			SnapshotLimit: v.GetInt("SNAPSHOT_LIMIT"),
			PollInterval:  v.GetDuration("POLL_INTERVAL"),
		},
		Jobs: JobsConfig{
			CronSecret:      v.GetString("CRON_SECRET"),
			ResetCron:       v.GetString("RESET_CRON"),
			MaintenanceCron: v.GetString("MAINTENANCE_CRON"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	// Production güvenlik uyarıları
	if cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN varsayılan değer kullanılıyor, production için kendi Postgres bağlantı bilgini tanımla.")
	}
	if strings.Join(cfg.CORSOrigins, ",") == defaultCORSOrigins {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS varsayılan değer kullanılıyor, production için kendi domain'ini tanımla.")
	}
	if cfg.Jobs.CronSecret == "" {
		cfg.Warnings = append(cfg.Warnings, "CRON_SECRET tanımlanmamış, cron endpoint'leri korumasız.")
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment değişkeni tanımlanmamış")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET en az 32 karakter olmalıdır")
	}
	switch c.Notify.Bus {
	case "local", "redis":
	default:
		return fmt.Errorf("NOTIFY_BUS geçersiz: %q (local veya redis)", c.Notify.Bus)
	}
	if c.Notify.Heartbeat <= 0 {
		return errors.New("SSE_HEARTBEAT sıfırdan büyük olmalı")
	}
	if c.Notify.SnapshotLimit <= 0 {
		return errors.New("SNAPSHOT_LIMIT sıfırdan büyük olmalı")
	}
	return nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
