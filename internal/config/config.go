package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Spok95/kyefa/internal/apperr"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	// CacheOff в KYEFA_CACHE_PATH отключает локальный кэш ростера.
	CacheOff = "off"
)

var ErrMissingAPIURL = errors.New("required env KYEFA_API_URL is empty")

type Config struct {
	APIURL          string
	HTTPTimeout     time.Duration
	BannerTTL       time.Duration
	RefreshInterval time.Duration
	CachePath       string // "" — кэш выключен
	MetricsAddr     string
	LogLevel        string
	Env             string // dev|prod
	SentryDSN       string
	Release         string
}

// Load читает .env (если есть) и окружение. Отсутствие KYEFA_API_URL — фатально для старта.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	apiURL := strings.TrimRight(strings.TrimSpace(v.GetString("KYEFA_API_URL")), "/")
	if apiURL == "" {
		return nil, apperr.NewConfiguration(ErrMissingAPIURL)
	}
	if u, err := url.Parse(apiURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, apperr.NewConfiguration(fmt.Errorf("KYEFA_API_URL %q: not an absolute URL", apiURL))
	}

	cfg := &Config{
		APIURL:          apiURL,
		HTTPTimeout:     parseDuration(v.GetString("KYEFA_HTTP_TIMEOUT"), 15*time.Second),
		BannerTTL:       parseDuration(v.GetString("KYEFA_BANNER_TTL"), 3*time.Second),
		RefreshInterval: parseDuration(v.GetString("KYEFA_REFRESH_INTERVAL"), 0),
		CachePath:       cachePath(v.GetString("KYEFA_CACHE_PATH")),
		MetricsAddr:     v.GetString("METRICS_ADDR"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Env:             strings.ToLower(v.GetString("ENV")),
		SentryDSN:       v.GetString("SENTRY_DSN"),
		Release:         v.GetString("RELEASE"),
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("KYEFA_HTTP_TIMEOUT", "15s")
	v.SetDefault("KYEFA_BANNER_TTL", "3s")
	v.SetDefault("KYEFA_REFRESH_INTERVAL", "0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ENV", EnvDev)
	v.SetDefault("RELEASE", "dev")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "0" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func cachePath(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.EqualFold(raw, CacheOff):
		return ""
	case raw != "":
		return raw
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kyefa", "roster.db")
}
