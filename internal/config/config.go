package config

import (
	"flag"
	"regexp"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	// Server settings
	DatabaseDSN string `env:"DATABASE_URI"`
	AuthSecret  string `env:"AUTH_SECRET"`
	BaseURL     string `env:"BASE_URL"`
	Debug       bool   `env:"DEBUG"`

	// Upstream services
	DataAPIURL        string        `env:"DATA_API_URL"`
	CombinationAPIURL string        `env:"COMBINATION_API_URL"`
	UpstreamTimeout   time.Duration `env:"UPSTREAM_TIMEOUT"`

	// Session/setting lifecycle
	StatusMaxAge        time.Duration `env:"STATUS_MAX_AGE"`
	SessionLifetime     time.Duration `env:"SESSION_LIFETIME"`
	TempSettingLifetime time.Duration `env:"TEMP_SETTING_LIFETIME"`
}

func NewConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{}
	_ = env.Parse(cfg)

	// флаги работают ТОЛЬКО если переменные из env не заданы
	flag.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "строка подключения к БД (postgres DSN или путь к sqlite)")
	flag.StringVar(&cfg.AuthSecret, "auth-secret", cfg.AuthSecret, "секрет для подписи сессионной cookie")
	flag.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "адрес сервера в формате host:port")
	flag.BoolVar(&cfg.Debug, "debug", cfg.Debug, "включить подробные тела ошибок 5xx")
	flag.StringVar(&cfg.DataAPIURL, "data-api", cfg.DataAPIURL, "базовый URL Data API (items/recipes)")
	flag.StringVar(&cfg.CombinationAPIURL, "combination-api", cfg.CombinationAPIURL, "базовый URL Combination API (статусы выгрузок)")
	flag.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", cfg.UpstreamTimeout, "таймаут запросов к внешним API")
	flag.DurationVar(&cfg.StatusMaxAge, "status-max-age", cfg.StatusMaxAge, "окно устаревания статуса комбинации")
	flag.DurationVar(&cfg.SessionLifetime, "session-lifetime", cfg.SessionLifetime, "время жизни неактивной сессии")
	flag.DurationVar(&cfg.TempSettingLifetime, "temp-setting-lifetime", cfg.TempSettingLifetime, "время жизни неактивной временной настройки")
	flag.Parse()

	// Defaults
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "dev-secret-key"
	}
	// BaseURL должен быть в виде "address:port" (без схемы и пути), иначе дефолт
	hostPortRe := regexp.MustCompile(`^[A-Za-z0-9\.\-]+:\d{1,5}$`)
	if !hostPortRe.MatchString(cfg.BaseURL) {
		cfg.BaseURL = "localhost:8080"
	}
	if cfg.DataAPIURL == "" {
		cfg.DataAPIURL = "http://localhost:8083"
	}
	if cfg.CombinationAPIURL == "" {
		cfg.CombinationAPIURL = "http://localhost:8084"
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 10 * time.Second
	}
	if cfg.StatusMaxAge <= 0 {
		cfg.StatusMaxAge = 24 * time.Hour
	}
	if cfg.SessionLifetime <= 0 {
		cfg.SessionLifetime = 30 * 24 * time.Hour
	}
	if cfg.TempSettingLifetime <= 0 {
		cfg.TempSettingLifetime = 24 * time.Hour
	}

	return cfg
}
