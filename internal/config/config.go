package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"

	"crypto_tracker/internal/storage"
)

// Config is the process configuration, read from .env and the environment.
type Config struct {
	Version string `ignored:"true"`

	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile       string `envconfig:"LOG_FILE" default:"tracker.log"`
	MaxLogSizeMB  int    `envconfig:"MAX_LOG_SIZE_MB" default:"10"`
	MaxLogBackups int    `envconfig:"MAX_LOG_BACKUPS" default:"3"`

	MarketAPIBaseURL     string        `envconfig:"MARKET_API_BASE_URL" default:"https://api.coingecko.com/api/v3"`
	MarketAPIKey         string        `envconfig:"MARKET_API_KEY"`
	CacheTTL             time.Duration `envconfig:"CACHE_TTL" default:"60s"`
	APIRequestsPerMinute int           `envconfig:"API_REQUESTS_PER_MINUTE" default:"30"`
	HTTPTimeout          time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`
	PollInterval         time.Duration `envconfig:"POLL_INTERVAL" default:"60s"`

	InitialBalance float64 `envconfig:"INITIAL_BALANCE" default:"10000"`

	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	StorageDir     string `envconfig:"STORAGE_DIR" default:"data"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"tracker.db"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
	RedisDB        int    `envconfig:"REDIS_DB" default:"0"`

	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`

	DesktopNotify bool   `envconfig:"DESKTOP_NOTIFY" default:"true"`
	EnableTUI     bool   `envconfig:"ENABLE_TUI" default:"false"`
	MetricsAddr   string `envconfig:"METRICS_ADDR"`
	DashboardRows int    `envconfig:"DASHBOARD_ROWS" default:"25"`
}

var backends = map[string]bool{"file": true, "sqlite": true, "redis": true, "memory": true}

// secretVars are masked when the configuration is logged.
var secretVars = map[string]bool{
	"MARKET_API_KEY":     true,
	"REDIS_PASSWORD":     true,
	"TELEGRAM_BOT_TOKEN": true,
	"TELEGRAM_CHAT_ID":   true,
}

// Load reads an optional .env file into the process environment, then decodes
// and validates the environment.
func Load() (*Config, error) {
	// A missing .env is normal; system environment variables still apply.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.PollInterval <= 0 {
		errs = append(errs, errors.New("POLL_INTERVAL must be positive"))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive"))
	}
	if c.InitialBalance < 0 {
		errs = append(errs, errors.New("INITIAL_BALANCE must not be negative"))
	}
	c.StorageBackend = strings.ToLower(c.StorageBackend)
	if !backends[c.StorageBackend] {
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.StorageBackend))
	}
	if c.StorageBackend == "redis" && c.RedisAddr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required for the redis backend"))
	}
	if c.TelegramBotToken != "" && c.TelegramChatID == 0 {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	return errors.Join(errs...)
}

// StorageOptions maps the storage settings onto storage.Options.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:       c.StorageBackend,
		Dir:           c.StorageDir,
		SQLitePath:    c.SQLitePath,
		RedisAddr:     c.RedisAddr,
		RedisPassword: c.RedisPassword,
		RedisDB:       c.RedisDB,
	}
}

// LogEnvFile prints the variables defined in .env, masking secrets to
// their last four characters. Call it once the logger is installed.
func LogEnvFile() {
	envMap, err := godotenv.Read()
	if err != nil {
		zap.L().Info("No .env file found, using system environment variables")
		return
	}
	fields := make([]zap.Field, 0, len(envMap))
	for key, val := range envMap {
		if secretVars[key] {
			val = Mask(val)
		}
		fields = append(fields, zap.String(key, val))
	}
	zap.L().Info(".env file variables", fields...)
}

// Mask hides all but the last four characters of s.
func Mask(s string) string {
	if len(s) > 4 {
		return "***" + s[len(s)-4:]
	}
	return "***"
}

// ReadVersion returns the trimmed contents of path, or a dev version.
func ReadVersion(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return "v0.0.0-dev"
	}
	if v := strings.TrimSpace(string(b)); v != "" {
		return v
	}
	return "v0.0.0-dev"
}
