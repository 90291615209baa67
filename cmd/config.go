package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"backoffice/internal/core/domain/model/shipping"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/multierr"
)

const (
	AppEnvDevelopment = "development"
	AppEnvProduction  = "production"

	minProductionSecretLength = 32
	maxAutoAssignLimit        = 1000
	maxSyncOrders             = 10000
)

type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	AutoMigrate bool   `envconfig:"AUTO_MIGRATE" default:"false"`
	RedisURL    string `envconfig:"REDIS_URL" required:"true"`

	JWTSecret               string `envconfig:"JWT_SECRET" required:"true"`
	MaystroWebhookSecret    string `envconfig:"MAYSTRO_WEBHOOK_SECRET" required:"true"`
	EcoManagerWebhookSecret string `envconfig:"ECOMANAGER_WEBHOOK_SECRET" required:"true"`
	// EcoManagerWebhookToken answers the registration handshake; it falls back to the webhook secret.
	EcoManagerWebhookToken string `envconfig:"ECOMANAGER_WEBHOOK_TOKEN"`

	CORSOrigins     []string      `envconfig:"CORS_ORIGIN" default:"http://localhost:3000"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
	RateLimitMax    int64         `envconfig:"RATE_LIMIT_MAX" default:"120"`

	OnlineThreshold  time.Duration `envconfig:"ONLINE_THRESHOLD" default:"5m"`
	AutoAssignCron   string        `envconfig:"AUTO_ASSIGN_CRON" default:"0 * * * * *"`
	AutoAssignLimit  int           `envconfig:"AUTO_ASSIGN_LIMIT" default:"50"`
	TrackingSyncCron string        `envconfig:"TRACKING_SYNC_CRON" default:"0 */15 * * * *"`
	SyncMaxOrders    int           `envconfig:"SYNC_MAX_ORDERS" default:"500"`
	SyncBatchSize    int           `envconfig:"SYNC_BATCH_SIZE" default:"100"`

	ProviderTimeout    time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`
	ProviderMaxRetries uint64        `envconfig:"PROVIDER_MAX_RETRIES" default:"3"`
	// MaystroStatusTable pins the status code table revision the deployment was reviewed against.
	MaystroStatusTable string `envconfig:"MAYSTRO_STATUS_TABLE_VERSION"`

	EcoManagerBaseURL string `envconfig:"ECOMANAGER_BASE_URL"`
	EcoManagerToken   string `envconfig:"ECOMANAGER_TOKEN"`
	EcoManagerStoreID string `envconfig:"ECOMANAGER_STORE_ID"`
}

// LoadConfig reads envFile when it exists, then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, AppEnvProduction)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var err error

	if c.IsProduction() {
		secrets := []struct{ name, value string }{
			{"JWT_SECRET", c.JWTSecret},
			{"MAYSTRO_WEBHOOK_SECRET", c.MaystroWebhookSecret},
			{"ECOMANAGER_WEBHOOK_SECRET", c.EcoManagerWebhookSecret},
		}
		for _, s := range secrets {
			if len(s.value) < minProductionSecretLength {
				err = multierr.Append(err, fmt.Errorf("%s must be at least %d characters in production", s.name, minProductionSecretLength))
			}
		}
	}
	if c.MaystroWebhookSecret != "" && c.MaystroWebhookSecret == c.EcoManagerWebhookSecret {
		err = multierr.Append(err, errors.New("MAYSTRO_WEBHOOK_SECRET and ECOMANAGER_WEBHOOK_SECRET must differ"))
	}

	if c.RateLimitWindow <= 0 || c.RateLimitMax < 1 {
		err = multierr.Append(err, errors.New("RATE_LIMIT_WINDOW and RATE_LIMIT_MAX must be positive"))
	}
	if c.OnlineThreshold <= 0 {
		err = multierr.Append(err, errors.New("ONLINE_THRESHOLD must be positive"))
	}
	if c.AutoAssignLimit < 1 || c.AutoAssignLimit > maxAutoAssignLimit {
		err = multierr.Append(err, fmt.Errorf("AUTO_ASSIGN_LIMIT must be between 1 and %d", maxAutoAssignLimit))
	}
	if c.SyncMaxOrders < 1 || c.SyncMaxOrders > maxSyncOrders {
		err = multierr.Append(err, fmt.Errorf("SYNC_MAX_ORDERS must be between 1 and %d", maxSyncOrders))
	}
	if c.SyncBatchSize < 1 {
		err = multierr.Append(err, errors.New("SYNC_BATCH_SIZE must be positive"))
	}
	if c.ProviderTimeout <= 0 {
		err = multierr.Append(err, errors.New("PROVIDER_TIMEOUT must be positive"))
	}
	if tableErr := shipping.CheckMaystroStatusTableVersion(c.MaystroStatusTable); tableErr != nil {
		err = multierr.Append(err, fmt.Errorf("MAYSTRO_STATUS_TABLE_VERSION: %w", tableErr))
	}
	if _, levelErr := parseLogLevel(c.LogLevel); levelErr != nil {
		err = multierr.Append(err, levelErr)
	}

	return err
}

// SlogLevel returns the configured level, info when unset.
func (c Config) SlogLevel() slog.Level {
	level, err := parseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func (c Config) webhookToken() string {
	if c.EcoManagerWebhookToken != "" {
		return c.EcoManagerWebhookToken
	}
	return c.EcoManagerWebhookSecret
}
