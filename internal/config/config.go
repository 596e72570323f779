package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DatabaseURL string `env:"DATABASE_URL"`
	RedisAddr   string `env:"REDIS_ADDR"`

	JWTIssuer        string        `env:"JWT_ISSUER" envDefault:"breads-rest-api"`
	JWTAudience      string        `env:"JWT_AUDIENCE" envDefault:"breads-rest-api"`
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTokenTTL   time.Duration `env:"JWT_ACCESS_TTL" envDefault:"15m"`
	RefreshTokenTTL  time.Duration `env:"JWT_REFRESH_TTL" envDefault:"720h"`

	// RevocationFailClosed controls what the revocation gate does when a
	// syntactically valid token has no ledger row: false trusts the signature,
	// true rejects the request.
	RevocationFailClosed bool `env:"AUTH_REVOCATION_FAIL_CLOSED" envDefault:"false"`

	APIRateLimitRPM  int `env:"API_RATE_LIMIT_RPM" envDefault:"300"`
	AuthRateLimitRPM int `env:"AUTH_RATE_LIMIT_RPM" envDefault:"30"`

	SendgridAPIKey  string `env:"SENDGRID_API_KEY"`
	MailFromName    string `env:"MAIL_FROM_NAME" envDefault:"Maria"`
	MailFromAddress string `env:"MAIL_FROM_ADDRESS"`
	MailQueueSize   int    `env:"MAIL_QUEUE_SIZE" envDefault:"64"`

	LedgerSweepSchedule string `env:"LEDGER_SWEEP_SCHEDULE" envDefault:"@hourly"`

	OTELMetricsEnabled        bool          `env:"OTEL_METRICS_ENABLED" envDefault:"false"`
	OTELLogsEnabled           bool          `env:"OTEL_LOGS_ENABLED" envDefault:"false"`
	OTELExporterOTLPEndpoint  string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTELExporterOTLPInsecure  bool          `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	OTELServiceName           string        `env:"OTEL_SERVICE_NAME" envDefault:"breads-rest-api"`
	OTELEnvironment           string        `env:"OTEL_ENVIRONMENT" envDefault:"development"`
	OTELMetricsExportInterval time.Duration `env:"OTEL_METRICS_EXPORT_INTERVAL" envDefault:"30s"`
	EnableOTelHTTP            bool          `env:"OTEL_HTTP_ENABLED" envDefault:"false"`
}

const minSecretLength = 32

// Load reads .env (when present), parses the environment and validates the
// result. The validation outcome is recorded as a config metric so broken
// deploys show up in dashboards, not just in crash loops.
func Load() (*Config, error) {
	_ = godotenv.Load()
	cfg, err := parse()
	recordConfigLoadEvent(context.Background(), cfg, err)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("validate config: DATABASE_URL is required")
	}
	if c.JWTAccessSecret == "" || c.JWTRefreshSecret == "" {
		return fmt.Errorf("validate config: JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if c.IsProduction() {
		if len(c.JWTAccessSecret) < minSecretLength || len(c.JWTRefreshSecret) < minSecretLength {
			return fmt.Errorf("validate config: JWT secrets must be at least %d bytes in production", minSecretLength)
		}
	}
	if c.JWTAccessSecret == c.JWTRefreshSecret {
		return fmt.Errorf("validate config: access and refresh secrets must differ")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("validate config: token TTLs must be positive")
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		return fmt.Errorf("validate config: refresh TTL must exceed access TTL")
	}
	if c.SendgridAPIKey != "" && c.MailFromAddress == "" {
		return fmt.Errorf("validate config: MAIL_FROM_ADDRESS is required when SENDGRID_API_KEY is set")
	}
	if c.MailQueueSize <= 0 {
		return fmt.Errorf("validate config: MAIL_QUEUE_SIZE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return normalizeConfigProfile(c.Env) == "production"
}

func normalizeConfigProfile(profile string) string {
	v := strings.TrimSpace(strings.ToLower(profile))
	if v == "" {
		return "unknown"
	}
	return v
}

// classifyConfigLoadError buckets Load failures for the config.load.events
// metric: validation (our checks), parse (env decoding), load (anything else).
func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "validate config:"):
		return "validation"
	case strings.Contains(msg, "parse "):
		return "parse"
	default:
		return "load"
	}
}
