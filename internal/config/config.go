package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	// BaseURL is the public origin the mailed token links point at.
	BaseURL       string
	TokenTTLHours int

	SessionTTL    time.Duration
	SessionStore  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	CookieDomain   string
	CookieSecure   bool
	CookieSameSite string

	CORSAllowedOrigins []string

	MailDriver   string
	MailFrom     string
	SMTPAddr     string
	SMTPUsername string
	SMTPPassword string

	AuthSessionOnRegister bool

	ShutdownTimeout       time.Duration
	ReadinessGracePeriod  time.Duration
	ReadHeaderTimeout     time.Duration
	MaxRequestBodyBytes   int64

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	// .env is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		Env:      env,
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		BaseURL:     strings.TrimRight(os.Getenv("BASE_URL"), "/"),

		SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "postgres")),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		CookieDomain:   os.Getenv("COOKIE_DOMAIN"),
		CookieSecure:   getEnvBool("COOKIE_SECURE", true),
		CookieSameSite: strings.ToLower(getEnv("COOKIE_SAMESITE", "lax")),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		MailDriver:   strings.ToLower(getEnv("MAIL_DRIVER", "log")),
		MailFrom:     getEnv("MAIL_FROM", "no-reply@localhost"),
		SMTPAddr:     getEnv("SMTP_ADDR", "localhost:587"),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),

		AuthSessionOnRegister: getEnvBool("AUTH_SESSION_ON_REGISTER", false),

		MaxRequestBodyBytes: int64(getEnvInt("MAX_REQUEST_BODY_BYTES", 1<<20)),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "identity-service"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	if raw, ok := os.LookupEnv("TOKEN_TTL_HOURS"); ok && strings.TrimSpace(raw) != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("parse TOKEN_TTL_HOURS: %w", err)
		}
		cfg.TokenTTLHours = n
	}

	sessionTTL, err := time.ParseDuration(getEnv("SESSION_TTL", "720h"))
	if err != nil {
		return nil, fmt.Errorf("parse SESSION_TTL: %w", err)
	}
	cfg.SessionTTL = sessionTTL

	shutdownTimeout, err := time.ParseDuration(getEnv("SHUTDOWN_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("parse SHUTDOWN_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout = shutdownTimeout

	readinessGrace, err := time.ParseDuration(getEnv("READINESS_GRACE_PERIOD", "5s"))
	if err != nil {
		return nil, fmt.Errorf("parse READINESS_GRACE_PERIOD: %w", err)
	}
	cfg.ReadinessGracePeriod = readinessGrace

	readHeaderTimeout, err := time.ParseDuration(getEnv("READ_HEADER_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("parse READ_HEADER_TIMEOUT: %w", err)
	}
	cfg.ReadHeaderTimeout = readHeaderTimeout

	metricsInterval, err := time.ParseDuration(getEnv("OTEL_METRICS_EXPORT_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("parse OTEL_METRICS_EXPORT_INTERVAL: %w", err)
	}
	cfg.OTELMetricsExportInterval = metricsInterval

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.BaseURL == "" {
		errs = append(errs, "BASE_URL is required")
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "BASE_URL must be an absolute URL")
	}
	if c.TokenTTLHours <= 0 {
		errs = append(errs, "TOKEN_TTL_HOURS is required and must be positive")
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, "SESSION_TTL must be positive")
	}
	switch c.SessionStore {
	case "postgres", "redis":
	default:
		errs = append(errs, "SESSION_STORE must be postgres or redis")
	}
	if c.SessionStore == "redis" && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when SESSION_STORE=redis")
	}
	switch c.CookieSameSite {
	case "lax", "strict", "none":
	default:
		errs = append(errs, "COOKIE_SAMESITE must be lax, strict, or none")
	}
	switch c.MailDriver {
	case "log", "smtp":
	default:
		errs = append(errs, "MAIL_DRIVER must be log or smtp")
	}
	if c.MailDriver == "smtp" && c.SMTPAddr == "" {
		errs = append(errs, "SMTP_ADDR is required when MAIL_DRIVER=smtp")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be debug, info, warn, or error")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be in [0,1]")
	}
	if len(errs) > 0 {
		return errors.New("config validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func isValidLogLevel(v string) bool {
	switch v {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return def
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
