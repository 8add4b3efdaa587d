package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Profile  string
	HTTPAddr string

	DatabaseDriver string
	DatabaseDSN    string

	JWTSecret       string
	JWTIssuer       string
	JWTAudience     string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// WebhookSecretFallback is the process-wide secret used when a repo
	// link carries no secret of its own. Empty means the verifier runs in
	// its accept-all development fallback.
	WebhookSecretFallback string

	GitHubOAuthClientID     string
	GitHubOAuthClientSecret string
	GitHubOAuthRedirectURL  string

	RedisEnabled       bool
	RedisAddr          string
	CapabilityCacheTTL time.Duration

	CORSOrigins      []string
	APIRateLimitRPM  int
	AuthRateLimitRPM int

	OTELMetricsEnabled        bool
	OTELTracesEnabled         bool
	OTELLogsEnabled           bool
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELServiceName           string
	OTELEnvironment           string
	OTELMetricsExportInterval time.Duration

	ShutdownTimeout time.Duration
	LogLevelName    string
}

func Load(ctx context.Context) (*Config, error) {
	cfg := &Config{
		Profile:  envString("SHIPLANE_PROFILE", "dev"),
		HTTPAddr: envString("SHIPLANE_HTTP_ADDR", ":8080"),

		DatabaseDriver: envString("SHIPLANE_DB_DRIVER", "sqlite"),
		DatabaseDSN:    envString("SHIPLANE_DB_DSN", "file:shiplane.db?cache=shared"),

		JWTSecret:       os.Getenv("SHIPLANE_JWT_SECRET"),
		JWTIssuer:       envString("SHIPLANE_JWT_ISSUER", "shiplane"),
		JWTAudience:     envString("SHIPLANE_JWT_AUDIENCE", "shiplane-api"),
		AccessTokenTTL:  envDuration("SHIPLANE_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: envDuration("SHIPLANE_REFRESH_TOKEN_TTL", 30*24*time.Hour),

		WebhookSecretFallback: os.Getenv("SHIPLANE_WEBHOOK_SECRET"),

		GitHubOAuthClientID:     os.Getenv("SHIPLANE_GITHUB_CLIENT_ID"),
		GitHubOAuthClientSecret: os.Getenv("SHIPLANE_GITHUB_CLIENT_SECRET"),
		GitHubOAuthRedirectURL:  os.Getenv("SHIPLANE_GITHUB_REDIRECT_URL"),

		RedisEnabled:       envBool("SHIPLANE_REDIS_ENABLED", false),
		RedisAddr:          envString("SHIPLANE_REDIS_ADDR", "localhost:6379"),
		CapabilityCacheTTL: envDuration("SHIPLANE_CAPABILITY_CACHE_TTL", 30*time.Second),

		CORSOrigins:      envList("SHIPLANE_CORS_ORIGINS", []string{"http://localhost:3000"}),
		APIRateLimitRPM:  envInt("SHIPLANE_API_RATE_LIMIT_RPM", 600),
		AuthRateLimitRPM: envInt("SHIPLANE_AUTH_RATE_LIMIT_RPM", 30),

		OTELMetricsEnabled:        envBool("OTEL_METRICS_ENABLED", false),
		OTELTracesEnabled:         envBool("OTEL_TRACES_ENABLED", false),
		OTELLogsEnabled:           envBool("OTEL_LOGS_ENABLED", false),
		OTELExporterOTLPEndpoint:  envString("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure:  envBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELServiceName:           envString("OTEL_SERVICE_NAME", "shiplane"),
		OTELEnvironment:           envString("OTEL_ENVIRONMENT", "dev"),
		OTELMetricsExportInterval: envDuration("OTEL_METRICS_EXPORT_INTERVAL", 30*time.Second),

		ShutdownTimeout: envDuration("SHIPLANE_SHUTDOWN_TIMEOUT", 15*time.Second),
		LogLevelName:    envString("SHIPLANE_LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		recordConfigValidationEvent(ctx, cfg.Profile, "failure", classifyConfigLoadError(err))
		return nil, err
	}
	recordConfigValidationEvent(ctx, cfg.Profile, "success", "none")
	return cfg, nil
}

// Signing secret material is a startup-time invariant, not a per-request
// concern.
func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("validate config: SHIPLANE_JWT_SECRET is required")
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("validate config: unsupported db driver %q", c.DatabaseDriver)
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("validate config: token TTLs must be positive")
	}
	if c.GitHubOAuthClientID != "" && c.GitHubOAuthRedirectURL == "" {
		return fmt.Errorf("validate config: SHIPLANE_GITHUB_REDIRECT_URL required when GitHub OAuth is configured")
	}
	return nil
}

// GitHubOAuthEnabled reports whether the optional OAuth sign-in is wired.
func (c *Config) GitHubOAuthEnabled() bool {
	return c.GitHubOAuthClientID != "" && c.GitHubOAuthClientSecret != ""
}

func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.LogLevelName) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
