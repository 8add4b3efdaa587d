package config

import (
	"context"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	configMetricsOnce sync.Once
	configCounter     metric.Int64Counter
)

// recordConfigValidationEvent counts config load outcomes so a fleet of
// instances crash-looping on a bad secret or driver shows up as a metric,
// not just a log line.
func recordConfigValidationEvent(ctx context.Context, profile, outcome, reason string) {
	configMetricsOnce.Do(func() {
		counter, err := otel.Meter("shiplane").Int64Counter("config.load.results")
		if err == nil {
			configCounter = counter
		}
	})
	if configCounter == nil {
		return
	}
	configCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", normalizeConfigProfile(profile)),
		attribute.String("outcome", outcome),
		attribute.String("reason", reason),
	))
}

func normalizeConfigProfile(profile string) string {
	v := strings.TrimSpace(strings.ToLower(profile))
	if v == "" {
		return "unknown"
	}
	return v
}

// classifyConfigLoadError buckets a load failure by which part of the
// config surface rejected it, keyed to the validate() messages.
func classifyConfigLoadError(err error) string {
	if err == nil {
		return "none"
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "jwt_secret"):
		return "missing_jwt_secret"
	case strings.Contains(msg, "db driver"):
		return "bad_db_driver"
	case strings.Contains(msg, "ttl"):
		return "bad_token_ttl"
	case strings.Contains(msg, "github"):
		return "incomplete_oauth"
	default:
		return "invalid"
	}
}
