package config

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	loadMetricOnce sync.Once
	loadCounter    metric.Int64Counter
)

// recordConfigLoadEvent counts Load outcomes so a deploy with a broken
// environment shows up on a dashboard before the crash loop does. cfg is nil
// when parsing or validation failed.
func recordConfigLoadEvent(ctx context.Context, cfg *Config, err error) {
	loadMetricOnce.Do(func() {
		counter, cerr := otel.Meter("breads-rest-api").Int64Counter("config.load.events")
		if cerr == nil {
			loadCounter = counter
		}
	})
	if loadCounter == nil {
		return
	}
	profile := "unknown"
	if cfg != nil {
		profile = normalizeConfigProfile(cfg.Env)
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	loadCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("profile", profile),
		attribute.String("outcome", outcome),
		attribute.String("error_class", classifyConfigLoadError(err)),
	))
}
