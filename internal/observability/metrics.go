package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/avezina/identity-service/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
	"go.opentelemetry.io/otel/sdk/resource"
)

type AppMetrics struct {
	registrationCounter  metric.Int64Counter
	signInCounter        metric.Int64Counter
	tokenIssuedCounter   metric.Int64Counter
	tokenVerifiedCounter metric.Int64Counter
	sessionEventCounter  metric.Int64Counter
	sessionsRevoked      metric.Float64Histogram
	mailDeliveryCounter  metric.Int64Counter
	authReqDuration      metric.Float64Histogram
	healthCheckCounter   metric.Int64Counter
	healthCheckDuration  metric.Float64Histogram
	toolCommandCounter   metric.Int64Counter
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", cfg.OTELServiceName),
			attribute.String("deployment.environment", cfg.OTELEnvironment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	meter := mp.Meter("identity-service")
	registrationCounter, err := meter.Int64Counter("auth.registrations")
	if err != nil {
		return nil, err
	}
	signInCounter, err := meter.Int64Counter("auth.sign_in.attempts")
	if err != nil {
		return nil, err
	}
	tokenIssuedCounter, err := meter.Int64Counter("token.issued")
	if err != nil {
		return nil, err
	}
	tokenVerifiedCounter, err := meter.Int64Counter("token.verified")
	if err != nil {
		return nil, err
	}
	sessionEventCounter, err := meter.Int64Counter("session.events")
	if err != nil {
		return nil, err
	}
	sessionsRevoked, err := meter.Float64Histogram(
		"session.revoked.count",
		metric.WithDescription("Number of sessions revoked per action"),
	)
	if err != nil {
		return nil, err
	}
	mailDeliveryCounter, err := meter.Int64Counter("mail.deliveries")
	if err != nil {
		return nil, err
	}
	authReqDuration, err := meter.Float64Histogram(
		"auth.request.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of auth endpoint requests in seconds"),
	)
	if err != nil {
		return nil, err
	}
	healthCheckCounter, err := meter.Int64Counter("health.check.results")
	if err != nil {
		return nil, err
	}
	healthCheckDuration, err := meter.Float64Histogram(
		"health.check.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of health dependency checks in seconds"),
	)
	if err != nil {
		return nil, err
	}
	toolCommandCounter, err := meter.Int64Counter("tool.command.runs")
	if err != nil {
		return nil, err
	}

	metricsMu.Lock()
	appMetrics = &AppMetrics{
		registrationCounter:  registrationCounter,
		signInCounter:        signInCounter,
		tokenIssuedCounter:   tokenIssuedCounter,
		tokenVerifiedCounter: tokenVerifiedCounter,
		sessionEventCounter:  sessionEventCounter,
		sessionsRevoked:      sessionsRevoked,
		mailDeliveryCounter:  mailDeliveryCounter,
		authReqDuration:      authReqDuration,
		healthCheckCounter:   healthCheckCounter,
		healthCheckDuration:  healthCheckDuration,
		toolCommandCounter:   toolCommandCounter,
	}
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func current() *AppMetrics {
	metricsMu.RLock()
	defer metricsMu.RUnlock()
	return appMetrics
}

func RecordRegistration(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.registrationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordSignIn(ctx context.Context, status string) {
	m := current()
	if m == nil {
		return
	}
	m.signInCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

func RecordTokenIssued(ctx context.Context, kind, status string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenIssuedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

func RecordTokenVerified(ctx context.Context, kind, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.tokenVerifiedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func RecordSessionEvent(ctx context.Context, action, status string) {
	m := current()
	if m == nil {
		return
	}
	m.sessionEventCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", action),
		attribute.String("status", status),
	))
}

func RecordSessionsRevoked(ctx context.Context, action string, count int64) {
	m := current()
	if m == nil {
		return
	}
	m.sessionsRevoked.Record(ctx, float64(count), metric.WithAttributes(
		attribute.String("action", action),
	))
}

func RecordMailDelivery(ctx context.Context, kind, status string) {
	m := current()
	if m == nil {
		return
	}
	m.mailDeliveryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("status", status),
	))
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	m := current()
	if m == nil {
		return
	}
	m.healthCheckCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("check", check),
		attribute.String("outcome", outcome),
	))
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	m := current()
	if m == nil {
		return
	}
	m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("check", check),
	))
}

func RecordToolCommandRun(ctx context.Context, command, status string) {
	m := current()
	if m == nil {
		return
	}
	m.toolCommandCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	))
}
