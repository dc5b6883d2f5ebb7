package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes business-rule instruments pushed over OTLP.
type Metrics struct {
	mutations        metric.Int64Counter
	ruleRejections   metric.Int64Counter
	cascadeRows      metric.Int64Counter
	aggregateUpdates metric.Int64Counter
	auditEntries     metric.Int64Counter
	driftCorrected   metric.Int64Counter
	rateLimit        metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}
	return provider, nil
}

// New creates the rule engine instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "actorhub"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	if m.mutations, err = meter.Int64Counter("actorhub_mutations_total"); err != nil {
		return nil, err
	}
	if m.ruleRejections, err = meter.Int64Counter("actorhub_rule_rejections_total"); err != nil {
		return nil, err
	}
	if m.cascadeRows, err = meter.Int64Counter("actorhub_cascade_rows_total"); err != nil {
		return nil, err
	}
	if m.aggregateUpdates, err = meter.Int64Counter("actorhub_aggregate_updates_total"); err != nil {
		return nil, err
	}
	if m.auditEntries, err = meter.Int64Counter("actorhub_audit_entries_total"); err != nil {
		return nil, err
	}
	if m.driftCorrected, err = meter.Int64Counter("actorhub_drift_corrected_total"); err != nil {
		return nil, err
	}
	if m.rateLimit, err = meter.Int64Counter("actorhub_rate_limit_decisions_total"); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecordMutation counts a committed mutation on an entity.
func (m *Metrics) RecordMutation(ctx context.Context, entity, action string) {
	if m == nil {
		return
	}
	m.mutations.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("entity", entity),
		attribute.String("action", action),
	)...))
}

// RecordRuleRejection counts a rejected mutation by error kind and rule code.
func (m *Metrics) RecordRuleRejection(ctx context.Context, kind, code string) {
	if m == nil {
		return
	}
	m.ruleRejections.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("kind", kind),
		attribute.String("code", code),
	)...))
}

// RecordCascade counts rows touched by a soft-delete cascade.
func (m *Metrics) RecordCascade(ctx context.Context, entity string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.cascadeRows.Add(ctx, rows, metric.WithAttributes(FilterAttributes(
		attribute.String("entity", entity),
	)...))
}

func (m *Metrics) RecordAggregateUpdate(ctx context.Context, counter string) {
	if m == nil {
		return
	}
	m.aggregateUpdates.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("counter", counter),
	)...))
}

func (m *Metrics) RecordAuditEntry(ctx context.Context, table, action string) {
	if m == nil {
		return
	}
	m.auditEntries.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("entity", table),
		attribute.String("action", action),
	)...))
}

// RecordDriftCorrected counts rows rewritten by reconciliation.
func (m *Metrics) RecordDriftCorrected(ctx context.Context, counter string, rows int64) {
	if m == nil || rows <= 0 {
		return
	}
	m.driftCorrected.Add(ctx, rows, metric.WithAttributes(FilterAttributes(
		attribute.String("counter", counter),
	)...))
}

// RecordRateLimitAllowed counts an ingest request admitted by the limiter.
func (m *Metrics) RecordRateLimitAllowed(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.rateLimit.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("decision", "allowed"),
	)...))
}

func (m *Metrics) RecordRateLimitDenied(ctx context.Context, endpoint, reason string) {
	if m == nil {
		return
	}
	m.rateLimit.Add(ctx, 1, metric.WithAttributes(FilterAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("decision", "denied"),
		attribute.String("reason", reason),
	)...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"entity":   {},
	"action":   {},
	"kind":     {},
	"code":     {},
	"counter":  {},
	"endpoint": {},
	"decision": {},
	"reason":   {},
}

// FilterAttributes strips labels that would blow up cardinality, such as entity ids.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}
