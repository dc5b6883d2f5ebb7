package tracing

import (
	"context"
	"errors"
	"time"

	obscontext "github.com/actorhub/actorhub/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures span export.
type Config struct {
	Enabled          bool
	ServiceName      string
	ServiceVersion   string
	Environment      string
	ExporterEndpoint string
	SamplingRatio    float64
}

// NewProvider installs the global tracer provider. When export is disabled spans are
// still created so request ids and trace ids correlate in logs, but nothing leaves the process.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (*sdktrace.TracerProvider, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, err
	}

	ratio := cfg.SamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		sdktrace.WithSpanProcessor(&requestIDSpanProcessor{}),
	}

	if cfg.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if cfg.ExporterEndpoint != "" {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithEndpoint(cfg.ExporterEndpoint))
		}
		exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return tp.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("tracing initialized",
			zap.Bool("export", cfg.Enabled),
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.Float64("sampling_ratio", ratio),
		)
	}
	return tp, nil
}

// ExtractContext pulls remote span context from inbound headers.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

var sensitiveAttributeKeys = map[attribute.Key]struct{}{
	"email":               {},
	"destination_account": {},
	"api_key":             {},
	"password":            {},
}

// SafeAttributes drops attributes that may carry personal data.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := sensitiveAttributeKeys[attr.Key]; ok {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError returns an error carrying only the message, so wrapped driver details
// such as bound parameters are not exported.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	return errors.New(err.Error())
}

type requestIDSpanProcessor struct{}

func (p *requestIDSpanProcessor) OnStart(ctx context.Context, s sdktrace.ReadWriteSpan) {
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		s.SetAttributes(attribute.String("request_id", requestID))
	}
}

func (p *requestIDSpanProcessor) OnEnd(sdktrace.ReadOnlySpan) {}

func (p *requestIDSpanProcessor) Shutdown(context.Context) error { return nil }

func (p *requestIDSpanProcessor) ForceFlush(context.Context) error { return nil }
