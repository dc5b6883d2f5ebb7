package tracing

import (
	"net/http"
	"strings"
	"time"

	obscontext "github.com/actorhub/actorhub/internal/observability/context"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware opens a server span per request and names it after the matched route.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("actorhub/http")
	return func(c *gin.Context) {
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		ctx, span := tracer.Start(ctx, "HTTP "+strings.ToUpper(c.Request.Method), trace.WithSpanKind(trace.SpanKindServer))

		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			if member, err := baggage.NewMember("request_id", requestID); err == nil {
				if bag, err := baggage.New(member); err == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}
		}
		if kind, _ := obscontext.ActorFromContext(ctx); kind != "" {
			span.SetAttributes(attribute.String("actor.type", kind))
		}

		c.Request = c.Request.WithContext(ctx)
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		span.SetName("HTTP " + strings.ToUpper(c.Request.Method) + " " + route)
		span.SetAttributes(SafeAttributes(
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.Int64("http.server_duration_ms", time.Since(start).Milliseconds()),
		)...)

		status := c.Writer.Status()
		if lastErr := c.Errors.Last(); lastErr != nil && status >= http.StatusBadRequest {
			// rule rejections are recorded as events, only 5xx mark the span failed
			span.RecordError(SafeError(lastErr.Err))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, "request error")
		}
		span.End()
	}
}
