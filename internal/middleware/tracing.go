package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/harshal20m/storeratings/internal/config"
)

// TracingMiddleware provides OpenTelemetry distributed tracing
type TracingMiddleware struct {
	config     *config.TracingConfig
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

// NewTracingMiddleware creates a new tracing middleware
func NewTracingMiddleware(cfg *config.TracingConfig) (*TracingMiddleware, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tracing config cannot be nil")
	}

	return &TracingMiddleware{
		config:     cfg,
		tracer:     otel.Tracer("storeratings"),
		propagator: otel.GetTextMapPropagator(),
	}, nil
}

// Handler returns the gin middleware handler.
func (m *TracingMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.config.Enabled {
			c.Next()
			return
		}

		r := c.Request
		ctx := m.propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		spanName := fmt.Sprintf("%s %s", r.Method, c.FullPath())
		ctx, span := m.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.host", r.Host),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		c.Request = r.WithContext(ctx)
		c.Next()

		span.SetAttributes(
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.Int("http.response_size", c.Writer.Size()),
		)
	}
}
