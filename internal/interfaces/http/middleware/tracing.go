package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// Tracing returns OpenTelemetry tracing middleware.
func Tracing(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanErrorMarker annotates the request span with the request id and
// the originating store, and marks it with error status for 4xx/5xx
// responses. Must run inside the Tracing middleware, after it in the
// chain, while the span is still recording.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if requestID := c.GetString(RequestIDKey); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if storeID := c.GetString("store_id"); storeID != "" {
			span.SetAttributes(attribute.String("store_id", storeID))
		}

		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			msg := "Client Error"
			if status >= http.StatusInternalServerError {
				msg = "Server Error"
			}
			span.SetStatus(codes.Error, msg)
			span.SetAttributes(attribute.Int("http.status_code", status))
		}
	}
}
