package otelhelper

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SetError marks a canvas or workflow span as failed: the error is recorded,
// the span status set from its message, and an operation_failed event
// appended carrying the identifying attributes (workflow id, node id, and
// the like) so failed compiles and saves can be filtered in the trace UI.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent("flowplane.operation_failed", trace.WithAttributes(attrs...))
}
