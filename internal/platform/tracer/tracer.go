// Package tracer provides a lightweight tracing abstraction for enrolment steps.
//
// Steps talk to the Tracer interface rather than OpenTelemetry directly, so
// tests can run with NoopTracer and production wires OTelTracer against the
// global provider.
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err when non-nil.
	// End must be called exactly once, typically via defer.
	End(err error)

	// SetAttributes adds key-value pairs to the span.
	SetAttributes(attrs ...Attribute)

	// AddEvent records a timestamped event within the span.
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans.
type Tracer interface {
	// Start creates a new span with the given name and attributes.
	// The returned context carries the span for child operations.
	//
	// Example:
	//   ctx, span := t.Start(ctx, tracer.SpanEnrolToken,
	//       tracer.String(tracer.AttrUsername, username),
	//   )
	//   defer func() { span.End(err) }()
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Int creates an int attribute.
func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanRun         = "enrol.run"
	SpanEnrolToken  = "iproov.enrol_token"
	SpanEnrolImage  = "iproov.enrol_image"
	SpanAccessToken = "iproov.access_token"
	SpanDeleteUser  = "iproov.delete_user"
)

// Attribute keys.
const (
	AttrRunID      = "run.id"
	AttrUsername   = "enrol.username"
	AttrDeleteUser = "enrol.delete_user"
	AttrStatusCode = "http.response.status_code"
	AttrMethod     = "http.request.method"
	AttrURL        = "url.full"
	AttrImageBytes = "enrol.image_bytes"
)

// Event names.
const (
	EventClassified = "response.classified"
)
