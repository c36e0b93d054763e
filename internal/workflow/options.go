package workflow

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets where execution summaries and persisted step output go.
func WithSink(s Sink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithCredential sets the credential handed to the session factory.
func WithCredential(credential string) Option {
	return func(e *Engine) {
		e.credential = credential
	}
}

// WithNamespace sets the namespace discovered by New.
func WithNamespace(ns Namespace) Option {
	return func(e *Engine) {
		e.namespace = ns
	}
}

// WithRegistry lets callers share or pre-populate a registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithSessionFactory sets how the shared sandbox session is opened.
func WithSessionFactory(f SessionFactory) Option {
	return func(e *Engine) {
		e.factory = f
	}
}

// WithLogger sets the engine logger.
func WithLogger(l Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMeter sets the meter used for execution metrics.
func WithMeter(m metric.Meter) Option {
	return func(e *Engine) {
		e.meter = m
	}
}

// WithTracer sets the tracer used for execution spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}
