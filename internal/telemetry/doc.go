// Package telemetry wires the ambient observability stack: structured
// logging via go.uber.org/zap, keyed off Configuration.LogLevel, and an
// OpenTelemetry TracerProvider keyed off Configuration.Telemetry, plus an
// HTTP access-log middleware.
//
// # Tracer endpoint dispatch
//
// Configuration.Telemetry.TracingEndpoint follows
// original_source/storm-tape/src/tracer_provider.cpp: a "file://" prefix
// opens the named file and exports spans to it as they complete (no
// batching, easy to inspect); any http(s):// endpoint is treated as an
// OTLP/gRPC collector address and spans are batched before export.
package telemetry
