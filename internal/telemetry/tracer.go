package telemetry

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const fileScheme = "file://"

// TracerProvider owns the OpenTelemetry SDK provider and, for a
// file-backed endpoint, the file it writes spans to. Shutdown must be
// called to flush and release it.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	file     *os.File
}

// NewTracerProvider configures global tracing for serviceName, exporting
// to endpoint: a "file://" endpoint opens that file and exports every
// span as it ends; anything else is treated as an OTLP/gRPC collector
// address and spans are batched.
func NewTracerProvider(ctx context.Context, serviceName, endpoint string) (*TracerProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName)),
		resource.WithHost(),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	tp := &TracerProvider{}

	var opts []sdktrace.TracerProviderOption
	opts = append(opts, sdktrace.WithResource(res))

	if strings.HasPrefix(endpoint, fileScheme) {
		path := strings.TrimPrefix(endpoint, fileScheme)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("telemetry: open tracing file '%s': %w", path, err)
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("telemetry: build file exporter: %w", err)
		}
		tp.file = f
		opts = append(opts, sdktrace.WithSyncer(exporter), sdktrace.WithSampler(sdktrace.AlwaysSample()))
	} else {
		target := strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
		grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
		if !strings.HasPrefix(endpoint, "https://") {
			grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, fmt.Errorf("telemetry: build otlp exporter: %w", err)
		}
		opts = append(opts,
			sdktrace.WithBatcher(exporter),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
		)
	}

	tp.provider = sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp.provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp, nil
}

// Tracer returns the named tracer from the global provider this call
// configured.
func (tp *TracerProvider) Tracer(name string) trace.Tracer {
	return tp.provider.Tracer(name)
}

// Shutdown flushes pending spans and releases the tracing file, if any.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	err := tp.provider.Shutdown(ctx)
	if tp.file != nil {
		if cerr := tp.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
