package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

const ServiceName = "backoffice-api"

type Controller struct {
	traceProvider *sdktrace.TracerProvider
}

// endpoint が空ならグローバルの no-op プロバイダのまま
func Init(endpoint string) (*Controller, error) {
	if endpoint == "" {
		return &Controller{}, nil
	}

	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(
		jaeger.WithEndpoint(endpoint),
	))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(ServiceName),
		)),
	)
	otel.SetTracerProvider(tp)

	return &Controller{traceProvider: tp}, nil
}

func (c *Controller) Shutdown(ctx context.Context) error {
	if c == nil || c.traceProvider == nil {
		return nil
	}
	return c.traceProvider.Shutdown(ctx)
}
