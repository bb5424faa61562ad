package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// ServiceInfo identifies this process on every exported span and metric.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}

func (s ServiceInfo) resource() (*resource.Resource, error) {
	version := s.Version
	if version == "" {
		version = "dev"
	}
	attrs := []attribute.KeyValue{
		semconv.ServiceName(s.Name),
		semconv.ServiceVersion(version),
	}
	if s.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment.name", s.Environment))
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
