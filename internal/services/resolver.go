package services

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"idprest/internal/rest"
	"idprest/pkg/logger"
	"idprest/pkg/metadata"
	"idprest/pkg/metrics"
)

var tracer = otel.Tracer("idprest/services")

// SnapshotSource hands out pinned metadata snapshots.
type SnapshotSource interface {
	Acquire() (*metadata.Pin, error)
}

// Resolver serves the services listing. The pinned snapshot is released on
// every path before Resolve returns.
type Resolver struct {
	source    SnapshotSource
	projector *Projector
	metrics   *metrics.Metrics
	log       *zap.SugaredLogger
}

func NewResolver(source SnapshotSource, projector *Projector, m *metrics.Metrics, log *zap.SugaredLogger) *Resolver {
	return &Resolver{source: source, projector: projector, metrics: m, log: logger.OrNop(log)}
}

func (r *Resolver) Resolve(ctx context.Context, locale string) (any, error) {
	_, span := tracer.Start(ctx, "services.project")
	defer span.End()

	if r.source == nil {
		return nil, fmt.Errorf("no metadata source configured: %w", rest.ErrUpstreamUnavailable)
	}
	pin, err := r.source.Acquire()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", rest.ErrUpstreamUnavailable, err)
	}
	defer pin.Release()

	out, err := r.projector.Project(pin.Snapshot(), strings.ToLower(locale))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("services.count", len(out)))
	r.metrics.SetProjectedServices(len(out))
	return out, nil
}
