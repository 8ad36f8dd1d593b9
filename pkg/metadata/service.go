package metadata

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"idprest/pkg/logger"
	"idprest/pkg/metrics"
)

var ErrNoSnapshot = errors.New("no metadata snapshot loaded")

var tracer = otel.Tracer("idprest/metadata")

// Pin grants read access to a snapshot until Release is called. Release is
// safe to call more than once.
type Pin struct {
	snap    *Snapshot
	release func()
	once    sync.Once
}

func NewPin(snap *Snapshot, release func()) *Pin {
	return &Pin{snap: snap, release: release}
}

func (p *Pin) Snapshot() *Snapshot { return p.snap }

func (p *Pin) Release() {
	p.once.Do(func() {
		if p.release != nil {
			p.release()
		}
	})
}

// Service owns the current snapshot. Readers pin it with Acquire; Reload
// publishes a new one without waiting for readers, and pinned readers keep
// the snapshot they started with.
type Service struct {
	sources []Source
	log     *zap.SugaredLogger
	metrics *metrics.Metrics

	current atomic.Pointer[Snapshot]
}

func NewService(sources []Source, log *zap.SugaredLogger, m *metrics.Metrics) *Service {
	return &Service{sources: sources, log: logger.OrNop(log), metrics: m}
}

// Acquire pins the current snapshot. The caller must Release the pin.
func (s *Service) Acquire() (*Pin, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	snap.pins.Add(1)
	return NewPin(snap, func() { snap.pins.Add(-1) }), nil
}

// Reload loads every source and replaces the current snapshot. When any
// source fails the previous snapshot stays in place.
func (s *Service) Reload(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "metadata.reload")
	defer span.End()

	resolvers := make([]Resolver, 0, len(s.sources))
	for i, src := range s.sources {
		r, err := src.Load(ctx)
		if err != nil {
			err = fmt.Errorf("metadata source %d: %w", i, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "reload failed")
			s.metrics.ObserveReload(err, 0)
			return err
		}
		resolvers = append(resolvers, r)
	}
	snap := &Snapshot{Resolvers: resolvers, LoadedAt: time.Now()}
	n := snap.EntityCount()
	span.SetAttributes(attribute.Int("metadata.entities", n), attribute.Int("metadata.resolvers", len(resolvers)))

	if prev := s.current.Swap(snap); prev != nil && prev.Pins() > 0 {
		s.log.Debugw("previous metadata snapshot still pinned", "pins", prev.Pins())
	}

	s.metrics.ObserveReload(nil, n)
	s.log.Infow("metadata reloaded", "resolvers", len(resolvers), "entities", n)
	return nil
}

// Set installs snap directly. Used when the snapshot is built elsewhere.
func (s *Service) Set(snap *Snapshot) {
	s.current.Store(snap)
}

// Run reloads every interval until ctx is done. A non-positive interval
// disables periodic reloads.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Reload(ctx); err != nil {
				s.log.Warnw("periodic metadata reload failed", "err", err)
			}
		}
	}
}
