// pkg/flows/memory.go
package flows

import (
	"context"

	"go.uber.org/zap"

	"idprest/pkg/config"
	"idprest/pkg/logger"
)

type memProvider struct {
	log   *zap.SugaredLogger
	flows []Descriptor
	byID  map[string]int
}

// NewMemoryProvider serves the flows declared in the catalog file.
func NewMemoryProvider(specs []config.FlowSpec, log *zap.SugaredLogger) Provider {
	log = logger.OrNop(log)
	p := &memProvider{log: log, byID: map[string]int{}}
	for _, s := range specs {
		if s.ID == "" {
			log.Warnw("skipping flow without id", "principals", s.Principals)
			continue
		}
		if _, dup := p.byID[s.ID]; dup {
			log.Warnw("duplicate flow id, keeping the first", "id", s.ID)
			continue
		}
		p.byID[s.ID] = len(p.flows)
		p.flows = append(p.flows, FromSpec(s))
	}
	log.Debugw("memory flow registry ready", "flows", len(p.flows))
	return p
}

// FromSpec converts a catalog flow entry into a Descriptor.
func FromSpec(s config.FlowSpec) Descriptor {
	return Descriptor{
		ID:           s.ID,
		Markers:      ParseMarkers(s.Principals),
		ForcedAuthn:  s.ForcedAuthn,
		PassiveAuthn: s.PassiveAuthn,
	}
}

func (m *memProvider) ListFlows(ctx context.Context) ([]Descriptor, error) {
	out := make([]Descriptor, len(m.flows))
	copy(out, m.flows)
	return out, nil
}

func (m *memProvider) GetFlow(ctx context.Context, id string) (Descriptor, error) {
	if i, ok := m.byID[id]; ok {
		return m.flows[i], nil
	}
	return Descriptor{}, ErrFlowNotFound
}
