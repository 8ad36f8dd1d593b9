package authn

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"idprest/pkg/flows"
)

// flowIDPrefix is the structural scope token in front of every flow id.
const flowIDPrefix = "authn/"

// StripID removes the "authn/" prefix from a raw flow id. The stripped id is
// used for every comparison, property lookup and output value.
func StripID(raw string) string {
	return strings.TrimPrefix(raw, flowIDPrefix)
}

// Filter decides which flows this API exposes.
type Filter struct {
	active  map[string]struct{}
	ignored map[string]struct{}
}

func NewFilter(cfg Configuration) Filter {
	f := Filter{active: map[string]struct{}{}, ignored: map[string]struct{}{}}
	for _, id := range cfg.ActiveFlowIDs {
		f.active[id] = struct{}{}
	}
	for _, id := range cfg.IgnoredFlowIDs {
		f.ignored[id] = struct{}{}
	}
	return f
}

// IsExposed reports whether flow, known by its stripped id, is active, carries
// a marker in the API namespace and is not ignored. Flows without any marker
// are never exposed.
func (f Filter) IsExposed(flow flows.Descriptor, id string) bool {
	if _, ok := f.active[id]; !ok {
		return false
	}
	if !belongsToAPI(flow) {
		return false
	}
	_, ignored := f.ignored[id]
	return !ignored
}

func belongsToAPI(flow flows.Descriptor) bool {
	for _, m := range flow.Markers {
		if m.InAPINamespace() {
			return true
		}
	}
	return false
}

// exposedFlow pairs a flow with its stripped id.
type exposedFlow struct {
	id   string
	flow flows.Descriptor
}

// exposed filters all in registry order.
func exposed(f Filter, all []flows.Descriptor) []exposedFlow {
	var out []exposedFlow
	for _, fl := range all {
		id := StripID(fl.ID)
		if f.IsExposed(fl, id) {
			out = append(out, exposedFlow{id: id, flow: fl})
		}
	}
	return out
}

// FlowLookup finds a single flow by its raw id.
type FlowLookup interface {
	GetFlow(ctx context.Context, id string) (flows.Descriptor, error)
}

// UnknownActiveFlows returns the active, non-ignored flow ids that the
// registry does not know. Such ids are silently never exposed, so callers
// usually warn about them at startup.
func UnknownActiveFlows(ctx context.Context, cfg Configuration, registry FlowLookup) ([]string, error) {
	f := NewFilter(cfg)
	var missing []string
	for _, id := range cfg.ActiveFlowIDs {
		if _, ignored := f.ignored[id]; ignored {
			continue
		}
		_, err := registry.GetFlow(ctx, flowIDPrefix+id)
		if errors.Is(err, flows.ErrFlowNotFound) {
			missing = append(missing, id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("look up flow %q: %w", id, err)
		}
	}
	return missing, nil
}
