package flows

import (
	"context"
	"errors"
)

var ErrFlowNotFound = errors.New("flow not found")

type Provider interface {
	// All flows known to the identity provider, in registry order.
	ListFlows(ctx context.Context) ([]Descriptor, error)
	// Single flow by raw id
	GetFlow(ctx context.Context, id string) (Descriptor, error)
}
