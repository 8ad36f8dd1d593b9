package flows

import "strings"

const (
	// APINamespace prefixes every principal that marks a flow as served by this API.
	APINamespace = "urn:mpass.id:"
	// TagNamespace prefixes principals that carry a descriptive tag id.
	TagNamespace = APINamespace + "authntag:"
)

// MarkerKind discriminates the capability markers a flow can carry.
type MarkerKind int

const (
	MarkerOther MarkerKind = iota // outside the API namespace
	MarkerAPI                     // urn:mpass.id:*
	MarkerTag                     // urn:mpass.id:authntag:<tag>
)

// Marker is a supported principal decoded once at ingestion.
type Marker struct {
	Kind MarkerKind
	Tag  string // set for MarkerTag
	Raw  string
}

// ParseMarker classifies a raw principal name.
func ParseMarker(raw string) Marker {
	switch {
	case strings.HasPrefix(raw, TagNamespace):
		return Marker{Kind: MarkerTag, Tag: raw[len(TagNamespace):], Raw: raw}
	case strings.HasPrefix(raw, APINamespace):
		return Marker{Kind: MarkerAPI, Raw: raw}
	default:
		return Marker{Kind: MarkerOther, Raw: raw}
	}
}

// ParseMarkers decodes a list of raw principals, preserving order.
func ParseMarkers(raw []string) []Marker {
	out := make([]Marker, 0, len(raw))
	for _, r := range raw {
		out = append(out, ParseMarker(r))
	}
	return out
}

// InAPINamespace reports whether the marker belongs to this API. Tag markers
// live inside the API namespace and count too.
func (m Marker) InAPINamespace() bool { return m.Kind == MarkerAPI || m.Kind == MarkerTag }

// Descriptor represents one authentication flow of the identity provider.
type Descriptor struct {
	ID           string   // raw flow id, e.g. authn/Password
	Markers      []Marker // supported principals, in configuration order
	ForcedAuthn  bool     // supports forced re-authentication
	PassiveAuthn bool     // supports passive authentication
}
