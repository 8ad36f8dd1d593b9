package authn

import "idprest/pkg/flows"

// TagsOf returns the tag ids carried by the flow's markers in marker order.
// Repeats are kept.
func TagsOf(flow flows.Descriptor) []string {
	tags := []string{}
	for _, m := range flow.Markers {
		if m.Kind == flows.MarkerTag {
			tags = append(tags, m.Tag)
		}
	}
	return tags
}
