// Package meta publishes static information about this identity provider.
package meta

import (
	"context"

	"idprest/pkg/config"
)

// Info is serialized as is, without the localized envelope.
type Info struct {
	ID                 string `json:"id"`
	SAMLEntityID       string `json:"saml_entity_id"`
	SAMLMetadataURL    string `json:"saml_metadata_url"`
	Name               string `json:"name"`
	Organization       string `json:"organisation"`
	CountryCode        string `json:"country_code"`
	ServiceDescription string `json:"service_description"`
	ContactEmail       string `json:"contact_email"`
}

// FromSpec returns nil when the catalog has no meta section.
func FromSpec(s *config.MetaSpec) *Info {
	if s == nil {
		return nil
	}
	return &Info{
		ID:                 s.ID,
		SAMLEntityID:       s.SAMLEntityID,
		SAMLMetadataURL:    s.SAMLMetadataURL,
		Name:               s.Name,
		Organization:       s.Organization,
		CountryCode:        s.CountryCode,
		ServiceDescription: s.ServiceDescription,
		ContactEmail:       s.ContactEmail,
	}
}

// Resolver serves a fixed Info regardless of locale.
type Resolver struct {
	info *Info
}

func NewResolver(info *Info) Resolver { return Resolver{info: info} }

func (r Resolver) Resolve(_ context.Context, _ string) (any, error) {
	if r.info == nil {
		return nil, nil
	}
	return r.info, nil
}
