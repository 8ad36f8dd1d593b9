// Package api wires the discovery endpoints onto a router.
package api

import (
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"idprest/internal/authn"
	"idprest/internal/meta"
	"idprest/internal/rest"
	"idprest/pkg/openapi"
)

const (
	PathSources  = "/v1/authnsources"
	PathTags     = "/v1/authntags"
	PathServices = "/v1/services"
	PathMeta     = "/v1/meta"

	version = "1.0.0"
)

// Deps are the collaborators of the discovery endpoints. Nil indexes and a
// nil Services resolver make the corresponding endpoint answer 501.
type Deps struct {
	Locales  rest.Locales
	Sources  *authn.SourceIndex
	Tags     *authn.TagIndex
	Services rest.PayloadResolver
	Meta     *meta.Info
	Secured  bool
	Log      *zap.SugaredLogger
}

// RegisterRoutes mounts every endpoint for all methods so that non-GET
// requests get the API's own 405 body.
func RegisterRoutes(r chi.Router, d Deps) {
	services := d.Services
	if services == nil {
		services = rest.ResolverFunc(func(context.Context, string) (any, error) { return nil, nil })
	}
	r.Handle(PathSources, rest.NewHandler("authnsources", d.Locales, sourcesResolver(d.Sources), d.Log))
	r.Handle(PathTags, rest.NewHandler("authntags", d.Locales, tagsResolver(d.Tags), d.Log))
	r.Handle(PathServices, rest.NewHandler("services", d.Locales, services, d.Log))
	r.Handle(PathMeta, rest.NewHandler("meta", d.Locales, meta.NewResolver(d.Meta), d.Log, rest.WithoutEnvelope(), rest.WithoutLocale()))
	r.Get("/openapi.json", Registry().ServeHandler("idp-rest-service", version, d.Locales.Supported(), d.Secured))
}

// The adapters return an untyped nil for unknown locales so the handler can
// tell "nothing to serve" apart from an empty listing.
func sourcesResolver(idx *authn.SourceIndex) rest.ResolverFunc {
	return func(_ context.Context, locale string) (any, error) {
		if idx == nil {
			return nil, nil
		}
		if out := idx.Response(locale); out != nil {
			return out, nil
		}
		return nil, nil
	}
}

func tagsResolver(idx *authn.TagIndex) rest.ResolverFunc {
	return func(_ context.Context, locale string) (any, error) {
		if idx == nil {
			return nil, nil
		}
		if out := idx.Response(locale); out != nil {
			return out, nil
		}
		return nil, nil
	}
}

// Registry describes the discovery endpoints for /openapi.json.
func Registry() *openapi.Registry {
	reg := openapi.NewRegistry()
	str := map[string]any{"type": "string"}
	boolean := map[string]any{"type": "boolean"}
	reg.Schema("AuthnSource", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": str, "title": str, "iconUrl": str,
			"tags":                     map[string]any{"type": "array", "items": str},
			"directRegistryConnection": boolean,
			"supportsForced":           boolean,
			"supportsPassive":          boolean,
		},
	})
	reg.Schema("AuthnTag", map[string]any{
		"type":       "object",
		"properties": map[string]any{"id": str, "title": str},
	})
	reg.Schema("Service", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": str, "title": str, "iconUrl": str, "description": str, "serviceUrl": str, "ssoUrl": str,
		},
		"required": []string{"id", "title", "serviceUrl"},
	})
	reg.Schema("MetaInfo", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id": str, "saml_entity_id": str, "saml_metadata_url": str, "name": str,
			"organisation": str, "country_code": str, "service_description": str, "contact_email": str,
		},
	})
	reg.Register(openapi.Operation{Path: PathSources, Summary: "List authentication sources", Tags: []string{"authn"}, Localized: true, Schema: "AuthnSource", List: true})
	reg.Register(openapi.Operation{Path: PathTags, Summary: "List authentication source tags", Tags: []string{"authn"}, Localized: true, Schema: "AuthnTag", List: true})
	reg.Register(openapi.Operation{Path: PathServices, Summary: "List federated services", Tags: []string{"services"}, Localized: true, Schema: "Service", List: true})
	reg.Register(openapi.Operation{Path: PathMeta, Summary: "Identity provider information", Tags: []string{"meta"}, Schema: "MetaInfo"})
	return reg
}
