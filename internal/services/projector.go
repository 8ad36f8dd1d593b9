// Package services projects federated service providers out of a metadata
// snapshot.
package services

import (
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"idprest/internal/rest"
	"idprest/pkg/logger"
	"idprest/pkg/metadata"
)

// Service is the presentation view of one service provider. Fields with no
// metadata source are left out of the JSON.
type Service struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	IconURL     string `json:"iconUrl,omitempty"`
	Description string `json:"description,omitempty"`
	ServiceURL  string `json:"serviceUrl"`
	SSOURL      string `json:"ssoUrl,omitempty"`
}

type Projector struct {
	unsolicitedURL string
	log            *zap.SugaredLogger
}

// NewProjector builds a projector. A blank unsolicitedURL disables SSO URLs.
func NewProjector(unsolicitedURL string, log *zap.SugaredLogger) *Projector {
	return &Projector{unsolicitedURL: strings.TrimSpace(unsolicitedURL), log: logger.OrNop(log)}
}

// Project walks every entity of snap and returns the services whose first
// role is an SPSSODescriptor. Every resolver in the chain must be iterable.
func (p *Projector) Project(snap *metadata.Snapshot, lang string) ([]Service, error) {
	out := []Service{}
	if snap == nil {
		return out, nil
	}
	for i, r := range snap.Resolvers {
		it, ok := r.(metadata.Iterable)
		if !ok {
			return nil, fmt.Errorf("resolver %d (%s) cannot be iterated: %w", i, r.Name(), rest.ErrUpstreamUnavailable)
		}
		for _, e := range it.Entities() {
			svc, ok := p.project(e, lang)
			if !ok {
				continue
			}
			out = append(out, svc)
		}
	}
	return out, nil
}

func (p *Projector) project(e metadata.EntityDescriptor, lang string) (Service, bool) {
	if len(e.Roles) == 0 || !e.Roles[0].IsServiceProvider() {
		return Service{}, false
	}
	svc := Service{ID: e.EntityID}
	if ui := e.Roles[0].UIInfo(); ui != nil {
		svc.Title = pickValue(ui.DisplayNames, lang)
		svc.Description = pickValue(ui.Descriptions, lang)
		svc.ServiceURL = pickValue(ui.InformationURLs, lang)
		svc.IconURL = pickLogo(ui.Logos, lang)
	}
	if p.unsolicitedURL != "" {
		svc.SSOURL = ssoURL(p.unsolicitedURL, e.EntityID)
	}
	if isBlank(svc.ID) || isBlank(svc.Title) || isBlank(svc.ServiceURL) {
		p.log.Debugw("skipping incomplete service", "entityID", e.EntityID)
		return Service{}, false
	}
	return svc, true
}

// pickValue prefers the entry in lang and falls back to the first entry.
// Values are returned as published.
func pickValue(values []metadata.LocalizedValue, lang string) string {
	if len(values) == 0 {
		return ""
	}
	for _, v := range values {
		if lang != "" && strings.EqualFold(v.Lang, lang) {
			return v.Value
		}
	}
	return values[0].Value
}

func pickLogo(logos []metadata.Logo, lang string) string {
	if len(logos) == 0 {
		return ""
	}
	for _, l := range logos {
		if lang != "" && strings.EqualFold(l.Lang, lang) {
			return l.URL
		}
	}
	return logos[0].URL
}

func ssoURL(template, entityID string) string {
	sep := "?"
	if strings.Contains(template, "?") {
		sep = "&"
	}
	return template + sep + "providerId=" + url.QueryEscape(entityID)
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
