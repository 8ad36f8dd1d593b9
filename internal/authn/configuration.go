// Package authn aggregates the identity provider's authentication flows into
// localized source and tag listings.
package authn

import (
	"errors"
	"strings"

	"idprest/pkg/config"
)

// Catalog resolves a message key for a locale. Implementations return some
// fallback (typically the key) for unmapped keys rather than failing.
type Catalog interface {
	Message(key, locale string) string
}

// Properties is the key/value store for per-flow and per-tag settings such as
// "<id>.title", "<id>.iconUrl" and "<id>.isRegistry".
type Properties map[string]string

// Lookup returns the value stored for key.
func (p Properties) Lookup(key string) (string, bool) {
	v, ok := p[key]
	return v, ok
}

// Get returns the value stored for key or def when the key is absent.
func (p Properties) Get(key, def string) string {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// Bool is true when the value for key equals "true" ignoring case.
func (p Properties) Bool(key string) bool {
	return strings.EqualFold(strings.TrimSpace(p[key]), "true")
}

// Configuration is the immutable deployment input of both aggregators.
type Configuration struct {
	SupportedLocales  []string // upper case, index 0 is the default
	ActiveFlowIDs     []string // nil when nothing is configured active
	IgnoredFlowIDs    []string
	Properties        Properties
	UnsolicitedSSOURL string
	StrictTagTitles   bool
}

var ErrNoSupportedLocales = errors.New("the list of supported locales cannot be empty")

// NewConfiguration derives the aggregation configuration from the catalog.
// A non-empty activeOverride ("a|b|c") replaces the catalog's active flow ids.
func NewConfiguration(c config.Catalog, activeOverride string) (Configuration, error) {
	if len(c.SupportedLocales) == 0 {
		return Configuration{}, ErrNoSupportedLocales
	}
	locales := make([]string, 0, len(c.SupportedLocales))
	for _, l := range c.SupportedLocales {
		locales = append(locales, strings.ToUpper(strings.TrimSpace(l)))
	}
	active := []string(c.ActiveFlowIDs)
	if strings.TrimSpace(activeOverride) != "" {
		active = config.ParseFlowIDs(activeOverride)
	}
	props := Properties{}
	for k, v := range c.Properties {
		props[k] = v
	}
	return Configuration{
		SupportedLocales:  locales,
		ActiveFlowIDs:     active,
		IgnoredFlowIDs:    c.IgnoredFlowIDs,
		Properties:        props,
		UnsolicitedSSOURL: c.UnsolicitedSSOURL,
		StrictTagTitles:   c.StrictTagTitles,
	}, nil
}
