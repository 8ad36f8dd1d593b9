package authn

import (
	"strings"

	"go.uber.org/zap"

	"idprest/pkg/flows"
	"idprest/pkg/logger"
)

// Source describes one exposed authentication flow in one locale.
type Source struct {
	ID                       string   `json:"id"`
	Title                    string   `json:"title"`
	Tags                     []string `json:"tags"`
	IconURL                  string   `json:"iconUrl"`
	DirectRegistryConnection bool     `json:"directRegistryConnection"`
	SupportsForced           bool     `json:"supportsForced"`
	SupportsPassive          bool     `json:"supportsPassive"`
}

// SourceIndex holds the per-locale source listings. It is built once and is
// safe for concurrent reads.
type SourceIndex struct {
	byLocale map[string][]Source
}

// BuildSources materializes the source listing for every supported locale.
func BuildSources(cfg Configuration, all []flows.Descriptor, catalog Catalog, log *zap.SugaredLogger) *SourceIndex {
	log = logger.OrNop(log)
	idx := &SourceIndex{byLocale: make(map[string][]Source, len(cfg.SupportedLocales))}
	for _, locale := range cfg.SupportedLocales {
		idx.byLocale[locale] = []Source{}
	}
	if cfg.ActiveFlowIDs == nil {
		log.Warnw("no authentication flows configured to be active")
	}
	for _, ef := range exposed(NewFilter(cfg), all) {
		id := ef.id
		log.Debugw("adding flow", "id", id)
		titleKey := cfg.Properties.Get(id+".title", id+".title")
		iconKey := cfg.Properties.Get(id+".iconUrl", id+".iconUrl")
		tags := TagsOf(ef.flow)
		registry := cfg.Properties.Bool(id + ".isRegistry")
		for _, locale := range cfg.SupportedLocales {
			idx.byLocale[locale] = append(idx.byLocale[locale], Source{
				ID:                       id,
				Title:                    catalog.Message(titleKey, locale),
				Tags:                     tags,
				IconURL:                  catalog.Message(iconKey, locale),
				DirectRegistryConnection: registry,
				SupportsForced:           ef.flow.ForcedAuthn,
				SupportsPassive:          ef.flow.PassiveAuthn,
			})
		}
	}
	return idx
}

// Response returns the listing for locale, or nil when the locale is unknown.
func (i *SourceIndex) Response(locale string) []Source {
	return i.byLocale[strings.ToUpper(locale)]
}
