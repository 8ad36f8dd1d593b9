package authn

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"idprest/pkg/flows"
	"idprest/pkg/logger"
)

// Tag is a descriptive tag with its localized title.
type Tag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TagIndex holds the per-locale tag listings, unique by tag id and ordered by
// first appearance across the exposed flows.
type TagIndex struct {
	byLocale map[string][]Tag
}

// MissingTagTitlesError lists tags without a "<tag>.title" property.
type MissingTagTitlesError struct {
	Tags []string
}

func (e *MissingTagTitlesError) Error() string {
	return fmt.Sprintf("no title property configured for tags: %s", strings.Join(e.Tags, ", "))
}

// BuildTags materializes the tag listing for every supported locale. A tag
// without a "<tag>.title" property fails the build when cfg.StrictTagTitles is
// set; otherwise it is logged and the literal key is handed to the catalog.
func BuildTags(cfg Configuration, all []flows.Descriptor, catalog Catalog, log *zap.SugaredLogger) (*TagIndex, error) {
	log = logger.OrNop(log)
	idx := &TagIndex{byLocale: make(map[string][]Tag, len(cfg.SupportedLocales))}
	for _, locale := range cfg.SupportedLocales {
		idx.byLocale[locale] = []Tag{}
	}
	seen := map[string]struct{}{}
	var missing []string
	for _, ef := range exposed(NewFilter(cfg), all) {
		for _, tagID := range TagsOf(ef.flow) {
			if _, ok := seen[tagID]; ok {
				continue
			}
			seen[tagID] = struct{}{}
			key := tagID + ".title"
			titleKey, ok := cfg.Properties.Lookup(key)
			if !ok {
				missing = append(missing, tagID)
				titleKey = key
			}
			for _, locale := range cfg.SupportedLocales {
				idx.byLocale[locale] = append(idx.byLocale[locale], Tag{ID: tagID, Title: catalog.Message(titleKey, locale)})
			}
			log.Debugw("added tag", "tag", tagID, "flow", ef.id)
		}
	}
	if len(missing) > 0 {
		if cfg.StrictTagTitles {
			return nil, &MissingTagTitlesError{Tags: missing}
		}
		log.Warnw("tags without title property, falling back to the literal key", "tags", missing)
	}
	return idx, nil
}

// Response returns the listing for locale, or nil when the locale is unknown.
func (i *TagIndex) Response(locale string) []Tag {
	return i.byLocale[strings.ToUpper(locale)]
}
