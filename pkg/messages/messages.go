// Package messages resolves localized strings from TOML message bundles.
package messages

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"idprest/pkg/logger"
)

// Catalog looks up message keys for a locale. Unknown keys resolve to the key
// itself so a missing translation is visible without failing the caller.
type Catalog struct {
	bundle *i18n.Bundle
	log    *zap.SugaredLogger
}

// New loads messages.<lang>.toml for every language from dir. The first
// language becomes the bundle default.
func New(dir string, languages []string, log *zap.SugaredLogger) (*Catalog, error) {
	if len(languages) == 0 {
		return nil, errors.New("no message languages configured")
	}
	if dir == "" {
		dir = "messages"
	}
	def, err := language.Parse(languages[0])
	if err != nil {
		return nil, fmt.Errorf("default message language %q: %w", languages[0], err)
	}
	bundle := i18n.NewBundle(def)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)
	for _, lang := range languages {
		path := filepath.Join(dir, fmt.Sprintf("messages.%s.toml", strings.ToLower(lang)))
		if _, err := bundle.LoadMessageFile(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	return &Catalog{bundle: bundle, log: logger.OrNop(log)}, nil
}

// Message returns the translation of key for locale (case-insensitive BCP 47).
func (c *Catalog) Message(key, locale string) string {
	localizer := i18n.NewLocalizer(c.bundle, strings.ToLower(locale))
	out, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:      key,
		DefaultMessage: &i18n.Message{ID: key, Other: key},
	})
	if err != nil {
		var notFound *i18n.MessageNotFoundErr
		if !errors.As(err, &notFound) {
			c.log.Warnw("could not localize message", "key", key, "locale", locale, "err", err)
		}
	}
	if out == "" {
		return key
	}
	return out
}

// Languages lists the tags loaded into the bundle.
func (c *Catalog) Languages() []language.Tag { return c.bundle.LanguageTags() }

// MissingLocales returns the locales that have no bundle of their own and
// would therefore be served from the default language.
func (c *Catalog) MissingLocales(locales []string) []string {
	loaded := map[string]bool{}
	for _, t := range c.Languages() {
		base, _ := t.Base()
		loaded[strings.ToLower(t.String())] = true
		loaded[base.String()] = true
	}
	var missing []string
	for _, l := range locales {
		if !loaded[strings.ToLower(l)] {
			missing = append(missing, l)
		}
	}
	return missing
}
