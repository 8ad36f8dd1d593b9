package rest

import "strings"

// Locales resolves requested language tags against the supported locales.
// The first supported locale is the default.
type Locales struct {
	supported []string
}

func NewLocales(supported []string) Locales {
	l := Locales{supported: make([]string, 0, len(supported))}
	for _, s := range supported {
		l.supported = append(l.supported, strings.ToUpper(strings.TrimSpace(s)))
	}
	return l
}

// Default returns the first supported locale, or "" when none is configured.
func (l Locales) Default() string {
	if len(l.supported) == 0 {
		return ""
	}
	return l.supported[0]
}

// Supported returns a copy of the supported locales in configuration order.
func (l Locales) Supported() []string {
	return append([]string(nil), l.supported...)
}

// Resolve returns the canonical upper-case locale for requested. A blank
// request resolves to the default locale.
func (l Locales) Resolve(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return l.Default(), nil
	}
	upper := strings.ToUpper(requested)
	for _, s := range l.supported {
		if s == upper {
			return s, nil
		}
	}
	return "", unsupportedLocale(upper, l.supported)
}
