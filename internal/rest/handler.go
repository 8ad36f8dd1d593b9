// Package rest holds the request pipeline shared by the discovery endpoints:
// method check, locale resolution, payload resolution and JSON encoding.
package rest

import (
	"context"
	"net/http"
	"reflect"

	"go.uber.org/zap"

	"idprest/pkg/logger"
	"idprest/pkg/middleware"
)

// PayloadResolver produces the payload of an endpoint for a resolved locale.
// A nil payload with a nil error means the endpoint has nothing to serve.
type PayloadResolver interface {
	Resolve(ctx context.Context, locale string) (any, error)
}

type ResolverFunc func(ctx context.Context, locale string) (any, error)

func (f ResolverFunc) Resolve(ctx context.Context, locale string) (any, error) { return f(ctx, locale) }

// Handler serves one read-only endpoint.
type Handler struct {
	name     string
	locales  Locales
	resolver PayloadResolver
	envelope bool
	localize bool
	log      *zap.SugaredLogger
}

type Option func(*Handler)

// WithoutEnvelope serializes the payload directly instead of wrapping it in
// a LocalizedEnvelope.
func WithoutEnvelope() Option { return func(h *Handler) { h.envelope = false } }

// WithoutLocale ignores the lang parameter and resolves the payload for the
// default locale.
func WithoutLocale() Option { return func(h *Handler) { h.localize = false } }

func NewHandler(name string, locales Locales, resolver PayloadResolver, log *zap.SugaredLogger, opts ...Option) *Handler {
	h := &Handler{
		name:     name,
		locales:  locales,
		resolver: resolver,
		envelope: true,
		localize: true,
		log:      logger.OrNop(log).With("endpoint", name),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.fail(w, r, methodNotAllowed(r.Method))
		return
	}
	locale := h.locales.Default()
	if h.localize {
		var err error
		if locale, err = h.locales.Resolve(r.URL.Query().Get("lang")); err != nil {
			h.fail(w, r, asError(err))
			return
		}
	}
	payload, err := h.resolver.Resolve(r.Context(), locale)
	if err != nil {
		e := asError(err)
		if e.Kind == ErrUpstreamUnavailable {
			h.log.Errorw("could not resolve payload",
				"locale", locale,
				"reqid", middleware.RequestIDFrom(r.Context()),
				"sub", middleware.SubjectFrom(r.Context()),
				"err", err)
		}
		h.fail(w, r, e)
		return
	}
	if isNil(payload) {
		h.fail(w, r, notImplemented())
		return
	}
	if h.envelope {
		payload = Wrap(locale, payload)
	}
	WriteJSON(w, http.StatusOK, payload, h.log)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, e *Error) {
	h.log.Debugw("request failed",
		"code", e.Code,
		"message", e.Message,
		"reqid", middleware.RequestIDFrom(r.Context()),
		"sub", middleware.SubjectFrom(r.Context()))
	WriteError(w, e.Code, e.Message, e.Fields, h.log)
}

// isNil also catches typed nils such as a nil slice stored in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
