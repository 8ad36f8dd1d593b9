package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorPayload {
	t.Helper()
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	return p
}

func echoLocale() PayloadResolver {
	return ResolverFunc(func(_ context.Context, locale string) (any, error) {
		return []string{"payload-" + locale}, nil
	})
}

func TestLocalesResolve(t *testing.T) {
	l := NewLocales([]string{"fi", "EN"})
	testCases := []struct {
		requested string
		want      string
		wantErr   bool
	}{
		{"", "FI", false},
		{"   ", "FI", false},
		{"en", "EN", false},
		{"En", "EN", false},
		{"FI", "FI", false},
		{"sv", "", true},
		{"english", "", true},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%q", tc.requested), func(t *testing.T) {
			got, err := l.Resolve(tc.requested)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedLocale)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLocalesResolveIsIdempotent(t *testing.T) {
	l := NewLocales([]string{"FI", "EN", "SV"})
	for _, in := range []string{"", "fi", "en", "Sv"} {
		once, err := l.Resolve(in)
		require.NoError(t, err)
		twice, err := l.Resolve(once)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	}
}

func TestUnsupportedLocaleMessage(t *testing.T) {
	_, err := NewLocales([]string{"FI", "EN"}).Resolve("xx")
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Code)
	assert.Equal(t, "Language 'XX' not supported", re.Message)
	assert.Equal(t, "Supported languages: [FI, EN]", re.Fields)
}

func TestHandlerDefaultLocale(t *testing.T) {
	h := NewHandler("test", NewLocales([]string{"FI", "EN"}), echoLocale(), nil)
	rec := serve(t, h, http.MethodGet, "/v1/test")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json;charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"lang":"FI","response":["payload-FI"]}`, rec.Body.String())
}

func TestHandlerRequestedLocale(t *testing.T) {
	h := NewHandler("test", NewLocales([]string{"FI", "EN"}), echoLocale(), nil)
	rec := serve(t, h, http.MethodGet, "/v1/test?lang=en")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lang":"EN","response":["payload-EN"]}`, rec.Body.String())
}

func TestHandlerUnsupportedLocale(t *testing.T) {
	called := false
	h := NewHandler("test", NewLocales([]string{"FI", "EN"}), ResolverFunc(func(context.Context, string) (any, error) {
		called = true
		return "x", nil
	}), nil)
	rec := serve(t, h, http.MethodGet, "/v1/test?lang=xx")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
	p := decodeError(t, rec)
	assert.Equal(t, 400, p.Code)
	assert.Equal(t, "Language 'XX' not supported", p.Message)
}

func TestHandlerRejectsNonGet(t *testing.T) {
	h := NewHandler("test", NewLocales([]string{"FI"}), echoLocale(), nil)
	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch} {
		t.Run(method, func(t *testing.T) {
			// an invalid locale must not change the outcome
			rec := serve(t, h, method, "/v1/test?lang=xx")
			require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			p := decodeError(t, rec)
			assert.Equal(t, 405, p.Code)
			assert.Equal(t, method+" not allowed", p.Message)
			assert.Equal(t, "Only GET is allowed", p.Fields)
		})
	}
}

func TestHandlerNilPayload(t *testing.T) {
	var typedNil []string
	for name, payload := range map[string]any{"untyped": nil, "typed": typedNil} {
		t.Run(name, func(t *testing.T) {
			h := NewHandler("test", NewLocales([]string{"FI"}), ResolverFunc(func(context.Context, string) (any, error) {
				return payload, nil
			}), nil)
			rec := serve(t, h, http.MethodGet, "/v1/test")
			require.Equal(t, http.StatusNotImplemented, rec.Code)
			assert.Equal(t, ErrorPayload{Code: 501, Message: "Not implemented on the server side"}, decodeError(t, rec))
		})
	}
}

func TestHandlerEmptyListIsNotNil(t *testing.T) {
	h := NewHandler("test", NewLocales([]string{"FI"}), ResolverFunc(func(context.Context, string) (any, error) {
		return []string{}, nil
	}), nil)
	rec := serve(t, h, http.MethodGet, "/v1/test")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"lang":"FI","response":[]}`, rec.Body.String())
}

func TestHandlerUpstreamUnavailable(t *testing.T) {
	h := NewHandler("test", NewLocales([]string{"FI"}), ResolverFunc(func(context.Context, string) (any, error) {
		return nil, fmt.Errorf("resolver 2: %w", ErrUpstreamUnavailable)
	}), nil)
	rec := serve(t, h, http.MethodGet, "/v1/test")
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	p := decodeError(t, rec)
	assert.Equal(t, "Not implemented on the server side", p.Message)
	assert.NotContains(t, rec.Body.String(), "resolver 2")
}

func TestHandlerUnknownResolverError(t *testing.T) {
	h := NewHandler("test", NewLocales([]string{"FI"}), ResolverFunc(func(context.Context, string) (any, error) {
		return nil, errors.New("boom")
	}), nil)
	rec := serve(t, h, http.MethodGet, "/v1/test")
	require.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandlerEncodingFailure(t *testing.T) {
	h := NewHandler("test", NewLocales([]string{"FI"}), ResolverFunc(func(context.Context, string) (any, error) {
		return []float64{math.NaN()}, nil
	}), nil)
	rec := serve(t, h, http.MethodGet, "/v1/test")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 503, decodeError(t, rec).Code)
}

func TestHandlerWithoutEnvelope(t *testing.T) {
	h := NewHandler("meta", NewLocales([]string{"FI"}), ResolverFunc(func(context.Context, string) (any, error) {
		return map[string]string{"id": "x"}, nil
	}), nil, WithoutEnvelope())
	rec := serve(t, h, http.MethodGet, "/v1/meta?lang=fi")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"x"}`, rec.Body.String())
}

func TestHandlerWithoutLocale(t *testing.T) {
	var got string
	h := NewHandler("meta", NewLocales([]string{"fi", "en"}), ResolverFunc(func(_ context.Context, locale string) (any, error) {
		got = locale
		return map[string]string{"id": "x"}, nil
	}), nil, WithoutEnvelope(), WithoutLocale())

	rec := serve(t, h, http.MethodGet, "/v1/meta?lang=xx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"x"}`, rec.Body.String())
	assert.Equal(t, "FI", got)

	rec = serve(t, h, http.MethodPost, "/v1/meta")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, methodNotAllowed("POST"), ErrMethodNotAllowed)
	assert.ErrorIs(t, notImplemented(), ErrNotImplemented)
	assert.ErrorIs(t, encodingFailure(), ErrEncodingFailure)
	assert.Equal(t, http.StatusNotImplemented, asError(ErrNotImplemented).Code)
	assert.ErrorIs(t, asError(errors.New("x")), ErrUpstreamUnavailable)
}
