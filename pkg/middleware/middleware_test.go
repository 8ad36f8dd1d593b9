package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"idprest/pkg/config"
	"idprest/pkg/metrics"
)

var echoSubject = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(SubjectFrom(r.Context())))
})

func TestResponseHeaders(t *testing.T) {
	h := ResponseHeaders(map[string]string{"Access-Control-Allow-Origin": "*"})(echoSubject)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/authnsources", nil))

	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
	assert.Equal(t, "0", rec.Header().Get("Expires"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.NotEqual(t, "abc", seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-Id", "corr-1")
	h.ServeHTTP(rec, req)
	assert.Equal(t, "corr-1", seen)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "has space")
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "has space", seen)
	assert.Len(t, seen, 36)
}

func TestRecover(t *testing.T) {
	h := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 500.0, body["code"])

	abort := Recover(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }))
	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestMetricsByRoutePattern(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := chi.NewRouter()
	r.Use(Metrics(m, nil))
	r.Get("/v1/things/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	r.Get("/v1/ok", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })

	for _, path := range []string{"/v1/things/1", "/v1/things/2", "/v1/ok"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("/v1/things/{id}", "418")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("/v1/ok", "200")))
}

func TestStatusWriterIgnoresSecondWriteHeader(t *testing.T) {
	rec := httptest.NewRecorder()
	h := Metrics(nil, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type BearerAuthSuite struct {
	suite.Suite
	key jwk.Key
	set jwk.Set
	cfg config.Config
}

func TestBearerAuthSuite(t *testing.T) {
	suite.Run(t, new(BearerAuthSuite))
}

func (s *BearerAuthSuite) SetupSuite() {
	raw, err := rsa.GenerateKey(rand.Reader, 2048)
	s.Require().NoError(err)
	s.key, err = jwk.FromRaw(raw)
	s.Require().NoError(err)
	s.Require().NoError(s.key.Set(jwk.KeyIDKey, "test-key"))
	s.Require().NoError(s.key.Set(jwk.AlgorithmKey, jwa.RS256))
	pub, err := jwk.PublicKeyOf(s.key)
	s.Require().NoError(err)
	s.set = jwk.NewSet()
	s.Require().NoError(s.set.AddKey(pub))
	s.cfg = config.Config{Issuer: "https://issuer.example.org/", Audience: "idp-rest", JWTSkew: time.Minute}
}

func (s *BearerAuthSuite) token(issuer, audience string, exp time.Time) string {
	tok, err := jwt.NewBuilder().
		Issuer(issuer).
		Audience([]string{audience}).
		Subject("alice").
		IssuedAt(time.Now()).
		Expiration(exp).
		Build()
	s.Require().NoError(err)
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, s.key))
	s.Require().NoError(err)
	return string(signed)
}

func (s *BearerAuthSuite) do(h http.Handler, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (s *BearerAuthSuite) TestValidToken() {
	h := BearerAuth(s.cfg, StaticKeys{Set: s.set}, nil)(echoSubject)
	rec := s.do(h, "/v1/authnsources", "Bearer "+s.token("https://issuer.example.org", "idp-rest", time.Now().Add(time.Hour)))
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("alice", rec.Body.String())
}

func (s *BearerAuthSuite) TestRejectedTokens() {
	h := BearerAuth(s.cfg, StaticKeys{Set: s.set}, nil)(echoSubject)
	testCases := map[string]string{
		"missing":        "",
		"not bearer":     "Basic YWxpY2U6cHc=",
		"garbage":        "Bearer not-a-jwt",
		"wrong issuer":   "Bearer " + s.token("https://other.example.org", "idp-rest", time.Now().Add(time.Hour)),
		"wrong audience": "Bearer " + s.token("https://issuer.example.org", "other", time.Now().Add(time.Hour)),
		"expired":        "Bearer " + s.token("https://issuer.example.org", "idp-rest", time.Now().Add(-time.Hour)),
	}
	for name, authz := range testCases {
		s.Run(name, func() {
			rec := s.do(h, "/v1/authnsources", authz)
			s.Equal(http.StatusUnauthorized, rec.Code)
		})
	}
}

func (s *BearerAuthSuite) TestPublicPaths() {
	h := BearerAuth(s.cfg, StaticKeys{Set: s.set}, nil)(echoSubject)
	for _, p := range []string{"/healthz", "/ping", "/metrics", "/openapi.json"} {
		s.Equal(http.StatusOK, s.do(h, p, "").Code, p)
	}
}

func (s *BearerAuthSuite) TestNonReadMethodsPassThrough() {
	reached := 0
	h := BearerAuth(s.cfg, StaticKeys{Set: s.set}, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		reached++
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	for _, m := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(m, "/v1/authnsources", nil))
		s.Equal(http.StatusMethodNotAllowed, rec.Code, m)
	}
	s.Equal(3, reached)
}

func (s *BearerAuthSuite) TestDisabledWithoutKeys() {
	h := BearerAuth(s.cfg, nil, nil)(echoSubject)
	s.Equal(http.StatusOK, s.do(h, "/v1/authnsources", "").Code)
}

func (s *BearerAuthSuite) TestJWKSCache() {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.set)
	}))
	defer srv.Close()

	cache := NewJWKSCache(srv.URL, time.Hour)
	for i := 0; i < 3; i++ {
		set, err := cache.Keys(context.Background())
		s.Require().NoError(err)
		s.Equal(1, set.Len())
	}
	s.Equal(1, hits)

	h := BearerAuth(s.cfg, cache, nil)(echoSubject)
	rec := s.do(h, "/v1/authntags", "Bearer "+s.token("https://issuer.example.org", "idp-rest", time.Now().Add(time.Hour)))
	s.Equal(http.StatusOK, rec.Code)
}
