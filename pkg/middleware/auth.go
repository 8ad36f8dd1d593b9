// pkg/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"go.uber.org/zap"

	"idprest/pkg/config"
	"idprest/pkg/logger"
)

// KeySource supplies the keys that access tokens are verified against.
type KeySource interface {
	Keys(ctx context.Context) (jwk.Set, error)
}

// StaticKeys is a KeySource with a fixed key set.
type StaticKeys struct{ Set jwk.Set }

func (s StaticKeys) Keys(context.Context) (jwk.Set, error) { return s.Set, nil }

// JWKSCache fetches a JWKS document and keeps it for TTL.
type JWKSCache struct {
	URL string
	TTL time.Duration

	mu      sync.RWMutex
	set     jwk.Set
	expires time.Time
}

func NewJWKSCache(url string, ttl time.Duration) *JWKSCache {
	return &JWKSCache{URL: url, TTL: ttl}
}

func (c *JWKSCache) Keys(ctx context.Context) (jwk.Set, error) {
	c.mu.RLock()
	if c.set != nil && time.Now().Before(c.expires) {
		set := c.set
		c.mu.RUnlock()
		return set, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set != nil && time.Now().Before(c.expires) {
		return c.set, nil
	}
	set, err := jwk.Fetch(ctx, c.URL)
	if err != nil {
		return nil, err
	}
	c.set = set
	c.expires = time.Now().Add(c.TTL)
	return set, nil
}

type subjectKey struct{}

// publicPaths never require a token.
var publicPaths = map[string]bool{
	"/healthz":      true,
	"/ping":         true,
	"/metrics":      true,
	"/openapi.json": true,
}

// BearerAuth requires a valid access token on every read request. Other
// methods are passed on untouched so the endpoint answers them with its own
// 405. A nil keys disables the guard.
func BearerAuth(cfg config.Config, keys KeySource, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	if keys == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	log = logger.OrNop(log)
	issuer := strings.TrimRight(cfg.Issuer, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] || !readMethod(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				writeError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}
			raw := strings.TrimSpace(authz[len("Bearer "):])

			set, err := keys.Keys(r.Context())
			if err != nil {
				log.Errorw("could not load token keys", "err", err)
				writeError(w, http.StatusServiceUnavailable, "Token keys unavailable")
				return
			}
			opts := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithValidate(true), jwt.WithVerify(true), jwt.WithAcceptableSkew(cfg.JWTSkew)}
			if issuer != "" {
				opts = append(opts, jwt.WithIssuer(issuer))
			}
			if cfg.Audience != "" {
				opts = append(opts, jwt.WithAudience(cfg.Audience))
			}
			tok, err := jwt.Parse([]byte(raw), opts...)
			if err != nil {
				log.Debugw("rejected token", "err", err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey{}, tok.Subject())))
		})
	}
}

func readMethod(m string) bool { return m == http.MethodGet || m == http.MethodHead }

// SubjectFrom returns the subject of the verified token, if any.
func SubjectFrom(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}
