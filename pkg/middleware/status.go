// pkg/middleware/status.go
package middleware

import (
	"net/http"
	"runtime/debug"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"idprest/pkg/logger"
	"idprest/pkg/metrics"
)

// Metrics counts requests by route pattern and status code. A second
// WriteHeader on the same response is logged with a stack trace.
func Metrics(m *metrics.Metrics, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, method: r.Method, path: r.URL.Path, log: log}
			next.ServeHTTP(sw, r)
			endpoint := r.URL.Path
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					endpoint = p
				}
			}
			code := sw.code
			if code == 0 {
				code = http.StatusOK
			}
			m.ObserveRequest(endpoint, code)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	wrote  int32
	method string
	path   string
	code   int
	log    *zap.SugaredLogger
}

func (s *statusWriter) WriteHeader(code int) {
	if atomic.CompareAndSwapInt32(&s.wrote, 0, 1) {
		s.code = code
		s.ResponseWriter.WriteHeader(code)
		return
	}
	s.log.Warnw("double WriteHeader", "method", s.method, "path", s.path, "first", s.code, "second", code, "stack", string(debug.Stack()))
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if atomic.LoadInt32(&s.wrote) == 0 {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}
