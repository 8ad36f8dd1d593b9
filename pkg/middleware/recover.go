package middleware

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"idprest/pkg/logger"
)

// Recover turns a handler panic into a JSON 500. http.ErrAbortHandler is
// re-raised so the server still aborts the connection.
func Recover(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	log = logger.OrNop(log)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Errorw("panic serving request",
					"err", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"reqid", RequestIDFrom(r.Context()),
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "Internal error")
			}()
			next.ServeHTTP(w, r)
		})
	}
}
